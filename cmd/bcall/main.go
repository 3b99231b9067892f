// Package main provides the entry point for the bcall CLI tool.
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/bcall/cmd/bcall/commands"
)

func main() {
	rootCmd := commands.NewRootCommand()

	err := rootCmd.Execute()
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "Error: ")
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
