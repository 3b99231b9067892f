package dump_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bcall/pkg/accum"
	"github.com/Sumatoshi-tech/bcall/pkg/dump"
	"github.com/Sumatoshi-tech/bcall/pkg/manifest"
	"github.com/Sumatoshi-tech/bcall/pkg/persist"
	"github.com/Sumatoshi-tech/bcall/pkg/site"
)

func mustKey(t *testing.T, contig string, pos uint64) site.Key {
	t.Helper()

	k, err := site.Encode(contig, pos)
	require.NoError(t, err)

	return k
}

func defaultCodec() persist.Codec {
	return persist.NewLZ4Codec(persist.NewGobCodec())
}

func TestWriteRead_RoundTrip(t *testing.T) {
	t.Parallel()

	acc := accum.New()
	acc.Fold(mustKey(t, "1", 100), 90, 10)
	acc.Fold(mustKey(t, "X", 1<<40), 3, 0)
	acc.Preseed(mustKey(t, "MT", 7))

	codecs := []persist.Codec{defaultCodec(), persist.NewGobCodec(), persist.NewJSONCodec()}

	for _, codec := range codecs {
		path := filepath.Join(t.TempDir(), "priors"+codec.Extension())

		require.NoError(t, dump.Write(path, acc, codec))

		got, err := dump.Read(path, codec)
		require.NoError(t, err)
		assert.True(t, acc.Equal(got), "codec %T", codec)
	}
}

func TestNewSnapshot_KeyOrder(t *testing.T) {
	t.Parallel()

	acc := accum.New()
	acc.Fold(mustKey(t, "2", 5), 1, 1)
	acc.Fold(mustKey(t, "1", 9), 1, 0)
	acc.Fold(mustKey(t, "1", 3), 0, 1)

	snap := dump.NewSnapshot(acc)

	require.Len(t, snap.Sites, 3)
	assert.Equal(t, dump.SnapshotVersion, snap.Version)

	for i := 1; i < len(snap.Sites); i++ {
		assert.Less(t, snap.Sites[i-1].Key, snap.Sites[i].Key)
	}
}

func TestRead_VersionMismatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "old.dump")
	codec := defaultCodec()

	require.NoError(t, persist.SaveFile(path, codec, &dump.Snapshot{Version: dump.SnapshotVersion + 1}))

	_, err := dump.Read(path, codec)
	require.ErrorIs(t, err, dump.ErrDumpRead)
	assert.Contains(t, err.Error(), "version")
}

func TestRead_Corrupted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	codec := defaultCodec()

	acc := accum.New()
	for pos := uint64(1); pos <= 500; pos++ {
		acc.Fold(mustKey(t, "3", pos), pos, 1)
	}

	good := filepath.Join(dir, "good.dump")
	require.NoError(t, dump.Write(good, acc, codec))

	data, err := os.ReadFile(good)
	require.NoError(t, err)

	truncated := filepath.Join(dir, "truncated.dump")
	require.NoError(t, os.WriteFile(truncated, data[:len(data)/2], 0o600))

	garbage := filepath.Join(dir, "garbage.dump")
	require.NoError(t, os.WriteFile(garbage, []byte("not a dump at all"), 0o600))

	for _, path := range []string{truncated, garbage, filepath.Join(dir, "missing.dump")} {
		_, err := dump.Read(path, codec)
		require.ErrorIs(t, err, dump.ErrDumpRead, path)
		assert.Contains(t, err.Error(), path)
	}
}

func TestWrite_FailureLeavesPreviousDump(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "priors.dump")

	acc := accum.New()
	acc.Fold(mustKey(t, "1", 1), 1, 1)
	require.NoError(t, dump.Write(path, acc, defaultCodec()))

	err := dump.Write(filepath.Join(dir, "missing", "priors.dump"), acc, defaultCodec())
	require.ErrorIs(t, err, dump.ErrDumpWrite)

	got, err := dump.Read(path, defaultCodec())
	require.NoError(t, err)
	assert.True(t, acc.Equal(got))
}

func TestMerge_EqualsInMemoryMerge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	codec := defaultCodec()

	a := accum.New()
	a.Fold(mustKey(t, "1", 100), 45, 5)
	a.Fold(mustKey(t, "2", 7), 10, 0)

	b := accum.New()
	b.Fold(mustKey(t, "1", 100), 45, 5)
	b.Fold(mustKey(t, "Y", 12), 0, 4)

	pathA := filepath.Join(dir, "a.dump")
	pathB := filepath.Join(dir, "b.dump")
	require.NoError(t, dump.Write(pathA, a, codec))
	require.NoError(t, dump.Write(pathB, b, codec))

	m := manifest.New(
		manifest.Entry{ID: "a", Path: pathA},
		manifest.Entry{ID: "b", Path: pathB},
	)

	got := accum.New()
	require.NoError(t, dump.Merge(context.Background(), m, codec, got, dump.MergeOptions{}))

	want := accum.New()
	want.MergeFrom(a)
	want.MergeFrom(b)

	assert.True(t, want.Equal(got))

	c, ok := got.Lookup(mustKey(t, "1", 100))
	require.True(t, ok)
	assert.Equal(t, accum.Counters{Ref: 90, Alt: 10}, c)
}

func TestMerge_FailureLeavesTargetUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	codec := defaultCodec()

	a := accum.New()
	a.Fold(mustKey(t, "1", 100), 45, 5)

	pathA := filepath.Join(dir, "a.dump")
	require.NoError(t, dump.Write(pathA, a, codec))

	m := manifest.New(
		manifest.Entry{ID: "a", Path: pathA},
		manifest.Entry{ID: "bad", Path: filepath.Join(dir, "nope.dump")},
	)

	into := accum.New()
	into.Fold(mustKey(t, "4", 4), 1, 2)

	before := accum.New()
	before.MergeFrom(into)

	err := dump.Merge(context.Background(), m, codec, into, dump.MergeOptions{})
	require.ErrorIs(t, err, dump.ErrDumpRead)
	assert.Contains(t, err.Error(), "bad")
	assert.True(t, before.Equal(into))
}

func TestMerge_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := manifest.New(manifest.Entry{ID: "a", Path: "/nonexistent"})

	err := dump.Merge(ctx, m, defaultCodec(), accum.New(), dump.MergeOptions{})
	require.ErrorIs(t, err, context.Canceled)
}
