package observability

import (
	"encoding/json"
	"io"
	"net/http"
)

// HealthHandler answers liveness probes with {"status":"ok"}.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)
		writeHealthJSON(rw, "ok")
	})
}

// ServeMux routes /metrics to the Prometheus handler and /healthz to
// HealthHandler. A nil metrics handler leaves /metrics unrouted.
func ServeMux(metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/healthz", HealthHandler())

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	return mux
}

func writeHealthJSON(w io.Writer, status string) {
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
