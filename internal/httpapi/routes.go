package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMux builds semcache's HTTP route table, using the Go 1.22+
// "METHOD /path" ServeMux patterns exactly as the teacher's
// cmd/server/routes.go does — no external router is needed here either.
func NewMux(proxy *ProxyHandler, cacheAside *CacheAsideHandler, admin *AdminHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", healthCheck)
	mux.HandleFunc("GET /health/ready", healthCheck)

	mux.HandleFunc("POST "+proxy.MountPath(), proxy.ServeHTTP)

	if cacheAside != nil {
		mux.HandleFunc("GET /v1/cache-aside", cacheAside.Get)
		mux.HandleFunc("PUT /v1/cache-aside", cacheAside.Put)
	}

	if admin != nil {
		mux.HandleFunc("GET /admin/status", admin.Status)
	}

	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
