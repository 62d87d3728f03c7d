package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/pomo/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the timer UI.
func NewServer(rt *ops.Runtime, version, bind string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           NewHandler(rt, version),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the route table around rt.
func NewHandler(rt *ops.Runtime, version string) http.Handler {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-FS: %v", err)
	}

	h := &Handlers{
		rt:       rt,
		renderer: NewRenderer(templateSub, version),
	}

	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /{$}", h.HandleStatus)
	mux.HandleFunc("GET /history", h.HandleHistory)
	mux.HandleFunc("GET /report", h.HandleReport)

	// Controls
	mux.HandleFunc("GET /api/timer", h.HandleTimerJSON)
	mux.HandleFunc("POST /api/timer/start", h.HandleStart)
	mux.HandleFunc("POST /api/timer/pause", h.HandlePause)
	mux.HandleFunc("POST /api/timer/reset", h.HandleReset)
	mux.HandleFunc("POST /api/timer/catchup", h.HandleCatchup)
	mux.HandleFunc("POST /api/timer/switch/{phase}", h.HandleSwitch)
	mux.HandleFunc("POST /api/timer/set", h.HandleSet)
	mux.HandleFunc("POST /api/settings", h.HandleSettings)

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return securityHeaders(mux)
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
// The caller closes the runtime afterwards so the last state is written.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("Pomo UI running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
