package web

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/cjeanneret/SlideGo/internal/debug"
	"github.com/cjeanneret/SlideGo/internal/logic/instrument"
)

// Server wraps the HTTP server and handlers.
type Server struct {
	addr     string
	handlers *Handlers
}

// NewServer creates a server configured for the given address and dependencies.
func NewServer(addr string, in *instrument.Instrument, broadcaster *StatusBroadcaster, defaults ExplorerConfig) (*Server, error) {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("web: static files: %w", err)
	}
	return &Server{
		addr:     addr,
		handlers: NewHandlers(broadcaster, in, defaults, subFS),
	}, nil
}

// logRequests reports every request at the live debug level.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		debug.Live("%s %s (%s)", r.Method, r.URL.RequestURI(), time.Since(start).Round(time.Microsecond))
	})
}

// Mux returns an http.Handler with all routes registered.
func (s *Server) Mux() http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/scales", s.handlers.HandleScales).Methods(http.MethodGet)
	r.HandleFunc("/scales/{name}", s.handlers.HandleScale).Methods(http.MethodGet)
	r.HandleFunc("/scales/{name}/read", s.handlers.HandleRead).Methods(http.MethodGet)
	r.HandleFunc("/cursor", s.handlers.HandleCursor).Methods(http.MethodGet)
	r.HandleFunc("/config", s.handlers.HandleConfig).Methods(http.MethodGet)
	r.HandleFunc("/status/stream", s.handlers.HandleStatusStream).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(s.handlers.staticFS))))
	r.HandleFunc("/", s.handlers.ServeIndex).Methods(http.MethodGet)

	return r
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:     s.addr,
		Handler:  s.Mux(),
		ErrorLog: log.New(BroadcastWriter(s.handlers.Broadcaster), "http: ", 0),
	}
	errCh := make(chan error, 1)
	go func() {
		debug.Info("web server listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		debug.Info("web server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
