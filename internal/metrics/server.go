package metrics

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/juju/errors"
	"github.com/skip2/go-qrcode"

	"github.com/podline/kiosk/log2"
)

// Sources feed diagnostics endpoints. Each may be nil.
type Sources struct {
	View   func() interface{}
	Health func() map[string]interface{}
	QRText func() string
}

type Server struct {
	log     *log2.Log
	metrics *Metrics
	src     Sources
	router  chi.Router
}

func NewServer(m *Metrics, src Sources, log *log2.Log) *Server {
	s := &Server{log: log, metrics: m, src: src}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Handle("/metrics", m.Handler())
	r.Get("/healthz", s.health)
	r.Get("/view", s.view)
	r.Get("/history/qr.png", s.qr)
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Run listens until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Annotatef(err, "diag listen=%s", addr)
	}
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	s.log.Infof("diag listen=%s", ln.Addr())
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return errors.Annotate(err, "diag serve")
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"ok": true}
	if s.src.Health != nil {
		for k, v := range s.src.Health() {
			body[k] = v
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) {
	if s.src.View == nil {
		http.Error(w, "view not available", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s.src.View())
}

func (s *Server) qr(w http.ResponseWriter, r *http.Request) {
	if s.src.QRText == nil {
		http.NotFound(w, r)
		return
	}
	png, err := qrcode.Encode(s.src.QRText(), qrcode.Medium, 256)
	if err != nil {
		s.log.Errorf("diag qr err=%v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
