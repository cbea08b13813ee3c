// Package httpapi serves the run service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"time"

	"fortio.org/log"

	sexpr "github.com/rphilander/sexpr/core"
	"github.com/rphilander/sexpr/server"
)

// maxBody caps a POST /run body.
const maxBody = 1 << 20

type runRequest struct {
	Source *string `json:"source"`
}

type runResponse struct {
	Result any    `json:"result"`
	Kind   string `json:"kind"`
	Output string `json:"output"`
}

type failureResponse struct {
	Error  string `json:"error"`
	Output string `json:"output"`
}

// NewHandler routes /run, /traces and /healthz to svc.
func NewHandler(svc *server.Service) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		handleRun(svc, w, r)
	})
	mux.HandleFunc("/traces", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		handleTraces(svc, w, r)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok")
	})
	return mux
}

func handleRun(svc *server.Service, w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	source := string(body)
	if isJSON(r.Header.Get("Content-Type")) {
		var req runRequest
		if err := json.Unmarshal(body, &req); err != nil || req.Source == nil {
			http.Error(w, `body must be {"source": "..."}`, http.StatusBadRequest)
			return
		}
		source = *req.Source
	}

	out, _ := svc.Run(r.Context(), source)
	if out.Failed() {
		writeJSON(w, http.StatusUnprocessableEntity, failureResponse{Error: out.Message(), Output: out.Output})
		return
	}
	writeJSON(w, http.StatusOK, runResponse{
		Result: sexpr.ValueToGo(out.Value),
		Kind:   out.Value.KindName(),
		Output: out.Output,
	})
}

func handleTraces(svc *server.Service, w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "'n' must be an integer", http.StatusBadRequest)
			return
		}
		n = v
	}
	traces := svc.Traces(n)
	list := make([]map[string]any, len(traces))
	for i := range traces {
		list[i] = traces[i].ToMap()
	}
	writeJSON(w, http.StatusOK, list)
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("write http response: %v", err)
	}
}

// Server is an HTTP listener bound to a Service.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr. Serving starts with Serve.
func Listen(addr string, svc *server.Service) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		srv: &http.Server{Handler: NewHandler(svc), ReadHeaderTimeout: 10 * time.Second},
		ln:  ln,
	}, nil
}

func (s *Server) Addr() string { return s.ln.Addr().String() }

// Serve blocks until Stop. It returns nil after a clean stop.
func (s *Server) Serve() error {
	log.Infof("http listening on %s", s.Addr())
	if err := s.srv.Serve(s.ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests for up to five seconds.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
