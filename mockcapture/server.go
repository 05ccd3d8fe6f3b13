// Package mockcapture is an in-process stand-in for the remote capture
// service. It accepts webhook POSTs at /{token} and serves the most recently
// captured request back through the same inspection API the real service
// exposes, so the webhook client and poll loop can be exercised with no
// network dependency. The package tests use it directly, and the harness's
// -selfcheck mode runs the delivery suite against it.
package mockcapture

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// capture is the stored record of one received request, mirroring what the
// real inspection API retains.
type capture struct {
	UUID       string              `json:"uuid"`
	Method     string              `json:"method"`
	Headers    map[string][]string `json:"headers"`
	Content    string              `json:"content"`
	ReceivedAt time.Time           `json:"created_at"`
}

// Server retains the latest captured request per token. The zero value is
// not usable; call NewServer.
type Server struct {
	mu       sync.Mutex
	latest   map[string]*capture
	listener net.Listener
	httpSrv  *http.Server
}

func NewServer() *Server {
	return &Server{latest: make(map[string]*capture)}
}

// ServeHTTP implements both halves of the capture API:
//
//	POST /{token}                        store the request body
//	GET  /token/{token}/request/latest   return the latest capture, 404 if none
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(r.URL.Path)

	if len(segments) == 4 && segments[0] == "token" &&
		segments[2] == "request" && segments[3] == "latest" {
		s.serveLatest(w, segments[1])
		return
	}

	if len(segments) == 1 {
		s.serveCapture(w, r, segments[0])
		return
	}

	http.NotFound(w, r)
}

func (s *Server) serveCapture(w http.ResponseWriter, r *http.Request, token string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	s.latest[token] = &capture{
		UUID:       uuid.NewString(),
		Method:     r.Method,
		Headers:    r.Header,
		Content:    string(body),
		ReceivedAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "OK")
}

func (s *Server) serveLatest(w http.ResponseWriter, token string) {
	s.mu.Lock()
	captured := s.latest[token]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if captured == nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		return
	}
	json.NewEncoder(w).Encode(captured)
}

// Reset discards every stored capture.
func (s *Server) Reset() {
	s.mu.Lock()
	s.latest = make(map[string]*capture)
	s.mu.Unlock()
}

// Start serves the capture API on the given address ("127.0.0.1:0" for an
// ephemeral port) and returns the base URL.
func (s *Server) Start(addr string) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	s.listener = listener
	s.httpSrv = &http.Server{Handler: s}
	go func() {
		_ = s.httpSrv.Serve(listener)
	}()
	return "http://" + listener.Addr().String(), nil
}

// Close stops the listener started by Start.
func (s *Server) Close() {
	if s.httpSrv != nil {
		_ = s.httpSrv.Close()
	}
}

func splitPath(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}
