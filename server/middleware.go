package server

import (
	"bufio"
	"net"
	"net/http"
	"runtime/debug"
	"time"
)

// origins is the set of web origins allowed to call the API,
// either over plain HTTP (CORS) or from a WebSocket.
type origins struct {
	any bool
	set map[string]bool
}

func newOrigins(list []string) origins {
	o := origins{set: make(map[string]bool, len(list))}
	for _, origin := range list {
		if origin == "*" {
			o.any = true
		}
		o.set[origin] = true
	}
	return o
}

func (o origins) allow(origin string) bool { return o.any || o.set[origin] }

// checkWebSocket is used by the upgrader: requests without
// an Origin header do not come from a browser.
func (o origins) checkWebSocket(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || o.allow(origin)
}

// withCORS answers preflight requests and exposes the
// headers set by the render handlers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.origins.allow(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Access-Control-Expose-Headers", "X-Request-ID, X-Page-Count")
			h.Set("Access-Control-Max-Age", "86400")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers what was sent to the client.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int64
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.size += int64(n)
	return n, err
}

// Hijack is required by the WebSocket upgrade.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging writes one line per request, with the
// request id and page count of rendered documents, if any.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		line := "[api] %s %s %d %s %d bytes"
		args := []interface{}{r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond), rec.size}
		if id := rec.Header().Get("X-Request-ID"); id != "" {
			line += " id=%s"
			args = append(args, id)
		}
		if pages := rec.Header().Get("X-Page-Count"); pages != "" {
			line += " pages=%s"
			args = append(args, pages)
		}
		s.logf(line, args...)
	})
}

// withRecovery turns a panic in a handler into a 500 reply.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logf("[api] panic serving %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
				msg := "Rendering failed unexpectedly"
				if id := w.Header().Get("X-Request-ID"); id != "" {
					msg += " (request " + id + ")"
				}
				WriteError(w, http.StatusInternalServerError, "internal_error", msg)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// method restricts a handler to one HTTP method.
func method(m string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			w.Header().Set("Allow", m)
			WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method "+r.Method+" is not allowed")
			return
		}
		h(w, r)
	}
}
