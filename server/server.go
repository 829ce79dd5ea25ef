// Package server exposes the compositor over HTTP and WebSocket,
// for editors running in a browser or a webview.
package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/benoitkugler/okink/inkdoc"
	"github.com/benoitkugler/okink/inkpdf"
	"github.com/gorilla/websocket"
)

// ServerConfig holds the network settings of the server.
// Zero fields are replaced by the values of DefaultServerConfig.
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	ReadTimeout  time.Duration `yaml:"read_timeout" json:"readTimeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idleTimeout"`

	// CORSOrigins also restricts WebSocket clients. "*" allows any origin.
	CORSOrigins   []string `yaml:"cors_origins" json:"corsOrigins"`
	EnableLogging bool     `yaml:"enable_logging" json:"enableLogging"`

	// MaxMessageSize bounds request bodies and WebSocket messages, in bytes.
	// Requests embed their background images, so it should be generous.
	MaxMessageSize int64 `yaml:"max_message_size" json:"maxMessageSize"`
}

// DefaultServerConfig returns the default settings.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:           "localhost",
		Port:           8091,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		CORSOrigins:    []string{"http://localhost:1420"}, // webview dev server
		EnableLogging:  true,
		MaxMessageSize: 256 << 20,
	}
}

// withDefaults returns a copy of `c` with zero fields filled in.
func (c ServerConfig) withDefaults() *ServerConfig {
	def := DefaultServerConfig()
	if c.Host == "" {
		c.Host = def.Host
	}
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = def.IdleTimeout
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	return &c
}

// Options are the rendering settings used by the handlers.
type Options struct {
	PDF        inkpdf.Options
	PreviewDPI float64     // default resolution of /api/preview
	Logger     *log.Logger // nil means the standard logger
}

// compositor returns the settings used for previews
func (o Options) compositor() inkdoc.Compositor { return o.PDF.Compositor }

// Server serves the compositor API.
type Server struct {
	config   *ServerConfig
	options  Options
	origins  origins
	upgrader websocket.Upgrader

	mu         sync.Mutex // protects httpServer
	httpServer *http.Server
}

// New creates a server. A nil config means DefaultServerConfig.
func New(config *ServerConfig, options Options) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	s := &Server{config: config.withDefaults(), options: options}
	s.origins = newOrigins(s.config.CORSOrigins)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkWebSocket,
	}
	return s
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.options.Logger != nil {
		s.options.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Address returns the server address in host:port format.
func (s *Server) Address() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Handler returns the API routes. Panics are always recovered,
// CORS and logging depend on the configuration.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", method(http.MethodGet, s.handleHealth))
	mux.HandleFunc("/api/pdf", method(http.MethodPost, s.handlePDF))
	mux.HandleFunc("/api/preview", method(http.MethodPost, s.handlePreview))
	mux.HandleFunc("/ws", s.handleWebSocket)

	var handler http.Handler = mux
	if len(s.config.CORSOrigins) > 0 {
		handler = s.withCORS(handler)
	}
	if s.config.EnableLogging {
		handler = s.withLogging(handler)
	}
	return s.withRecovery(handler)
}

// Start binds the configured address, then serves
// in the background until Shutdown is called.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return errors.New("server is already running")
	}
	ln, err := net.Listen("tcp", s.Address())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.httpServer = srv
	s.logf("[api] listening on %s", ln.Addr())
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logf("[api] server stopped: %v", err)
		}
	}()
	return nil
}

// Shutdown stops accepting connections and waits for the
// pending requests, or for `ctx` to be done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logf("[api] shutting down")
	return srv.Shutdown(ctx)
}

// IsRunning returns true between Start and Shutdown.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpServer != nil
}
