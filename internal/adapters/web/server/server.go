package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/adapters/reporting"
	"github.com/lcalzada-xor/fsguard/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/fsguard/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/fsguard/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr    string
	Service ports.SecurityService

	WSManager         *websocket.WSManager
	MonitorHandler    *handlers.MonitorHandler
	ScanHandler       *handlers.ScanHandler
	QuarantineHandler *handlers.QuarantineHandler
	RuleHandler       *handlers.RuleHandler
	SignatureHandler  *handlers.SignatureHandler
	EventHandler      *handlers.EventHandler

	// MutationLimiter guards the endpoints that touch files or the databases.
	MutationLimiter *middleware.RateLimiter

	srv *http.Server
}

// NewServer creates a new web server and registers the websocket stream
// as an observer of the service.
func NewServer(addr string, service ports.SecurityService, pdfExporter *reporting.PDFExporter) *Server {
	ws := websocket.NewWSManager(service.MonitorStatus)
	service.AddObserver(ws)

	scanHandler := handlers.NewScanHandler(service, pdfExporter)
	scanHandler.OnProgress = ws.BroadcastProgress

	return &Server{
		Addr:    addr,
		Service: service,

		WSManager:         ws,
		MonitorHandler:    handlers.NewMonitorHandler(service),
		ScanHandler:       scanHandler,
		QuarantineHandler: handlers.NewQuarantineHandler(service),
		RuleHandler:       handlers.NewRuleHandler(service),
		SignatureHandler:  handlers.NewSignatureHandler(service),
		EventHandler:      handlers.NewEventHandler(service),
		MutationLimiter:   middleware.NewRateLimiter(60, time.Minute),
	}
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(SetupRoutes(s), "fsguard-api")
}

// Run starts the server and the websocket status sweep. It returns when ctx
// is cancelled and the server has shut down.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.WSManager.Start(ctx)
	go s.MutationLimiter.Run(ctx)

	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown implementation
	go func() {
		<-ctx.Done()
		log.Println("Web Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web Server shutdown error: %v", err)
		}
	}()

	log.Printf("Web server listening on %s", ln.Addr())
	if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
