package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"sync"
	"time"

	"github.com/Nzyazin/invest/internal/core/handler"
	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/internal/core/metrics"
	middlWre "github.com/Nzyazin/invest/internal/core/middleware"
	"github.com/Nzyazin/invest/internal/core/repository"
	"github.com/Nzyazin/invest/internal/core/repository/httpapi"
	"github.com/Nzyazin/invest/internal/core/session"
	"github.com/Nzyazin/invest/internal/core/wizard"
	"github.com/Nzyazin/invest/pkg/apiclient"
	"github.com/Nzyazin/invest/pkg/config"
	"github.com/gorilla/mux"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
)

type Server struct {
	router           *mux.Router
	log              logger.Logger
	httpServer       *http.Server
	wizardHandler    *handler.WizardHandler
	portfolioHandler *handler.PortfolioHandler
	registry         *wizard.Registry
	metrics          *metrics.Metrics
	promRegistry     *promclient.Registry
	client           *apiclient.Client
	identity         session.IdentityProvider

	idleTTL   time.Duration
	stopSweep chan struct{}
	stopOnce  sync.Once
}

func NewServer(cfg *config.Config, log logger.Logger) (*Server, error) {
	client, err := apiclient.NewAPIClient(cfg.API, log)
	if err != nil {
		return nil, err
	}

	reg := promclient.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	gateways := func(sess *session.Context) repository.BackendGateway {
		return httpapi.NewBackendGateway(client, sess, log, m)
	}
	registry := wizard.NewRegistry()

	server := &Server{
		log:              log,
		router:           mux.NewRouter(),
		wizardHandler:    handler.NewWizardHandler(registry, gateways, cfg.Wizard, m, log),
		portfolioHandler: handler.NewPortfolioHandler(gateways, time.Now, log),
		registry:         registry,
		metrics:          m,
		promRegistry:     reg,
		client:           client,
		identity:         session.NewVerifyingJWTIdentityProvider([]byte(cfg.API.JWTSigningKey)),
		idleTTL:          cfg.Wizard.IdleTTL,
		stopSweep:        make(chan struct{}),
	}

	server.router.Use(loggingMiddleware(server.log))

	mw := middleware.New(middleware.Config{
		Recorder: prometheus.NewRecorder(prometheus.Config{Registry: reg}),
	})

	server.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			std.Handler(routeID(r), mw, next).ServeHTTP(w, r)
		})
	})

	server.RegisterRoutes()

	if server.idleTTL > 0 {
		go server.sweepWizards()
	}

	return server, nil
}

func (s *Server) RegisterRoutes() {
	s.router.Use(
		middlWre.WithErrorHandler(s.log),
		middlWre.Recovery(s.log),
	)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(middlWre.Authenticate(s.identity, s.log))
	s.wizardHandler.RegisterRoutes(api)
	s.portfolioHandler.RegisterRoutes(api)

	s.router.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{})).Methods("GET")
	s.router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       9 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 6 * time.Second,
	}

	s.httpServer = srv

	return srv.ListenAndServe()
}

func (s *Server) RunTLS(addr, certFile, keyFile string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       9 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 6 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	s.httpServer = srv
	return srv.ListenAndServeTLS(certFile, keyFile)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopSweep) })

	done := make(chan struct{})
	var shutdownErr error

	go func() {
		if s.httpServer != nil {
			err := s.httpServer.Shutdown(ctx)
			if err != nil {
				s.log.Error("failed to shutdown HTTP server", logger.ErrorField("error", err))
				shutdownErr = fmt.Errorf("HTTP server shutdown error: %w", err)
			}
		}

		if s.client != nil {
			err := s.client.Close()
			if err != nil {
				s.log.Error("failed to close backend client", logger.ErrorField("error", err))
				shutdownErr = fmt.Errorf("backend client shutdown error: %w", err)
			}
		}

		s.log.Info("Discarding open wizards", logger.IntField("count", s.registry.Len()))
		close(done)
	}()

	select {
	case <-done:
		return shutdownErr
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// sweepWizards drops abandoned drafts so they do not outlive their user.
func (s *Server) sweepWizards() {
	interval := s.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopSweep:
			return
		case <-ticker.C:
			if removed := s.registry.Sweep(s.idleTTL); removed > 0 {
				s.log.Info("Idle wizards discarded", logger.IntField("count", removed))
			}
			s.metrics.SetOpenWizards(s.registry.Len())
		}
	}
}

// routeID labels HTTP metrics by route template so wizard ids do not blow
// up the label cardinality.
func routeID(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

func loggingMiddleware(log logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Info("HTTP request",
				logger.StringField("method", r.Method),
				logger.StringField("path", r.URL.Path),
				logger.StringField("remote_addr", r.RemoteAddr),
				logger.StringField("user_agent", r.UserAgent()),
			)
			next.ServeHTTP(w, r)
		})
	}
}
