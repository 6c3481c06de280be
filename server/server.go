package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"corvex/config"
	"corvex/controller"
	"corvex/logging"
	"corvex/metrics"
	"corvex/storage"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	store  storage.Notes
	logger *logging.Logger
}

func New(cfg *config.Config, store storage.Notes, renderer controller.Renderer, logger *logging.Logger) *Server {
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(AccessLog(logger.Named("http")))
	router.Use(metrics.Middleware())
	router.Use(CORS(cfg.CORS.Origins))

	s := &Server{
		router: router,
		store:  store,
		logger: logger,
		http: &http.Server{
			Addr:    cfg.Server.Addr(),
			Handler: router,
		},
	}

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	var renderLimit []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		logger.Info("render rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RPS),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		renderLimit = append(renderLimit, RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	ctl := controller.New(store, renderer, controller.Options{
		ConnectionTimeout: cfg.Connection.Timeout,
		AllowedOrigins:    cfg.CORS.Origins,
	}, logger)
	ctl.SetupRoutes(router, renderLimit...)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens and serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("started", zap.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
// Hijacked websocket connections are not waited for.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	return s.http.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	root, err := s.store.Root()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "root": root})
}
