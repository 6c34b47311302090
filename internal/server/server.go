package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/loyara/internal/config"
	obsmetrics "github.com/smallbiznis/loyara/internal/observability/metrics"
	qualificationdomain "github.com/smallbiznis/loyara/internal/qualification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, metrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(MetricsMiddleware(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine  *gin.Engine
	cfg     config.Config
	policy  *config.PolicyHolder
	log     *zap.Logger
	qualSvc qualificationdomain.Service
}

type Params struct {
	fx.In

	Engine  *gin.Engine
	Cfg     config.Config
	Policy  *config.PolicyHolder
	Log     *zap.Logger
	QualSvc qualificationdomain.Service
}

func NewServer(p Params) *Server {
	return &Server{
		engine:  p.Engine,
		cfg:     p.Cfg,
		policy:  p.Policy,
		log:     p.Log.Named("server"),
		qualSvc: p.QualSvc,
	}
}

func registerRoutes(s *Server) {
	s.engine.POST("/webhook", s.handleWebhook)

	api := s.engine.Group("/api")
	api.Use(CORS())
	api.GET("/just-qualified/:customerId", s.handleJustQualified)
	api.GET("/vip-info", s.handleVIPInfo)

	s.engine.GET("/", s.handleRoot)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
