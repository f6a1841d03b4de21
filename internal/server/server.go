package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stayhub/partneredge/internal/config"
	gatedomain "github.com/stayhub/partneredge/internal/gate/domain"
	"github.com/stayhub/partneredge/internal/observability/metrics"
	orderdomain "github.com/stayhub/partneredge/internal/order/domain"
	partnerdomain "github.com/stayhub/partneredge/internal/partner/domain"
	pricingdomain "github.com/stayhub/partneredge/internal/pricing/domain"
	ruledomain "github.com/stayhub/partneredge/internal/rule/domain"
	settlementdomain "github.com/stayhub/partneredge/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metricsMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.IncHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()))
	}
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node

	ruleSvc       ruledomain.Service
	pricingSvc    pricingdomain.Service
	orderSvc      orderdomain.Service
	partnerSvc    partnerdomain.Service
	gateSvc       gatedomain.Service
	settlementSvc settlementdomain.Service
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node

	RuleSvc       ruledomain.Service
	PricingSvc    pricingdomain.Service
	OrderSvc      orderdomain.Service
	PartnerSvc    partnerdomain.Service
	GateSvc       gatedomain.Service
	SettlementSvc settlementdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		log:           p.Log.Named("http.server"),
		genID:         p.GenID,
		ruleSvc:       p.RuleSvc,
		pricingSvc:    p.PricingSvc,
		orderSvc:      p.OrderSvc,
		partnerSvc:    p.PartnerSvc,
		gateSvc:       p.GateSvc,
		settlementSvc: p.SettlementSvc,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Markup Rules --------
	api.POST("/rules", s.CreateRule)
	api.GET("/rules", s.ListRules)
	api.PATCH("/rules/:id/status", s.SetRuleStatus)

	// -------- Pricing --------
	api.POST("/pricing/resolve", s.ResolvePricing)

	// -------- Orders --------
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/:id", s.GetOrderByID)
	api.POST("/orders/:id/gate-events", s.ApplyGateEvent)

	// -------- Partners --------
	api.POST("/partners", s.CreatePartner)
	api.GET("/partners/:id", s.GetPartnerByID)
	api.PATCH("/partners/:id/status", s.SetPartnerStatus)

	// -------- Settlement --------
	api.POST("/partners/:id/settlement-batches", s.CreateSettlementBatch)
	api.POST("/settlement-batches/:id/approve", s.ApproveSettlementBatch)
	api.POST("/settlement-batches/:id/credit", s.CreditSettlementBatch)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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
