// Package server exposes the HTTP surface: payables computations, the
// billing cron trigger, and organization management.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	billingdomain "github.com/smallbiznis/ledgerly/internal/billing/domain"
	billingservice "github.com/smallbiznis/ledgerly/internal/billing/service"
	"github.com/smallbiznis/ledgerly/internal/clock"
	"github.com/smallbiznis/ledgerly/internal/config"
	"github.com/smallbiznis/ledgerly/internal/organization"
	organizationdomain "github.com/smallbiznis/ledgerly/internal/organization/domain"
	"github.com/smallbiznis/ledgerly/internal/providers/email"
	"github.com/smallbiznis/ledgerly/internal/providers/payment"
	"github.com/smallbiznis/ledgerly/internal/runlock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	email.Module,
	payment.Module,
	runlock.Module,
	organization.Module,
	billingservice.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
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

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	billingSvc      billingdomain.Service
	organizationSvc organizationdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	BillingSvc      billingdomain.Service
	OrganizationSvc organizationdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("server"),
		genID:           p.GenID,
		clock:           p.Clock,
		billingSvc:      p.BillingSvc,
		organizationSvc: p.OrganizationSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	payables := api.Group("/payables")
	{
		payables.POST("/amounts", s.calculateBillAmounts)
		payables.POST("/duplicate-check", s.duplicateCheck)
		payables.POST("/aging", s.agingBucket)
		payables.POST("/similarity", s.stringSimilarity)
		payables.GET("/statuses/:kind/:status", s.formatStatus)
	}

	orgs := api.Group("/organizations")
	{
		orgs.POST("", s.createOrganization)
		orgs.GET("/:id", s.getOrganization)
		orgs.POST("/:id/members", s.addOrganizationMember)
		orgs.DELETE("/:id/members/:userId", s.removeOrganizationMember)
	}

	cron := api.Group("/cron", s.cronAuth())
	{
		cron.POST("/billing", s.runBilling)
	}
}
