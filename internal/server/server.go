package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vtk-it/declaro/internal/auth/session"
	"github.com/vtk-it/declaro/internal/auth/token"
	billdomain "github.com/vtk-it/declaro/internal/bill/domain"
	"github.com/vtk-it/declaro/internal/cache"
	"github.com/vtk-it/declaro/internal/config"
	"github.com/vtk-it/declaro/internal/observability"
	obsmiddleware "github.com/vtk-it/declaro/internal/observability/logger"
	obsmetrics "github.com/vtk-it/declaro/internal/observability/metrics"
	profiledomain "github.com/vtk-it/declaro/internal/profile/domain"
	"github.com/vtk-it/declaro/internal/ratelimit"
	"github.com/vtk-it/declaro/internal/report"
	"github.com/vtk-it/declaro/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	if len(cfg.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AllowCredentials = true
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
		r.Use(cors.New(corsCfg))
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
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

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	sessions   *session.Manager
	tokens     *token.Issuer
	genID      *snowflake.Node
	billSvc    billdomain.Service
	profileSvc profiledomain.Service
	receipts   storage.ReceiptStore
	compositor *report.Compositor
	exporter   *report.Exporter
	reports    cache.ReportCache
	logins     *ratelimit.LoginLimiter
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	Sessions   *session.Manager
	Tokens     *token.Issuer
	GenID      *snowflake.Node
	BillSvc    billdomain.Service
	ProfileSvc profiledomain.Service
	Receipts   storage.ReceiptStore
	Compositor *report.Compositor
	Exporter   *report.Exporter
	Reports    cache.ReportCache
	Logins     *ratelimit.LoginLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("server"),
		sessions:   p.Sessions,
		tokens:     p.Tokens,
		genID:      p.GenID,
		billSvc:    p.BillSvc,
		profileSvc: p.ProfileSvc,
		receipts:   p.Receipts,
		compositor: p.Compositor,
		exporter:   p.Exporter,
		reports:    p.Reports,
		logins:     p.Logins,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Bills --------
	api.GET("/bills", s.ListOwnBills)
	api.POST("/bills", s.CreateBill)
	api.GET("/bills/all", s.ListAllBills)
	api.GET("/bills/export", s.AdminRequired(), s.ExportOverview)
	api.GET("/bills/:id", s.GetBillByID)
	api.PUT("/bills/:id", s.UpdateBill)
	api.PUT("/bills/:id/receipt", s.ReplaceReceipt)
	api.DELETE("/bills/:id", s.DeleteBill)
	api.POST("/bills/:id/paid", s.SetBillPaid)
	api.POST("/bills/:id/booked", s.SetBillBooked)
	api.GET("/bills/:id/report", s.DownloadReport)
	api.GET("/bills/:id/receipt", s.DownloadReceipt)

	// -------- Posts --------
	api.GET("/posts", s.ListPosts)

	// -------- Profiles --------
	api.GET("/profile", s.GetOwnProfile)
	api.PUT("/profile", s.UpdateOwnProfile)
	api.GET("/profiles", s.AdminRequired(), s.ListProfiles)
	api.PUT("/profiles/:id/privileges", s.AdminRequired(), s.SetProfilePrivileges)
}
