// Package server wires the HTTP surface: routing, authentication,
// authorization gates and error mapping.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	applicationdomain "github.com/municipia/apoios/internal/application/domain"
	authdomain "github.com/municipia/apoios/internal/auth/domain"
	"github.com/municipia/apoios/internal/auth/session"
	"github.com/municipia/apoios/internal/authorization"
	"github.com/municipia/apoios/internal/config"
	documentdomain "github.com/municipia/apoios/internal/document/domain"
	entitydomain "github.com/municipia/apoios/internal/entity/domain"
	historydomain "github.com/municipia/apoios/internal/history/domain"
	"github.com/municipia/apoios/internal/observability"
	obsmiddleware "github.com/municipia/apoios/internal/observability/logger"
	obsmetrics "github.com/municipia/apoios/internal/observability/metrics"
	obstracing "github.com/municipia/apoios/internal/observability/tracing"
	"github.com/municipia/apoios/internal/providers/storage"
	referencedomain "github.com/municipia/apoios/internal/reference/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(obsCfg.ServiceName))
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
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
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	genID          *snowflake.Node
	sessions       *session.Manager
	authsvc        authdomain.Service
	authzSvc       authorization.Service
	applicationSvc applicationdomain.Service
	documentSvc    documentdomain.Service
	entitySvc      entitydomain.Service
	historySvc     historydomain.Service
	referenceSvc   referencedomain.Service
	blobs          storage.Store
	signer         *storage.Signer
	loginLimiter   *rateLimiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	DB             *gorm.DB
	GenID          *snowflake.Node
	Sessions       *session.Manager
	Authsvc        authdomain.Service
	AuthzSvc       authorization.Service
	ApplicationSvc applicationdomain.Service
	DocumentSvc    documentdomain.Service
	EntitySvc      entitydomain.Service
	HistorySvc     historydomain.Service
	ReferenceSvc   referencedomain.Service
	Blobs          storage.Store
	Signer         *storage.Signer
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		genID:          p.GenID,
		sessions:       p.Sessions,
		authsvc:        p.Authsvc,
		authzSvc:       p.AuthzSvc,
		applicationSvc: p.ApplicationSvc,
		documentSvc:    p.DocumentSvc,
		entitySvc:      p.EntitySvc,
		historySvc:     p.HistorySvc,
		referenceSvc:   p.ReferenceSvc,
		blobs:          p.Blobs,
		signer:         p.Signer,
		loginLimiter:   newRateLimiter(10, 10*time.Minute),
	}
}

func registerRoutes(s *Server) {
	s.registerAuthRoutes()
	s.registerAPIRoutes()
	s.registerPublicRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.LoginRateLimit(), s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())

	// -------- Applications --------
	api.GET("/applications", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationView), s.ListApplications)
	api.POST("/applications", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationCreate), s.CreateApplication)
	api.GET("/applications/:id", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationView), s.GetApplicationByID)
	api.PATCH("/applications/:id", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationUpdate), s.UpdateApplication)
	api.DELETE("/applications/:id", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationDelete), s.DeleteApplication)

	// Workflow operations. The lifecycle rules live in the application
	// service; the gates here only decide who may attempt them.
	api.POST("/applications/:id/submit", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationSubmit), s.SubmitApplication)
	api.POST("/applications/:id/begin-review", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationBeginReview), s.BeginApplicationReview)
	api.POST("/applications/:id/return", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationReturn), s.ReturnApplication)
	api.POST("/applications/:id/validate", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationValidate), s.ValidateApplication)
	api.POST("/applications/:id/send-to-president", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationSendToPresident), s.SendApplicationToPresident)
	api.POST("/applications/:id/decide", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationDecide), s.PresidentDecideApplication)
	api.POST("/applications/:id/deliberate", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationDeliberate), s.DeliberateApplication)

	api.GET("/applications/:id/history", s.authorize(authorization.ObjectHistory, authorization.ActionHistoryView), s.GetApplicationTimeline)
	api.GET("/applications/:id/deliberation", s.authorize(authorization.ObjectApplication, authorization.ActionApplicationView), s.GetApplicationDeliberation)

	// -------- Documents --------
	api.GET("/applications/:id/documents", s.authorize(authorization.ObjectDocument, authorization.ActionDocumentView), s.ListApplicationDocuments)
	api.POST("/applications/:id/documents", s.authorize(authorization.ObjectDocument, authorization.ActionDocumentUpload), s.UploadDocument)
	api.GET("/documents/:id", s.authorize(authorization.ObjectDocument, authorization.ActionDocumentView), s.GetDocumentByID)
	api.POST("/documents/:id/review", s.authorize(authorization.ObjectDocument, authorization.ActionDocumentReview), s.ReviewDocument)
	api.DELETE("/documents/:id", s.authorize(authorization.ObjectDocument, authorization.ActionDocumentDelete), s.DeleteDocument)
	api.GET("/documents/:id/download-url", s.authorize(authorization.ObjectDocument, authorization.ActionDocumentView), s.GetDocumentDownloadURL)
	api.GET("/documents/:id/history", s.authorize(authorization.ObjectHistory, authorization.ActionHistoryView), s.GetDocumentTrail)

	// -------- Entities --------
	api.GET("/entities", s.authorize(authorization.ObjectEntity, authorization.ActionEntityView), s.ListEntities)
	api.POST("/entities", s.authorize(authorization.ObjectEntity, authorization.ActionEntityManage), s.CreateEntity)
	api.GET("/entities/:id", s.authorize(authorization.ObjectEntity, authorization.ActionEntityView), s.GetEntityByID)
	api.PATCH("/entities/:id", s.authorize(authorization.ObjectEntity, authorization.ActionEntityManage), s.UpdateEntity)

	// -------- References --------
	api.GET("/references/categories", s.authorize(authorization.ObjectReference, authorization.ActionReferenceView), s.ListCategories)
	api.POST("/references/categories", s.authorize(authorization.ObjectReference, authorization.ActionReferenceManage), s.CreateCategory)
	api.PATCH("/references/categories/:id", s.authorize(authorization.ObjectReference, authorization.ActionReferenceManage), s.UpdateCategory)
	api.GET("/references/document-types", s.authorize(authorization.ObjectReference, authorization.ActionReferenceView), s.ListDocumentTypes)
	api.POST("/references/document-types", s.authorize(authorization.ObjectReference, authorization.ActionReferenceManage), s.CreateDocumentType)
	api.PATCH("/references/document-types/:id", s.authorize(authorization.ObjectReference, authorization.ActionReferenceManage), s.UpdateDocumentType)

	// -------- Users --------
	api.GET("/users", s.authorize(authorization.ObjectUser, authorization.ActionUserView), s.ListUsers)
	api.POST("/users", s.authorize(authorization.ObjectUser, authorization.ActionUserManage), s.CreateUser)
	api.GET("/users/:id", s.authorize(authorization.ObjectUser, authorization.ActionUserView), s.GetUserByID)
	api.POST("/users/:id/activate", s.authorize(authorization.ObjectUser, authorization.ActionUserManage), s.ActivateUser)
	api.POST("/users/:id/deactivate", s.authorize(authorization.ObjectUser, authorization.ActionUserManage), s.DeactivateUser)
}

func (s *Server) registerPublicRoutes() {
	// Signed download links carry their own authentication.
	s.engine.GET("/files/:key", s.DownloadFile)
}
