package http

import (
	"github.com/gin-gonic/gin"

	"knowledge-governance/internal/bootstrap"
	"knowledge-governance/internal/model"
	"knowledge-governance/internal/transport/http/handler"
	"knowledge-governance/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(app.Logger), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	authHandler := handler.NewAuthHandler(app.Auth)
	documentHandler := handler.NewDocumentHandler(app.Lifecycle)
	answerHandler := handler.NewGoldenAnswerHandler(app.GoldenAnswers)
	approvalHandler := handler.NewApprovalHandler(app.Approvals)
	sessionHandler := handler.NewSessionHandler(app.Keepalive, app.Notebooks)
	taxonomyHandler := handler.NewTaxonomyHandler(app.Taxonomy)

	authRequired := middleware.AuthJWT(app.Config.Auth.JWTSecret)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authRequired, authHandler.Me)

	v1.PUT("/users/:id/role", authRequired, adminOnly, authHandler.AssignRole)

	v1.GET("/taxonomy", taxonomyHandler.Get)
	v1.GET("/taxonomy/:department/folders", taxonomyHandler.Folders)

	docs := v1.Group("/documents", authRequired)
	docs.POST("", documentHandler.Register)
	docs.GET("/citable", documentHandler.ListCitable)
	docs.GET("/:id", documentHandler.Get)
	docs.GET("/:id/versions", documentHandler.ListVersions)
	docs.POST("/:id/versions", documentHandler.CreateVersion)
	docs.PATCH("/:id/metadata", documentHandler.UpdateMetadata)
	docs.POST("/:id/validate", documentHandler.Validate)
	docs.POST("/:id/pii", documentHandler.CheckPII)
	docs.GET("/:id/pii", documentHandler.ListPIIChecks)
	docs.POST("/:id/activate", documentHandler.Activate)
	docs.POST("/:id/reject", documentHandler.Reject)
	docs.POST("/:id/deprecate", documentHandler.Deprecate)
	docs.POST("/:id/archive", documentHandler.Archive)

	answers := v1.Group("/golden-answers", authRequired)
	answers.POST("", answerHandler.Propose)
	answers.GET("/due", answerHandler.DueForReview)
	answers.GET("/coverage", answerHandler.Coverage)
	answers.GET("/:id", answerHandler.Get)
	answers.POST("/:id/approve", answerHandler.Approve)
	answers.POST("/:id/reject", answerHandler.Reject)
	answers.POST("/:id/review", answerHandler.Review)

	approvals := v1.Group("/approvals", authRequired)
	approvals.GET("/pending", approvalHandler.Pending)
	approvals.GET("/history", approvalHandler.History)
	approvals.GET("/mine", approvalHandler.Mine)

	session := v1.Group("/session", authRequired)
	session.GET("/status", sessionHandler.Status)
	session.PUT("", adminOnly, sessionHandler.Reauthenticate)
	v1.GET("/notebooks", authRequired, sessionHandler.ListNotebooks)

	return router
}
