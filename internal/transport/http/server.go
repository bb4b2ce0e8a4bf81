package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "github.com/debarghya18/local-RAG/internal/app"
	"github.com/debarghya18/local-RAG/internal/bootstrap"
	"github.com/debarghya18/local-RAG/internal/repository"
	"github.com/debarghya18/local-RAG/internal/transport/http/handler"
	"github.com/debarghya18/local-RAG/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(app.RAG)
	sessionHandler := handler.NewSessionHandler(app.RAG)
	configHandler := handler.NewConfigHandler(app.RAG)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	ragGroup := v1.Group("/rag")
	ragGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	ragGroup.POST("/documents", documentHandler.UploadPDF)
	ragGroup.POST("/documents/text", documentHandler.IngestText)
	ragGroup.GET("/documents", documentHandler.ListDocuments)
	ragGroup.GET("/documents/:id", documentHandler.GetDocument)
	ragGroup.DELETE("/documents/:id", documentHandler.DeleteDocument)

	ragGroup.POST("/sessions", sessionHandler.CreateSession)
	ragGroup.GET("/sessions", sessionHandler.ListSessions)
	ragGroup.DELETE("/sessions/:id", sessionHandler.DeleteSession)
	ragGroup.POST("/sessions/:id/query", sessionHandler.Query)
	ragGroup.GET("/sessions/:id/history", sessionHandler.History)

	ragGroup.GET("/status", configHandler.ProviderStatus)
	ragGroup.GET("/config", configHandler.GetConfig)
	ragGroup.PATCH("/config", configHandler.UpdateConfig)

	return router
}
