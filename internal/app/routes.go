package app

import (
	"net/http"

	"bookshelf/internal/auth"
	"bookshelf/internal/config"
	"bookshelf/internal/handlers"
	"bookshelf/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

const apiPrefix = "/api/v1"

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, deps Deps) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	userSvc := service.NewUserService(deps.Users)

	authenticators := []auth.Authenticator{
		auth.TokenAuthenticator{Tokens: deps.Tokens, Users: userSvc},
	}
	if deps.Sessions != nil {
		authenticators = append(authenticators, auth.SessionAuthenticator{Sessions: deps.Sessions, Users: userSvc})
	}
	authenticators = append(authenticators, auth.BasicAuthenticator{Users: userSvc})

	api := r.Group(apiPrefix, auth.Authenticate(authenticators...))
	if deps.Throttle != nil {
		api.Use(deps.Throttle.Middleware())
	}

	authHandler := handlers.NewAuthHandler(deps.Tokens, deps.Sessions, userSvc)
	registerAuthRoutes(api, authHandler)

	router := handlers.NewRouter(api)
	api.GET("/", router.Root)

	books := handlers.NewViewSet(deps.Books, apiPrefix)
	bookHandler := handlers.NewBookHandler(service.NewBookService(deps.Books), books)
	router.Register(books, bookHandler.Routes)

	router.Register(handlers.NewViewSet(deps.Heroes, apiPrefix))

	users := handlers.NewViewSet(deps.Users, apiPrefix)
	userHandler := handlers.NewUserHandler(userSvc, users)
	router.Register(users, userHandler.Routes)

	router.Register(handlers.NewViewSet(deps.Posts, apiPrefix))
	router.Register(handlers.NewViewSet(deps.Tags, apiPrefix))
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Bookshelf API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"openapi": "/swagger-doc.json",
			"health":  "/health",
			"api":     apiPrefix + "/",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", auth.RequireActor(`Bearer realm="api"`), h.Me)
}
