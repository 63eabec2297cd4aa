package server

import (
	"github.com/almasbek/mediaportal/internal/auth"
	"github.com/almasbek/mediaportal/internal/config"
	"github.com/almasbek/mediaportal/internal/file"
	"github.com/almasbek/mediaportal/internal/metrics"
	"github.com/almasbek/mediaportal/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config      config.Config
	DB          *pgxpool.Pool
	ObjectStore *minio.Client
	AuthService *auth.Service
	UserService *user.Service
	FileService *file.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService)

		protected := api.Group("/")
		protected.Use(auth.AuthMiddleware(deps.AuthService))

		auth.RegisterProtectedRoutes(protected, deps.AuthService)

		if deps.UserService != nil {
			user.RegisterRoutes(protected, deps.UserService)
		}
		if deps.FileService != nil {
			file.RegisterRoutes(protected, deps.FileService)
		}
	}

	return router
}
