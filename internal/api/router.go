package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/amato-app/accounts/internal/app"
	iauth "github.com/amato-app/accounts/internal/auth"
	"github.com/amato-app/accounts/internal/handlers"
	"github.com/amato-app/accounts/internal/middleware"
	"github.com/amato-app/accounts/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers the account routes.
func NewRouter(db *gorm.DB, tokens *iauth.TokenService, accounts *services.AccountService, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service must be provided")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	// Public endpoints
	r.GET("/health", handlers.Health(db))
	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(cfg.Monitoring.Prometheus.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	accountHandler := handlers.NewAccountHandler(accounts)

	api := r.Group("/api")
	{
		api.POST("/accounts/register", accountHandler.Register)
		api.POST("/accounts/activate", accountHandler.Activate)
		api.POST("/auth/login", accountHandler.Login)

		// Deliberately unauthenticated full read, mirroring the upstream contract.
		api.GET("/users", accountHandler.List)

		api.GET("/auth/me", middleware.Auth(tokens), accountHandler.Me)
	}

	return r, nil
}
