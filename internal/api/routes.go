package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aksjevakt/backend/internal/config"
	"github.com/aksjevakt/backend/internal/marketdata"
	"github.com/aksjevakt/backend/internal/middleware"
	"github.com/aksjevakt/backend/internal/service"
	"github.com/aksjevakt/backend/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func SetupRoutes(
	r *gin.Engine,
	cfg *config.Config,
	rootCtx context.Context,
	userService service.UserService,
	alertService service.AlertService,
	settingsService service.SettingsService,
	watchlistService service.WatchlistService,
	logService service.LogService,
	monitor *service.MonitorService,
	quotes marketdata.QuoteClient,
	wsHandler *ws.WebSocketHandler,
) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	alertHandler := NewPriceAlertHandler(alertService, monitor, quotes, logService, cfg)
	userHandler := NewUserHandler(userService, logService, cfg)
	settingsHandler := NewSettingsHandler(settingsService)
	watchlistHandler := NewWatchlistHandler(watchlistService)
	adminHandler := NewAdminHandler(userService, logService, monitor, cfg, rootCtx)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	wd, err := os.Getwd()
	if err == nil {
		swaggerJSONPath := filepath.Join(wd, "docs", "swagger.json")
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/docs/swagger.json")))
		r.GET("/docs/swagger.json", func(c *gin.Context) {
			c.File(swaggerJSONPath)
		})
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/users/signup", userHandler.Signup)
		v1.POST("/users/login", userHandler.Login)
		v1.POST("/admin/login", adminHandler.AdminLogin)

		user := v1.Group("/").Use(middleware.UserAuthMiddleware(cfg, userService))
		{
			user.GET("/users/me", userHandler.Me)

			user.POST("/price-alerts/create", alertHandler.CreateAlertForm)
			user.POST("/price-alerts/api/create", alertHandler.CreateAlertJSON)
			user.POST("/price-alerts/delete/:id", alertHandler.DeleteAlert)
			user.DELETE("/price-alerts/api/delete/:id", alertHandler.DeleteAlert)
			user.GET("/price-alerts/api/alerts", alertHandler.ListAlerts)
			user.GET("/price-alerts/api/status", alertHandler.MonitorStatus)
			user.GET("/price-alerts/api/quote/:symbol", alertHandler.GetQuote)

			user.GET("/notification-settings", settingsHandler.GetSettings)
			user.PUT("/notification-settings", settingsHandler.UpdateSettings)

			user.GET("/watchlist", watchlistHandler.GetWatchlist)
			user.POST("/watchlist", watchlistHandler.AddSymbol)
			user.DELETE("/watchlist/:symbol", watchlistHandler.RemoveSymbol)

			user.GET("/ws", wsHandler.HandleConnection)
		}

		admin := v1.Group("/admin").Use(middleware.AdminAuthMiddleware(cfg))
		{
			admin.GET("/users", adminHandler.GetAllUsers)
			admin.GET("/logs", adminHandler.GetAllLogs)
			admin.GET("/logs/user/:user_id", adminHandler.GetLogsByUser)
			admin.POST("/monitor/start", adminHandler.StartMonitor)
			admin.POST("/monitor/stop", adminHandler.StopMonitor)
		}
	}
}
