package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-shop-api/internal/api/middleware"
	"go-shop-api/internal/api/routes"
	"go-shop-api/internal/app"
	"go-shop-api/internal/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	router *gin.Engine
	app    *app.Application
	http   *http.Server
}

func NewServer(app *app.Application) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger())

	// --- Configure and Apply CORS Middleware ---
	logger.Get().Infof("Configuring CORS for origins: %v", app.Config.CORS.AllowedOrigins)
	corsConfig := cors.Config{
		AllowOriginFunc: func(origin string) bool {
			for _, allowed := range app.Config.CORS.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))
	// --- End CORS Configuration ---

	_ = router.SetTrustedProxies(nil)

	routes.RegisterRoutes(router, app)

	return &Server{
		router: router,
		app:    app,
		http: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", app.Config.Server.Host, app.Config.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logger.Get().Infof("Server starting on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
