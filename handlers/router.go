package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ran4na/steg/config"
)

const requestIDKey = "request_id"

// RequestID tags each request with the client's X-Request-ID or a fresh
// UUID and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// NewRouter wires the API routes, CORS and request logging.
func NewRouter(conf *config.Config) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = conf.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Stego-PSNR", "X-Stego-Capacity", "X-Stego-Method", "X-Stego-Host", "X-Stego-Terminated", "X-Request-ID", "Content-Disposition"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))
	router.Use(RequestID())

	stegoHandler := NewStegoHandler(conf)

	// API Routes
	api := router.Group("/api/v1")
	{
		api.GET("/health", stegoHandler.HealthCheck)

		stego := api.Group("/stego")
		{
			stego.POST("/embed", stegoHandler.EmbedMessage)
			stego.POST("/extract", stegoHandler.ExtractMessage)
			stego.POST("/capacity", stegoHandler.Capacity)
			stego.POST("/synthesize", stegoHandler.Synthesize)
		}
	}
	return router
}
