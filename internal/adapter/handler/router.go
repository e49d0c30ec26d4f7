package handler

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the HTTP surface. CORS is wide open because the API is
// called directly from a browser client.
func NewRouter(h *HTTPHandler, am *AuthMiddleware) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type"},
	}))

	router.GET("/health", h.HealthCheck)
	router.POST("/login", h.Login)
	router.POST("/users", h.Register)
	router.GET("/users", h.ListUsers)
	router.GET("/users/:id", h.GetUser)
	router.GET("/items", h.ListItems)
	router.GET("/items/seller/:id", am.OptionalAuth(), h.ItemsBySeller)
	router.POST("/price-suggestions", h.SuggestPrice)

	protected := router.Group("/")
	protected.Use(am.RequireAuth())
	protected.GET("/me", h.GetMe)
	protected.PUT("/users/:id", h.UpdateUser)
	protected.DELETE("/users/:id", h.DeleteUser)
	protected.POST("/items", h.CreateItem)
	protected.PUT("/items/:id", h.UpdateItem)
	protected.POST("/purchases", h.Purchase)
	protected.GET("/transactions/:id", h.GetTransaction)
	protected.POST("/ratings", h.Rate)

	return router
}
