package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NewRouter binds every HTTP route to its handler. Sessions nest the whole
// trading surface: orders, market data, portfolios and market control.
func NewRouter(handlers *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	router.GET("/", handlers.Index)

	router.GET("/securities", handlers.ListSecurities)
	router.PUT("/securities/:securityID/tradable", handlers.SetSecurityTradable)

	router.GET("/sessions", handlers.ListSessions)
	router.DELETE("/sessions/:sessionID", handlers.DisposeSession)

	router.POST("/sessions/:sessionID/orders", handlers.SubmitOrder)
	router.GET("/sessions/:sessionID/orders/:orderID", handlers.GetOrder)
	router.DELETE("/sessions/:sessionID/orders/:orderID", handlers.CancelOrder)

	router.GET("/sessions/:sessionID/markets/:securityID", handlers.GetMarketData)

	router.GET("/sessions/:sessionID/portfolios", handlers.ListPortfolios)
	router.GET("/sessions/:sessionID/portfolios/:party", handlers.GetPortfolio)

	router.GET("/sessions/:sessionID/status", handlers.GetMarketStatus)
	router.POST("/sessions/:sessionID/status", handlers.ChangeMarketStatus)

	return router
}

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-Id", uuid.NewString())
		c.Next()
	}
}
