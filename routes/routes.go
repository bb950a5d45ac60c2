package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizarena/handlers"
	"quizarena/middleware"
	"quizarena/services"
)

func SetupRoutes(
	router *gin.Engine,
	gameHandler *handlers.GameHandler,
	statsHandler *handlers.StatsHandler,
	questionHandler *handlers.QuestionHandler,
	hub *services.Hub,
	adminToken string,
) {
	// API routes
	api := router.Group("/api")
	{
		games := api.Group("/games")
		{
			games.GET("", gameHandler.ListGames)
			games.GET("/:code", gameHandler.GetGame)
			games.GET("/:code/leaderboard", gameHandler.GetLeaderboard)
			games.GET("/:code/qr", gameHandler.QRCode)
		}

		api.GET("/stats/:playerId", statsHandler.GetPlayerStats)
		api.GET("/leaderboard", statsHandler.GetLeaderboard)
		api.GET("/categories", questionHandler.GetCategories)

		// Question bank edits
		if adminToken != "" {
			questions := api.Group("/questions")
			questions.Use(middleware.AdminToken(adminToken))
			{
				questions.POST("", questionHandler.CreateQuestion)
				questions.DELETE("/:id", questionHandler.DeleteQuestion)
			}
		}
	}

	// WebSocket endpoint for real-time game communication
	router.GET("/ws", func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": hub.Len()})
	})
}
