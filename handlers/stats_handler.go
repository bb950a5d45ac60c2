package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizarena/services"
)

type StatsHandler struct {
	stats services.StatsReader
}

// NewStatsHandler serves player statistics. A nil reader answers 503.
func NewStatsHandler(stats services.StatsReader) *StatsHandler {
	return &StatsHandler{stats: stats}
}

type leaderboardQuery struct {
	Metric string `form:"metric" binding:"omitempty,oneof=totalScore wins winRate accuracy bestScore totalGames"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (h *StatsHandler) GetPlayerStats(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stats are disabled"})
		return
	}

	stats, err := h.stats.GetPlayerStats(c.Request.Context(), c.Param("playerId"))
	if services.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetLeaderboard(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stats are disabled"})
		return
	}

	var q leaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Metric == "" {
		q.Metric = "totalScore"
	}
	if q.Limit == 0 {
		q.Limit = 10
	}

	top, err := h.stats.TopPlayers(c.Request.Context(), q.Metric, q.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"metric": q.Metric, "leaderboard": top})
}
