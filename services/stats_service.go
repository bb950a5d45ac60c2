package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quizarena/game"
	"quizarena/models"
)

// HistoryLimit is how many recent games GetPlayerStats returns.
const HistoryLimit = 10

// StatsService aggregates finished-game results per player.
type StatsService struct {
	db  *gorm.DB
	log *slog.Logger
	now func() time.Time
}

func NewStatsService(db *gorm.DB, log *slog.Logger) *StatsService {
	if log == nil {
		log = slog.Default()
	}
	return &StatsService{db: db, log: log, now: time.Now}
}

var _ game.StatsSink = (*StatsService)(nil)

type PlayerStatsView struct {
	PlayerID            string               `json:"playerId"`
	PlayerName          string               `json:"playerName"`
	TotalGames          int                  `json:"totalGames"`
	Wins                int                  `json:"wins"`
	TotalScore          int                  `json:"totalScore"`
	TotalCorrectAnswers int                  `json:"totalCorrectAnswers"`
	TotalQuestions      int                  `json:"totalQuestions"`
	BestScore           int                  `json:"bestScore"`
	AverageScore        int                  `json:"averageScore"`
	WinRate             int                  `json:"winRate"`
	Accuracy            int                  `json:"accuracy"`
	FastestAnswerMs     *int64               `json:"fastestAnswer"`
	CategoriesPlayed    map[string]int       `json:"categoriesPlayed"`
	DifficultiesPlayed  map[string]int       `json:"difficultiesPlayed"`
	GamesHistory        []models.GameHistory `json:"gamesHistory"`
	LastPlayed          *time.Time           `json:"lastPlayed"`
	CreatedAt           time.Time            `json:"createdAt"`
}

var metricColumns = map[string]string{
	"totalScore": "total_score",
	"wins":       "wins",
	"winRate":    "win_rate",
	"accuracy":   "accuracy",
	"bestScore":  "best_score",
	"totalGames": "total_games",
}

// RecordGameResult folds one finished game into the player's aggregates and history.
func (s *StatsService) RecordGameResult(ctx context.Context, playerID, playerName string, result game.GameResult) error {
	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		player := models.Player{ID: playerID, Name: playerName, LastPlayed: &now}
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "last_played", "updated_at"}),
		}).Create(&player).Error; err != nil {
			return err
		}

		stats := models.PlayerStats{PlayerID: playerID}
		if err := tx.FirstOrCreate(&stats, models.PlayerStats{PlayerID: playerID}).Error; err != nil {
			return err
		}

		stats.TotalGames++
		if result.IsWinner {
			stats.Wins++
		}
		stats.TotalScore += result.Score
		stats.TotalCorrectAnswers += result.CorrectAnswers
		stats.TotalQuestions += result.TotalQuestions
		stats.BestScore = max(stats.BestScore, result.Score)
		stats.AverageScore = percentRound(stats.TotalScore, stats.TotalGames, 1)
		stats.WinRate = percentRound(stats.Wins, stats.TotalGames, 100)
		stats.Accuracy = percentRound(stats.TotalCorrectAnswers, stats.TotalQuestions, 100)

		if result.FastestAnswer != nil {
			ms := result.FastestAnswer.Milliseconds()
			if stats.FastestAnswerMs == nil || ms < *stats.FastestAnswerMs {
				stats.FastestAnswerMs = &ms
			}
		}

		stats.CategoriesPlayed = bump(stats.CategoriesPlayed, result.Category)
		stats.DifficultiesPlayed = bump(stats.DifficultiesPlayed, result.Difficulty)

		if err := tx.Save(&stats).Error; err != nil {
			return err
		}

		return tx.Create(&models.GameHistory{
			PlayerID:       playerID,
			Score:          result.Score,
			Rank:           result.Rank,
			CorrectAnswers: result.CorrectAnswers,
			TotalQuestions: result.TotalQuestions,
			Category:       result.Category,
			Difficulty:     result.Difficulty,
			PlayedAt:       now,
		}).Error
	})
	if err != nil {
		s.log.Error("failed to update game stats", "error", err, "player", playerID)
		return err
	}
	s.log.Debug("stats updated", "player", playerID, "score", result.Score, "rank", result.Rank)
	return nil
}

// GetPlayerStats returns the aggregates and recent history for one player.
// Unknown players get gorm.ErrRecordNotFound.
func (s *StatsService) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStatsView, error) {
	var player models.Player
	err := s.db.WithContext(ctx).
		Preload("Stats").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("played_at DESC").Order("id DESC").Limit(HistoryLimit)
		}).
		First(&player, "id = ?", playerID).Error
	if err != nil {
		return nil, err
	}
	view := toStatsView(player.Stats, player.Name)
	view.GamesHistory = player.History
	view.LastPlayed = player.LastPlayed
	view.CreatedAt = player.CreatedAt
	return &view, nil
}

// TopPlayers ranks players who finished at least one game by metric. Unknown
// metrics fall back to totalScore.
func (s *StatsService) TopPlayers(ctx context.Context, metric string, limit int) ([]PlayerStatsView, error) {
	column, ok := metricColumns[metric]
	if !ok {
		column = metricColumns["totalScore"]
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var rows []struct {
		models.PlayerStats
		PlayerName string
	}
	err := s.db.WithContext(ctx).
		Table("player_stats").
		Select("player_stats.*, players.name AS player_name").
		Joins("JOIN players ON players.id = player_stats.player_id").
		Where("player_stats.total_games > 0").
		Order(clause.OrderByColumn{Column: clause.Column{Table: "player_stats", Name: column}, Desc: true}).
		Order("player_stats.player_id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]PlayerStatsView, 0, len(rows))
	for _, row := range rows {
		v := toStatsView(row.PlayerStats, row.PlayerName)
		v.GamesHistory = []models.GameHistory{}
		out = append(out, v)
	}
	return out, nil
}

func toStatsView(st models.PlayerStats, name string) PlayerStatsView {
	v := PlayerStatsView{
		PlayerID:            st.PlayerID,
		PlayerName:          name,
		TotalGames:          st.TotalGames,
		Wins:                st.Wins,
		TotalScore:          st.TotalScore,
		TotalCorrectAnswers: st.TotalCorrectAnswers,
		TotalQuestions:      st.TotalQuestions,
		BestScore:           st.BestScore,
		AverageScore:        st.AverageScore,
		WinRate:             st.WinRate,
		Accuracy:            st.Accuracy,
		FastestAnswerMs:     st.FastestAnswerMs,
		CategoriesPlayed:    st.CategoriesPlayed,
		DifficultiesPlayed:  st.DifficultiesPlayed,
	}
	if v.CategoriesPlayed == nil {
		v.CategoriesPlayed = map[string]int{}
	}
	if v.DifficultiesPlayed == nil {
		v.DifficultiesPlayed = map[string]int{}
	}
	return v
}

func percentRound(n, d, scale int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(float64(n) * float64(scale) / float64(d)))
}

func bump(m map[string]int, key string) map[string]int {
	if m == nil {
		m = map[string]int{}
	}
	if key == "" {
		key = game.MixedLabel
	}
	m[key]++
	return m
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
