package game

import (
	"cmp"
	"slices"
	"time"
)

// Standing is one leaderboard row.
type Standing struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Avatar         string `json:"avatar"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
	TotalAnswers   int    `json:"totalAnswers"`
	Connected      bool   `json:"connected"`
}

// Results is the final snapshot of a finished room. It is computed once.
type Results struct {
	Leaderboard    []Standing `json:"leaderboard"`
	Winner         *Standing  `json:"winner"`
	TotalQuestions int        `json:"totalQuestions"`
	FinishedAt     time.Time  `json:"finishedAt"`
}

// rank orders players by score, then fewer answers, then join order.
// players must already be in join order.
func rank(players []*Player) []Standing {
	out := make([]Standing, 0, len(players))
	for _, p := range players {
		out = append(out, Standing{
			ID:             p.ID,
			Name:           p.Name,
			Avatar:         p.Avatar,
			Score:          p.Score,
			CorrectAnswers: p.correctAnswers(),
			TotalAnswers:   len(p.Answers),
			Connected:      p.Connected,
		})
	}
	slices.SortStableFunc(out, func(a, b Standing) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.TotalAnswers, b.TotalAnswers)
	})
	return out
}
