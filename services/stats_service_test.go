package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quizarena/game"
)

func durationPtr(d time.Duration) *time.Duration { return &d }

func TestStatsService_RecordGameResult(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := NewStatsService(newTestDB(t), discardLogger())

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	req.NoError(svc.RecordGameResult(ctx, "p1", "Alice", game.GameResult{
		Score: 300, CorrectAnswers: 3, TotalQuestions: 5, Rank: 1, IsWinner: true,
		FastestAnswer: durationPtr(1200 * time.Millisecond), Category: "Science", Difficulty: "easy",
	}))

	now = now.Add(time.Hour)
	req.NoError(svc.RecordGameResult(ctx, "p1", "Alice B", game.GameResult{
		Score: 100, CorrectAnswers: 1, TotalQuestions: 5, Rank: 2,
		FastestAnswer: durationPtr(800 * time.Millisecond),
	}))

	st, err := svc.GetPlayerStats(ctx, "p1")
	req.NoError(err)
	req.Equal("Alice B", st.PlayerName, "latest name wins")
	req.Equal(2, st.TotalGames)
	req.Equal(1, st.Wins)
	req.Equal(400, st.TotalScore)
	req.Equal(300, st.BestScore)
	req.Equal(200, st.AverageScore)
	req.Equal(50, st.WinRate)
	req.Equal(40, st.Accuracy)
	req.NotNil(st.FastestAnswerMs)
	req.EqualValues(800, *st.FastestAnswerMs)
	req.Equal(map[string]int{"Science": 1, game.MixedLabel: 1}, st.CategoriesPlayed)
	req.Equal(map[string]int{"easy": 1, game.MixedLabel: 1}, st.DifficultiesPlayed)

	req.Len(st.GamesHistory, 2)
	req.Equal(100, st.GamesHistory[0].Score, "newest first")
	req.Equal(300, st.GamesHistory[1].Score)
	req.NotNil(st.LastPlayed)
	req.True(st.LastPlayed.Equal(now))
}

func TestStatsService_FastestAnswerIgnoresMissing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := NewStatsService(newTestDB(t), discardLogger())

	req.NoError(svc.RecordGameResult(ctx, "p1", "Alice", game.GameResult{TotalQuestions: 3}))
	st, err := svc.GetPlayerStats(ctx, "p1")
	req.NoError(err)
	req.Nil(st.FastestAnswerMs)
	req.Equal(0, st.Accuracy)

	req.NoError(svc.RecordGameResult(ctx, "p1", "Alice", game.GameResult{
		Score: 150, CorrectAnswers: 1, TotalQuestions: 3, FastestAnswer: durationPtr(2 * time.Second),
	}))
	req.NoError(svc.RecordGameResult(ctx, "p1", "Alice", game.GameResult{TotalQuestions: 3}))
	st, err = svc.GetPlayerStats(ctx, "p1")
	req.NoError(err)
	req.EqualValues(2000, *st.FastestAnswerMs)
	req.Equal(11, st.Accuracy)
}

func TestStatsService_HistoryIsCapped(t *testing.T) {
	ctx := context.Background()
	svc := NewStatsService(newTestDB(t), discardLogger())
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := range HistoryLimit + 3 {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		require.NoError(t, svc.RecordGameResult(ctx, "p1", "Alice", game.GameResult{Score: i, TotalQuestions: 1}))
	}

	st, err := svc.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, st.GamesHistory, HistoryLimit)
	require.Equal(t, HistoryLimit+2, st.GamesHistory[0].Score)
	require.Equal(t, HistoryLimit+3, st.TotalGames)
}

func TestStatsService_UnknownPlayer(t *testing.T) {
	svc := NewStatsService(newTestDB(t), discardLogger())
	_, err := svc.GetPlayerStats(context.Background(), "nobody")
	require.True(t, IsNotFound(err))
}

func TestStatsService_TopPlayers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := NewStatsService(newTestDB(t), discardLogger())

	record := func(id, name string, score, correct int, winner bool) {
		req.NoError(svc.RecordGameResult(ctx, id, name, game.GameResult{
			Score: score, CorrectAnswers: correct, TotalQuestions: 4, IsWinner: winner,
		}))
	}
	record("p1", "Alice", 300, 3, true)
	record("p1", "Alice", 100, 1, false)
	record("p2", "Bob", 500, 4, true)
	record("p3", "Cara", 50, 2, false)

	top, err := svc.TopPlayers(ctx, "totalScore", 10)
	req.NoError(err)
	req.Len(top, 3)
	req.Equal([]string{"p2", "p1", "p3"}, []string{top[0].PlayerID, top[1].PlayerID, top[2].PlayerID})
	req.Equal("Bob", top[0].PlayerName)
	req.Empty(top[0].GamesHistory)

	top, err = svc.TopPlayers(ctx, "totalGames", 1)
	req.NoError(err)
	req.Len(top, 1)
	req.Equal("p1", top[0].PlayerID)

	top, err = svc.TopPlayers(ctx, "accuracy", 10)
	req.NoError(err)
	req.Equal("p2", top[0].PlayerID)
	req.Equal(100, top[0].Accuracy)

	top, err = svc.TopPlayers(ctx, "wins", 10)
	req.NoError(err)
	req.Equal([]string{"p1", "p2", "p3"}, []string{top[0].PlayerID, top[1].PlayerID, top[2].PlayerID}, "ties fall back to player id")

	top, err = svc.TopPlayers(ctx, "DROP TABLE players", 0)
	req.NoError(err, "unknown metrics fall back to total score")
	req.Equal("p2", top[0].PlayerID)
}
