package services

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"quizarena/game"
)

func TestQuestionService_Seed(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := NewQuestionService(newTestDB(t), discardLogger())

	req.NoError(svc.Seed(ctx))
	n, err := svc.Count(ctx)
	req.NoError(err)
	req.EqualValues(len(seedQuestions), n)

	req.NoError(svc.Seed(ctx), "seeding twice is a no-op")
	n, err = svc.Count(ctx)
	req.NoError(err)
	req.EqualValues(len(seedQuestions), n)

	cats, err := svc.Categories(ctx)
	req.NoError(err)
	req.Equal([]string{"Geography", "History", "Science", "Sports", "Technology"}, cats)

	diffs, err := svc.Difficulties(ctx)
	req.NoError(err)
	req.Equal([]string{"easy", "hard", "medium"}, diffs)
}

func TestQuestionService_GetQuestions(t *testing.T) {
	ctx := context.Background()
	svc := NewQuestionService(newTestDB(t), discardLogger())
	require.NoError(t, svc.Seed(ctx))

	t.Run("filters and keeps options in order", func(t *testing.T) {
		req := require.New(t)
		qs, err := svc.GetQuestions(ctx, 10, "", "Science")
		req.NoError(err)
		req.Len(qs, 5)

		seen := map[uint]bool{}
		for _, q := range qs {
			req.True(q.Valid(), "question %d", q.ID)
			req.Equal("Science", q.Category)
			req.False(seen[q.ID], "questions must not repeat")
			seen[q.ID] = true
			if q.Prompt == "What is the chemical symbol for gold?" {
				req.Equal([]string{"Au", "Ag", "Fe", "Cu"}, q.Options)
				req.Equal(0, q.CorrectAnswer)
				req.Equal(100, q.Points)
			}
		}
	})

	t.Run("difficulty and category combine", func(t *testing.T) {
		req := require.New(t)
		qs, err := svc.GetQuestions(ctx, 10, "hard", "Sports")
		req.NoError(err)
		req.Len(qs, 1)
		req.Equal("What is the diameter of a basketball hoop in inches?", qs[0].Prompt)
		req.Equal(1, qs[0].CorrectAnswer)
	})

	t.Run("count limits the batch", func(t *testing.T) {
		qs, err := svc.GetQuestions(ctx, 3, "", "")
		require.NoError(t, err)
		require.Len(t, qs, 3)
	})

	t.Run("no match", func(t *testing.T) {
		qs, err := svc.GetQuestions(ctx, 3, "easy", "Astrology")
		require.NoError(t, err)
		require.Empty(t, qs)
	})
}

func TestQuestionService_CreateAndDelete(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := NewQuestionService(newTestDB(t), discardLogger())

	_, err := svc.CreateQuestion(ctx, &CreateQuestionRequest{
		Text: "Two right answers?", Category: "Trivia", Difficulty: "easy", Points: 100,
		Options: []CreateOptionRequest{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}, {Text: "c"}, {Text: "d"}},
	})
	req.Error(err)

	_, err = svc.CreateQuestion(ctx, &CreateQuestionRequest{
		Text: "Too few", Category: "Trivia", Difficulty: "easy", Points: 100,
		Options: []CreateOptionRequest{{Text: "a", IsCorrect: true}, {Text: "b"}},
	})
	req.Error(err)

	created, err := svc.CreateQuestion(ctx, &CreateQuestionRequest{
		Text: "Largest planet?", Category: "Science", Difficulty: "easy", Points: 150,
		Options: []CreateOptionRequest{{Text: "Mars"}, {Text: "Earth"}, {Text: "Jupiter", IsCorrect: true}, {Text: "Venus"}},
	})
	req.NoError(err)

	drawn, err := svc.GetQuestions(ctx, 100, "easy", "Science")
	req.NoError(err)
	q, ok := lo.Find(drawn, func(q game.Question) bool { return q.ID == created.ID })
	req.True(ok)
	req.Equal([]string{"Mars", "Earth", "Jupiter", "Venus"}, q.Options)
	req.Equal(2, q.CorrectAnswer)
	req.Equal(150, q.Points)

	req.NoError(svc.DeleteQuestion(ctx, created.ID))
	drawn, err = svc.GetQuestions(ctx, 100, "easy", "Science")
	req.NoError(err)
	req.False(lo.ContainsBy(drawn, func(q game.Question) bool { return q.ID == created.ID }))
	req.True(IsNotFound(svc.DeleteQuestion(ctx, created.ID)))
}

func TestQuestionService_CalculatePoints(t *testing.T) {
	svc := NewQuestionService(nil, nil)
	require.Equal(t, 150, svc.CalculatePoints(100, 0, 15*time.Second))
	require.Equal(t, game.CalculatePoints(300, 4*time.Second, 15*time.Second), svc.CalculatePoints(300, 4*time.Second, 15*time.Second))
}
