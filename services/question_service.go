package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"quizarena/game"
	"quizarena/models"
)

// QuestionService is the database-backed game.QuestionSource.
type QuestionService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewQuestionService(db *gorm.DB, log *slog.Logger) *QuestionService {
	if log == nil {
		log = slog.Default()
	}
	return &QuestionService{db: db, log: log}
}

var _ game.QuestionSource = (*QuestionService)(nil)

type CreateQuestionRequest struct {
	Text       string                `json:"question" binding:"required"`
	Category   string                `json:"category" binding:"required"`
	Difficulty string                `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Points     int                   `json:"points" binding:"required,min=1"`
	Options    []CreateOptionRequest `json:"options" binding:"required,len=4"`
}

type CreateOptionRequest struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

func (s *QuestionService) GetQuestions(ctx context.Context, count int, difficulty, category string) ([]game.Question, error) {
	if count <= 0 {
		return nil, nil
	}

	q := s.db.WithContext(ctx).Model(&models.Question{})
	if difficulty != "" {
		q = q.Where("difficulty = ?", difficulty)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var rows []models.Question
	err := q.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("options.\"order\"")
	}).
		Order("RANDOM()").
		Limit(count).
		Find(&rows).Error
	if err != nil {
		s.log.Error("failed to get questions", "error", err, "difficulty", difficulty, "category", category, "count", count)
		return nil, err
	}

	out := make([]game.Question, 0, len(rows))
	for _, row := range rows {
		out = append(out, toGameQuestion(row))
	}
	return out, nil
}

func (s *QuestionService) CalculatePoints(basePoints int, elapsed, duration time.Duration) int {
	return game.CalculatePoints(basePoints, elapsed, duration)
}

func (s *QuestionService) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).Model(&models.Question{}).
		Distinct("category").Order("category").Pluck("category", &out).Error
	return out, err
}

func (s *QuestionService) Difficulties(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).Model(&models.Question{}).
		Distinct("difficulty").Order("difficulty").Pluck("difficulty", &out).Error
	return out, err
}

func (s *QuestionService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Question{}).Count(&n).Error
	return n, err
}

func (s *QuestionService) CreateQuestion(ctx context.Context, req *CreateQuestionRequest) (*models.Question, error) {
	if len(req.Options) != game.OptionCount {
		return nil, fmt.Errorf("a question needs exactly %d options", game.OptionCount)
	}
	correctCount := 0
	for _, opt := range req.Options {
		if opt.IsCorrect {
			correctCount++
		}
	}
	if correctCount != 1 {
		return nil, errors.New("each question must have exactly one correct answer")
	}

	question := models.Question{
		Text:       req.Text,
		Category:   req.Category,
		Difficulty: req.Difficulty,
		Points:     req.Points,
	}
	for i, opt := range req.Options {
		question.Options = append(question.Options, models.Option{
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
			Order:     i,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&question).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("question added", "id", question.ID, "category", question.Category)
	return &question, nil
}

func (s *QuestionService) DeleteQuestion(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Select("Options").Delete(&models.Question{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Seed inserts the built-in bank when no questions exist yet.
func (s *QuestionService) Seed(ctx context.Context) error {
	n, err := s.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("questions already seeded, skipping", "count", n)
		return nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sq := range seedQuestions {
			q := models.Question{
				Text:       sq.text,
				Category:   sq.category,
				Difficulty: sq.difficulty,
				Points:     sq.points,
			}
			for i, text := range sq.options {
				q.Options = append(q.Options, models.Option{Text: text, IsCorrect: i == sq.correct, Order: i})
			}
			if err := tx.Create(&q).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	s.log.Info("seeded question bank", "count", len(seedQuestions))
	return nil
}

func toGameQuestion(row models.Question) game.Question {
	q := game.Question{
		ID:            row.ID,
		Prompt:        row.Text,
		Options:       make([]string, 0, len(row.Options)),
		CorrectAnswer: -1,
		Category:      row.Category,
		Difficulty:    row.Difficulty,
		Points:        row.Points,
	}
	for i, opt := range row.Options {
		q.Options = append(q.Options, opt.Text)
		if opt.IsCorrect {
			q.CorrectAnswer = i
		}
	}
	return q
}
