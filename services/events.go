package services

import (
	"encoding/json"
	"regexp"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"quizarena/game"
)

// Inbound event types.
const (
	EventCreateGame           = "createGame"
	EventJoinGame             = "joinGame"
	EventSpectateGame         = "spectateGame"
	EventStartGame            = "startGame"
	EventSubmitAnswer         = "submitAnswer"
	EventChatMessage          = "chatMessage"
	EventGetStats             = "getStats"
	EventGetLeaderboard       = "getLeaderboard"
	EventGetGlobalLeaderboard = "getGlobalLeaderboard"
	EventGetGames             = "getGames"
	EventReconnect            = "reconnect"
	EventPing                 = "ping"
)

// Outbound event types.
const (
	EventGameCreated       = "gameCreated"
	EventGameJoined        = "gameJoined"
	EventJoinError         = "joinError"
	EventSpectatorJoined   = "spectatorJoined"
	EventPlayerJoined      = "playerJoined"
	EventPlayerLeft        = "playerLeft"
	EventPlayerReconnected = "playerReconnected"
	EventReconnected       = "reconnected"
	EventGameStarted       = "gameStarted"
	EventNewQuestion       = "newQuestion"
	EventAnswerResult      = "answerResult"
	EventQuestionEnded     = "questionEnded"
	EventLeaderboardUpdate = "leaderboardUpdate"
	EventGameEnded         = "gameEnded"
	EventGameClosed        = "gameClosed"
	EventPlayerStats       = "playerStats"
	EventGlobalLeaderboard = "globalLeaderboard"
	EventGamesList         = "gamesList"
	EventRateLimited       = "rateLimitExceeded"
	EventError             = "error"
	EventPong              = "pong"
)

// Avatars is the fixed set of avatars a player may pick.
var Avatars = []string{
	"👤", "👨", "👩", "👦", "👧", "👨‍💻", "👩‍💻", "🧑‍🎓", "👨‍🎓", "👩‍🎓", "🧑‍🏫", "👨‍🏫",
	"👩‍🏫", "🦸", "🦹", "🧙", "🧚", "🧛", "🦊", "🐼", "🐨", "🦁", "🐯", "🐸",
}

// Envelope is the frame exchanged in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message is an outbound frame before encoding.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type SettingsPayload struct {
	MaxPlayers       int    `json:"maxPlayers" validate:"omitempty,min=2,max=50"`
	QuestionCount    int    `json:"questionCount" validate:"omitempty,min=1,max=50"`
	QuestionDuration int    `json:"questionDuration" validate:"omitempty,min=5000,max=60000"`
	Category         string `json:"category" validate:"omitempty,max=40"`
	Difficulty       string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

func (s SettingsPayload) toSettings() game.Settings {
	return game.Settings{
		MaxPlayers:       s.MaxPlayers,
		QuestionCount:    s.QuestionCount,
		QuestionDuration: time.Duration(s.QuestionDuration) * time.Millisecond,
		Category:         s.Category,
		Difficulty:       s.Difficulty,
	}
}

type CreateGamePayload struct {
	PlayerName string          `json:"playerName" validate:"required,min=1,max=20"`
	Avatar     string          `json:"avatar" validate:"required,avatar"`
	Settings   SettingsPayload `json:"settings"`
}

type JoinGamePayload struct {
	GameID     string `json:"gameId" validate:"required,len=6,alphanum"`
	PlayerName string `json:"playerName" validate:"required,min=1,max=20"`
	Avatar     string `json:"avatar" validate:"required,avatar"`
}

type GamePayload struct {
	GameID string `json:"gameId" validate:"required,len=6,alphanum"`
}

type SubmitAnswerPayload struct {
	GameID      string `json:"gameId" validate:"required,len=6,alphanum"`
	AnswerIndex *int   `json:"answerIndex" validate:"required,min=0,max=3"`
	AnswerTime  *int64 `json:"answerTime" validate:"required,min=0"`
}

type ChatPayload struct {
	GameID  string `json:"gameId" validate:"required,len=6,alphanum"`
	Message string `json:"message" validate:"required,min=1,max=200"`
}

type StatsPayload struct {
	PlayerID string `json:"playerId" validate:"omitempty,max=64"`
}

type GlobalLeaderboardQuery struct {
	Metric string `json:"metric" validate:"omitempty,oneof=totalScore wins winRate accuracy bestScore totalGames"`
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

type ReconnectPayload struct {
	GameID string `json:"gameId" validate:"required,len=6,alphanum"`
	Token  string `json:"token" validate:"required"`
}

// Outbound payloads.

type SeatPayload struct {
	GameID   string    `json:"gameId"`
	PlayerID string    `json:"playerId"`
	Token    string    `json:"token"`
	GameInfo game.Info `json:"gameInfo"`
}

type PlayerJoinedPayload struct {
	Player  game.PlayerView   `json:"player"`
	Players []game.PlayerView `json:"players"`
}

type PresencePayload struct {
	PlayerID   string            `json:"playerId"`
	PlayerName string            `json:"playerName"`
	Players    []game.PlayerView `json:"players"`
}

type ReconnectedPayload struct {
	GameID   string             `json:"gameId"`
	PlayerID string             `json:"playerId"`
	GameInfo game.Info          `json:"gameInfo"`
	Question *game.QuestionView `json:"currentQuestion,omitempty"`
	Answered bool               `json:"answered"`
	Chat     []game.ChatMessage `json:"chat"`
}

type SpectatorPayload struct {
	GameState game.Info `json:"gameState"`
}

type GameStartedPayload struct {
	TotalQuestions int   `json:"totalQuestions"`
	StartDelayMs   int64 `json:"startDelay"`
}

type AnswerResultPayload struct {
	IsCorrect     bool `json:"isCorrect"`
	PointsEarned  int  `json:"pointsEarned"`
	CorrectAnswer int  `json:"correctAnswer"`
	Score         int  `json:"score"`
}

type QuestionEndedPayload struct {
	QuestionNumber int `json:"questionNumber"`
	CorrectAnswer  int `json:"correctAnswer"`
}

type LeaderboardPayload struct {
	Leaderboard []game.Standing `json:"leaderboard"`
}

type GameEndedPayload struct {
	Leaderboard    []game.Standing `json:"leaderboard"`
	TotalQuestions int             `json:"totalQuestions"`
	Winner         *game.Standing  `json:"winner"`
}

type GameClosedPayload struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

type PlayerStatsPayload struct {
	Stats *PlayerStatsView `json:"stats"`
}

type GlobalLeaderboardPayload struct {
	Metric      string            `json:"metric"`
	Leaderboard []PlayerStatsView `json:"leaderboard"`
}

type GamesListPayload struct {
	Games []game.Info `json:"games"`
}

type RateLimitedPayload struct {
	Message      string `json:"message"`
	RetryAfterMs int64  `json:"retryAfter"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type JoinErrorPayload struct {
	Error string `json:"error"`
}

// NewValidator returns a validator that also knows the avatar rule.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("avatar", func(fl validator.FieldLevel) bool {
		return slices.Contains(Avatars, fl.Field().String())
	})
	return v
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// SanitizeMessage strips HTML tags from chat text.
func SanitizeMessage(s string) string {
	return htmlTag.ReplaceAllString(s, "")
}
