package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"quizarena/game"
)

// Sender delivers outbound messages to connections.
type Sender interface {
	Send(conn string, msg Message)
}

// StatsReader serves the read side of player statistics.
type StatsReader interface {
	GetPlayerStats(ctx context.Context, playerID string) (*PlayerStatsView, error)
	TopPlayers(ctx context.Context, metric string, limit int) ([]PlayerStatsView, error)
}

type DispatcherOptions struct {
	Game      game.Options
	Sender    Sender
	Tokens    *TokenService
	Stats     StatsReader // nil disables getStats and getGlobalLeaderboard
	Snapshots SnapshotStore
	Limits    RateLimits
	Logger    *slog.Logger

	// RequestTimeout bounds the database reads behind stats events.
	RequestTimeout time.Duration
}

// Dispatcher routes inbound events to the registry and fans results out to
// the affected connections. It keeps no game state of its own.
type Dispatcher struct {
	registry  *game.Registry
	sender    Sender
	tokens    *TokenService
	stats     StatsReader
	snapshots *snapshotQueue
	limiter   *RateLimiter
	validate  *validator.Validate
	log       *slog.Logger
	timeout   time.Duration

	handlers map[string]func(ctx context.Context, conn string, raw json.RawMessage) error
}

func NewDispatcher(o DispatcherOptions) (*Dispatcher, error) {
	if o.Sender == nil {
		return nil, errors.New("dispatcher needs a sender")
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Snapshots == nil {
		o.Snapshots = NopSnapshotStore{}
	}
	if o.Tokens == nil {
		t, err := NewTokenService("", 0)
		if err != nil {
			return nil, err
		}
		o.Tokens = t
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 5 * time.Second
	}

	d := &Dispatcher{
		sender:   o.Sender,
		tokens:   o.Tokens,
		stats:    o.Stats,
		limiter:  NewRateLimiter(o.Limits),
		validate: NewValidator(),
		log:      o.Logger,
		timeout:  o.RequestTimeout,
	}
	if _, nop := o.Snapshots.(NopSnapshotStore); !nop {
		d.snapshots = newSnapshotQueue(o.Snapshots, o.RequestTimeout, o.Logger)
	}
	d.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	o.Game.Notifier = game.NotifierFunc(d.notify)
	if o.Game.Logger == nil {
		o.Game.Logger = o.Logger
	}
	d.registry = game.NewRegistry(o.Game)

	d.handlers = map[string]func(context.Context, string, json.RawMessage) error{
		EventCreateGame:           d.createGame,
		EventJoinGame:             d.joinGame,
		EventSpectateGame:         d.spectateGame,
		EventStartGame:            d.startGame,
		EventSubmitAnswer:         d.submitAnswer,
		EventChatMessage:          d.chatMessage,
		EventGetStats:             d.getStats,
		EventGetLeaderboard:       d.getLeaderboard,
		EventGetGlobalLeaderboard: d.getGlobalLeaderboard,
		EventGetGames:             d.getGames,
		EventReconnect:            d.reconnect,
		EventPing:                 d.ping,
	}
	return d, nil
}

func (d *Dispatcher) Registry() *game.Registry { return d.registry }

// Dispatch handles one inbound envelope from conn.
func (d *Dispatcher) Dispatch(ctx context.Context, conn string, env Envelope) {
	handle, ok := d.handlers[env.Type]
	if !ok {
		d.log.Debug("unknown event", "conn", conn, "event", env.Type)
		d.send(conn, EventError, ErrorPayload{Message: "Unknown event: " + env.Type})
		return
	}

	if allowed, wait := d.limiter.Allow(conn, env.Type); !allowed {
		d.log.Warn("rate limit exceeded", "conn", conn, "event", env.Type)
		d.send(conn, EventRateLimited, RateLimitedPayload{
			Message:      "Too many requests. Please slow down.",
			RetryAfterMs: wait.Milliseconds(),
		})
		return
	}

	if err := handle(ctx, conn, env.Payload); err != nil {
		d.fail(conn, env.Type, err)
	}
}

// Disconnect releases everything conn held.
func (d *Dispatcher) Disconnect(conn string) {
	d.limiter.Forget(conn)

	room, dep, err := d.registry.Leave(conn)
	if errors.Is(err, game.ErrNotInGame) {
		return
	}
	if err != nil {
		d.log.Warn("leave failed", "conn", conn, "error", err)
		return
	}
	if dep.Spectator {
		return
	}

	d.log.Info("player left", "code", room.Code(), "player", dep.PlayerID, "evicted", dep.Evict)
	d.broadcast(dep.Audience, EventPlayerLeft, PresencePayload{
		PlayerID:   dep.PlayerID,
		PlayerName: dep.PlayerName,
		Players:    dep.Players,
	})
	if dep.Evict && dep.HostLeft {
		d.broadcast(dep.Audience, EventGameClosed, GameClosedPayload{
			Message: "The host has left the game. The game has ended.",
			Reason:  "host_left",
		})
	}
	// Evicted lobbies leave no snapshot behind.
	if dep.Evict && room.State() == game.StateWaiting {
		if d.snapshots != nil {
			d.snapshots.remove(room.Code())
		}
		return
	}
	d.snapshot(room)
}

func (d *Dispatcher) createGame(_ context.Context, conn string, raw json.RawMessage) error {
	var p CreateGamePayload
	if err := d.decode(raw, &p); err != nil {
		return err
	}

	room, host, err := d.registry.Create(conn, p.PlayerName, p.Avatar, p.Settings.toSettings())
	if err != nil {
		return err
	}
	token, err := d.tokens.Issue(room.Code(), host.ID)
	if err != nil {
		return err
	}

	d.send(conn, EventGameCreated, SeatPayload{
		GameID:   room.Code(),
		PlayerID: host.ID,
		Token:    token,
		GameInfo: room.Info(),
	})
	d.snapshot(room)
	return nil
}

func (d *Dispatcher) joinGame(_ context.Context, conn string, raw json.RawMessage) error {
	var p JoinGamePayload
	if err := d.decode(raw, &p); err != nil {
		return err
	}

	room, player, err := d.registry.Join(p.GameID, conn, p.PlayerName, p.Avatar)
	if err != nil {
		return err
	}
	token, err := d.tokens.Issue(room.Code(), player.ID)
	if err != nil {
		return err
	}

	info := room.Info()
	d.send(conn, EventGameJoined, SeatPayload{
		GameID:   room.Code(),
		PlayerID: player.ID,
		Token:    token,
		GameInfo: info,
	})
	d.broadcast(room.Audience(), EventPlayerJoined, PlayerJoinedPayload{Player: player, Players: info.Players})
	d.log.Info("player joined", "code", room.Code(), "player", player.ID, "name", player.Name)
	d.snapshot(room)
	return nil
}

func (d *Dispatcher) spectateGame(_ context.Context, conn string, raw json.RawMessage) error {
	var p GamePayload
	if err := d.decode(raw, &p); err != nil {
		return err
	}
	_, info, err := d.registry.Spectate(p.GameID, conn)
	if err != nil {
		return err
	}
	d.send(conn, EventSpectatorJoined, SpectatorPayload{GameState: info})
	return nil
}

func (d *Dispatcher) startGame(ctx context.Context, conn string, raw json.RawMessage) error {
	var p GamePayload
	if err := d.decode(raw, &p); err != nil {
		return err
	}
	room, err := d.roomFor(conn, p.GameID)
	if err != nil {
		return err
	}

	res, err := room.Start(ctx, conn)
	if err != nil {
		return err
	}
	d.broadcast(res.Audience, EventGameStarted, GameStartedPayload{
		TotalQuestions: res.TotalQuestions,
		StartDelayMs:   res.StartDelay.Milliseconds(),
	})
	d.snapshot(room)
	return nil
}

func (d *Dispatcher) submitAnswer(_ context.Context, conn string, raw json.RawMessage) error {
	var p SubmitAnswerPayload
	if err := d.decode(raw, &p); err != nil {
		return err
	}
	room, err := d.roomFor(conn, p.GameID)
	if err != nil {
		return err
	}

	res, err := room.SubmitAnswer(conn, *p.AnswerIndex, time.Duration(*p.AnswerTime)*time.Millisecond)
	if err != nil {
		return err
	}
	d.send(conn, EventAnswerResult, AnswerResultPayload{
		IsCorrect:     res.Correct,
		PointsEarned:  res.Points,
		CorrectAnswer: res.CorrectAnswer,
		Score:         res.Score,
	})
	d.broadcast(res.Audience, EventLeaderboardUpdate, LeaderboardPayload{Leaderboard: res.Leaderboard})
	return nil
}

func (d *Dispatcher) chatMessage(_ context.Context, conn string, raw json.RawMessage) error {
	var p ChatPayload
	if err := d.decode(raw, &p); err != nil {
		return err
	}
	room, err := d.roomFor(conn, p.GameID)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(SanitizeMessage(p.Message))
	if text == "" {
		return &game.Error{Kind: game.KindValidation, Message: "Message is empty"}
	}
	msg, audience, err := room.PostChat(conn, text)
	if err != nil {
		return err
	}
	d.broadcast(audience, EventChatMessage, msg)
	return nil
}

func (d *Dispatcher) getStats(ctx context.Context, conn string, raw json.RawMessage) error {
	var p StatsPayload
	if err := d.decode(raw, &p); err != nil {
		return err
	}
	if d.stats == nil {
		return errStatsDisabled
	}

	playerID := p.PlayerID
	if playerID == "" {
		playerID = conn
		if room, ok := d.registry.RoomFor(conn); ok {
			if id, ok := room.PlayerID(conn); ok {
				playerID = id
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	stats, err := d.stats.GetPlayerStats(ctx, playerID)
	if IsNotFound(err) {
		return errStatsNotFound
	}
	if err != nil {
		return err
	}
	d.send(conn, EventPlayerStats, PlayerStatsPayload{Stats: stats})
	return nil
}

func (d *Dispatcher) getLeaderboard(_ context.Context, conn string, raw json.RawMessage) error {
	var p GamePayload
	if err := d.decode(raw, &p); err != nil {
		return err
	}
	room, ok := d.registry.Room(p.GameID)
	if !ok {
		return game.ErrRoomNotFound
	}
	d.send(conn, EventLeaderboardUpdate, LeaderboardPayload{Leaderboard: room.Leaderboard()})
	return nil
}

func (d *Dispatcher) getGlobalLeaderboard(ctx context.Context, conn string, raw json.RawMessage) error {
	var p GlobalLeaderboardQuery
	if err := d.decode(raw, &p); err != nil {
		return err
	}
	if d.stats == nil {
		return errStatsDisabled
	}
	if p.Metric == "" {
		p.Metric = "totalScore"
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	top, err := d.stats.TopPlayers(ctx, p.Metric, p.Limit)
	if err != nil {
		return err
	}
	d.send(conn, EventGlobalLeaderboard, GlobalLeaderboardPayload{Metric: p.Metric, Leaderboard: top})
	return nil
}

func (d *Dispatcher) getGames(_ context.Context, conn string, _ json.RawMessage) error {
	d.send(conn, EventGamesList, GamesListPayload{Games: d.registry.WaitingRooms()})
	return nil
}

func (d *Dispatcher) reconnect(_ context.Context, conn string, raw json.RawMessage) error {
	var p ReconnectPayload
	if err := d.decode(raw, &p); err != nil {
		return err
	}
	claims, err := d.tokens.Verify(p.Token, p.GameID)
	if err != nil {
		return err
	}

	room, rj, err := d.registry.Reconnect(p.GameID, claims.PlayerID, conn)
	if err != nil {
		return err
	}
	if rj.Replaced != "" {
		d.send(rj.Replaced, EventGameClosed, GameClosedPayload{
			Message: "This player reconnected from another session.",
			Reason:  "session_replaced",
		})
	}

	d.send(conn, EventReconnected, ReconnectedPayload{
		GameID:   room.Code(),
		PlayerID: rj.Player.ID,
		GameInfo: rj.Info,
		Question: rj.Question,
		Answered: rj.Answered,
		Chat:     rj.Chat,
	})
	others := make([]string, 0, len(rj.Audience))
	for _, c := range rj.Audience {
		if c != conn {
			others = append(others, c)
		}
	}
	d.broadcast(others, EventPlayerReconnected, PresencePayload{
		PlayerID:   rj.Player.ID,
		PlayerName: rj.Player.Name,
		Players:    rj.Info.Players,
	})
	d.log.Info("player reconnected", "code", room.Code(), "player", rj.Player.ID, "conn", conn)
	d.snapshot(room)
	return nil
}

func (d *Dispatcher) ping(_ context.Context, conn string, _ json.RawMessage) error {
	d.send(conn, EventPong, struct{}{})
	return nil
}

// notify turns room timer events into broadcasts.
func (d *Dispatcher) notify(ev game.Event) {
	switch e := ev.(type) {
	case game.QuestionPresented:
		d.broadcast(e.Audience, EventNewQuestion, e.Question)
	case game.QuestionClosed:
		d.broadcast(e.Audience, EventQuestionEnded, QuestionEndedPayload{
			QuestionNumber: e.Number,
			CorrectAnswer:  e.CorrectAnswer,
		})
		d.broadcast(e.Audience, EventLeaderboardUpdate, LeaderboardPayload{Leaderboard: e.Leaderboard})
	case game.GameFinished:
		d.broadcast(e.Audience, EventGameEnded, GameEndedPayload{
			Leaderboard:    e.Results.Leaderboard,
			TotalQuestions: e.Results.TotalQuestions,
			Winner:         e.Results.Winner,
		})
		d.log.Info("game ended", "code", e.Code, "players", len(e.Results.Leaderboard))
	default:
		return
	}
	if room, ok := d.registry.Room(ev.RoomCode()); ok {
		d.snapshot(room)
	}
}

var (
	errStatsDisabled = &game.Error{Kind: game.KindInvalidState, Message: "Stats are disabled"}
	errStatsNotFound = &game.Error{Kind: game.KindNotFound, Message: "No stats recorded for this player"}
)

func (d *Dispatcher) decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &game.Error{Kind: game.KindValidation, Message: "Invalid payload"}
	}
	if err := d.validate.Struct(v); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return &game.Error{Kind: game.KindValidation, Message: "Invalid " + fields[0].Field()}
		}
		return &game.Error{Kind: game.KindValidation, Message: "Invalid payload"}
	}
	return nil
}

// roomFor resolves conn's room and checks it is the one the client named.
func (d *Dispatcher) roomFor(conn, code string) (*game.Room, error) {
	room, ok := d.registry.RoomFor(conn)
	if !ok || room.Code() != game.NormalizeCode(code) {
		return nil, game.ErrRoomNotFound
	}
	return room, nil
}

func (d *Dispatcher) fail(conn, event string, err error) {
	msg := "Internal error"
	var gerr *game.Error
	if errors.As(err, &gerr) {
		msg = gerr.Message
		d.log.Debug("event rejected", "conn", conn, "event", event, "kind", gerr.Kind, "error", err)
	} else {
		d.log.Error("event failed", "conn", conn, "event", event, "error", err)
	}

	if event == EventJoinGame {
		d.send(conn, EventJoinError, JoinErrorPayload{Error: msg})
		return
	}
	d.send(conn, EventError, ErrorPayload{Message: msg})
}

func (d *Dispatcher) send(conn, typ string, payload any) {
	d.sender.Send(conn, Message{Type: typ, Payload: payload})
}

func (d *Dispatcher) broadcast(conns []string, typ string, payload any) {
	msg := Message{Type: typ, Payload: payload}
	for _, c := range conns {
		d.sender.Send(c, msg)
	}
}

// snapshot stores room's public state without blocking the caller.
func (d *Dispatcher) snapshot(room *game.Room) {
	if d.snapshots != nil {
		d.snapshots.save(room)
	}
}

// FlushSnapshots waits for queued snapshot writes to finish.
func (d *Dispatcher) FlushSnapshots() {
	if d.snapshots != nil {
		d.snapshots.flush()
	}
}
