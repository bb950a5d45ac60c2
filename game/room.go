package game

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// State is a room lifecycle phase. Transitions only move forward.
type State string

const (
	StateWaiting  State = "waiting"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

// Info is a point-in-time snapshot of a room, safe to serialize.
type Info struct {
	Code               string       `json:"gameId"`
	HostID             string       `json:"hostId"`
	State              State        `json:"state"`
	Players            []PlayerView `json:"players"`
	PlayerCount        int          `json:"playerCount"`
	MaxPlayers         int          `json:"maxPlayers"`
	SpectatorCount     int          `json:"spectatorCount"`
	Settings           Settings     `json:"settings"`
	QuestionDurationMs int64        `json:"questionDuration"`
	CurrentQuestion    int          `json:"currentQuestion"`
	TotalQuestions     int          `json:"totalQuestions"`
	Leaderboard        []Standing   `json:"leaderboard"`
	CreatedAt          time.Time    `json:"createdAt"`
}

// Departure describes the effect of a connection leaving a room.
type Departure struct {
	PlayerID   string
	PlayerName string
	Spectator  bool
	HostLeft   bool
	// Evict is set when the room must be removed from its registry. The room is
	// already closed when this is true.
	Evict bool
	// Players and Audience describe the room after the departure.
	Players  []PlayerView
	Audience []string
}

// StartResult is returned by a successful Start.
type StartResult struct {
	TotalQuestions int
	StartDelay     time.Duration
	Audience       []string
}

// AnswerResult is the outcome of one accepted answer.
type AnswerResult struct {
	PlayerID       string
	QuestionNumber int
	Correct        bool
	Points         int
	CorrectAnswer  int
	Elapsed        time.Duration
	Score          int
	AllAnswered    bool
	Leaderboard    []Standing
	Audience       []string
}

// Rejoin is returned when a connection takes over an existing player.
type Rejoin struct {
	Player   PlayerView
	Info     Info
	Question *QuestionView
	Answered bool
	Chat     []ChatMessage
	// Replaced is the player's previous connection, if it was still bound.
	Replaced string
	Audience []string
}

// ChatMessage is a room chat line.
type ChatMessage struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Avatar     string    `json:"avatar"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

type statsJob struct {
	playerID string
	name     string
	result   GameResult
}

// Room owns one game. All mutations are serialized by mu. Question fetches,
// stats writes and notifications happen with mu released.
type Room struct {
	code      string
	hostID    string
	settings  Settings
	opts      *Options
	log       *slog.Logger
	createdAt time.Time

	mu                sync.Mutex
	state             State
	starting          bool
	closed            bool
	players           map[string]*Player
	order             []*Player
	sessions          map[string]string
	spectators        map[string]struct{}
	questions         []Question
	current           int
	questionOpen      bool
	questionStartedAt time.Time
	advancing         int
	timer             Timer
	results           *Results
	chat              []ChatMessage
	lastActivity      time.Time
}

// NewRoom builds an empty waiting room. hostID is the connection id the host
// will join with.
func NewRoom(code, hostID string, settings Settings, opts Options) *Room {
	o := opts.withDefaults()
	return newRoom(code, hostID, settings, &o)
}

func newRoom(code, hostID string, settings Settings, o *Options) *Room {
	now := o.Clock.Now()
	return &Room{
		code:         code,
		hostID:       hostID,
		settings:     settings.WithDefaults(o.Defaults),
		opts:         o,
		log:          o.Logger.With("code", code),
		createdAt:    now,
		state:        StateWaiting,
		players:      make(map[string]*Player),
		sessions:     make(map[string]string),
		spectators:   make(map[string]struct{}),
		advancing:    -1,
		lastActivity: now,
	}
}

func (r *Room) Code() string       { return r.code }
func (r *Room) HostID() string     { return r.hostID }
func (r *Room) Settings() Settings { return r.settings }

func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// AddPlayer admits a new player while the room is waiting.
func (r *Room) AddPlayer(conn, name, avatar string) (PlayerView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return PlayerView{}, ErrRoomNotFound
	}
	if r.state != StateWaiting {
		return PlayerView{}, ErrNotWaiting
	}
	if len(r.players) >= r.settings.MaxPlayers {
		return PlayerView{}, ErrRoomFull
	}
	if _, ok := r.sessions[conn]; ok {
		return PlayerView{}, ErrAlreadyInGame
	}
	if _, ok := r.players[conn]; ok {
		return PlayerView{}, ErrAlreadyInGame
	}

	p := &Player{
		ID:        conn,
		Name:      name,
		Avatar:    avatar,
		Connected: true,
		JoinedAt:  r.opts.Clock.Now(),
	}
	r.players[p.ID] = p
	r.order = append(r.order, p)
	r.sessions[conn] = p.ID
	r.touchLocked()
	return p.view(), nil
}

// AddSpectator attaches a read-only connection.
func (r *Room) AddSpectator(conn string) (Info, error) {
	if !r.opts.Spectators {
		return Info{}, ErrSpectatorsDisabled
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Info{}, ErrRoomNotFound
	}
	if _, ok := r.sessions[conn]; ok {
		return Info{}, ErrAlreadyInGame
	}
	r.spectators[conn] = struct{}{}
	r.touchLocked()
	return r.infoLocked(), nil
}

// RemovePlayer detaches conn from the room. Waiting rooms forget the player;
// running and finished rooms keep its score and history.
func (r *Room) RemovePlayer(conn string) (Departure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Departure{}, ErrRoomNotFound
	}
	if _, ok := r.spectators[conn]; ok {
		delete(r.spectators, conn)
		return Departure{Spectator: true, Players: r.playerViewsLocked(), Audience: r.audienceLocked()}, nil
	}
	id, ok := r.sessions[conn]
	if !ok {
		return Departure{}, ErrPlayerNotFound
	}
	delete(r.sessions, conn)
	p := r.players[id]

	d := Departure{PlayerID: p.ID, PlayerName: p.Name, HostLeft: p.ID == r.hostID}
	switch r.state {
	case StateWaiting:
		delete(r.players, id)
		r.order = slices.DeleteFunc(r.order, func(o *Player) bool { return o.ID == id })
		d.Evict = len(r.players) == 0 || d.HostLeft
	default:
		p.Connected = false
		d.Evict = (d.HostLeft && r.opts.HostLeave == HostLeaveEndGame) || len(r.sessions) == 0
		if !d.Evict && r.state == StatePlaying && r.questionOpen && r.allAnsweredLocked() {
			r.scheduleAdvanceLocked()
		}
	}
	if d.Evict {
		r.closeLocked()
	}
	r.touchLocked()
	d.Players = r.playerViewsLocked()
	d.Audience = r.audienceLocked()
	return d, nil
}

// Start draws the question batch and moves the room to playing. The first
// question opens after the configured start delay.
func (r *Room) Start(ctx context.Context, conn string) (StartResult, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return StartResult{}, ErrRoomNotFound
	}
	if r.state != StateWaiting || r.starting {
		r.mu.Unlock()
		return StartResult{}, ErrNotWaiting
	}
	if len(r.players) < r.settings.MinPlayers {
		r.mu.Unlock()
		return StartResult{}, ErrNotEnoughPlayers
	}
	if r.sessions[conn] != r.hostID {
		r.mu.Unlock()
		return StartResult{}, ErrNotHost
	}
	r.starting = true
	s := r.settings
	r.mu.Unlock()

	questions, err := r.fetch(ctx, s)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.starting = false
	if err != nil {
		return StartResult{}, err
	}
	if r.closed {
		return StartResult{}, ErrRoomNotFound
	}
	if len(r.players) < r.settings.MinPlayers {
		return StartResult{}, ErrNotEnoughPlayers
	}

	r.questions = questions
	r.current = 0
	r.state = StatePlaying
	r.touchLocked()
	r.setTimerLocked(r.opts.StartDelay, func() { r.present(0) })
	r.log.Info("game started", "players", len(r.players), "questions", len(questions))

	return StartResult{
		TotalQuestions: len(questions),
		StartDelay:     r.opts.StartDelay,
		Audience:       r.audienceLocked(),
	}, nil
}

func (r *Room) fetch(ctx context.Context, s Settings) ([]Question, error) {
	if r.opts.Source == nil {
		return nil, ErrNoQuestions
	}
	ctx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	defer cancel()

	questions, err := r.opts.Source.GetQuestions(ctx, s.QuestionCount, s.Difficulty, s.Category)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	valid := lo.Filter(questions, func(q Question, _ int) bool { return q.Valid() })
	if dropped := len(questions) - len(valid); dropped > 0 {
		r.log.Warn("dropped malformed questions", "count", dropped)
	}
	if len(valid) > s.QuestionCount {
		valid = valid[:s.QuestionCount]
	}
	if len(valid) == 0 {
		return nil, ErrNoQuestions
	}
	return slices.Clone(valid), nil
}

// present opens question index if the room is still waiting for it.
func (r *Room) present(index int) {
	r.mu.Lock()
	if r.closed || r.state != StatePlaying || r.current != index || r.questionOpen {
		r.mu.Unlock()
		return
	}
	ev := r.presentLocked()
	r.mu.Unlock()
	r.opts.Notifier.Notify(ev)
}

func (r *Room) presentLocked() QuestionPresented {
	index := r.current
	r.questionOpen = true
	r.questionStartedAt = r.opts.Clock.Now()
	r.setTimerLocked(r.settings.QuestionDuration+r.opts.TimeoutGrace, func() {
		if r.Advance(index) {
			r.log.Debug("question timed out", "question", index+1)
		}
	})
	return QuestionPresented{Code: r.code, Question: r.questionViewLocked(), Audience: r.audienceLocked()}
}

// SubmitAnswer scores conn's answer to the open question. Latency is measured
// from when the question opened; clientElapsed is recorded but not trusted.
func (r *Room) SubmitAnswer(conn string, option int, clientElapsed time.Duration) (AnswerResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return AnswerResult{}, ErrRoomNotFound
	}
	id, ok := r.sessions[conn]
	if !ok {
		return AnswerResult{}, ErrPlayerNotFound
	}
	p := r.players[id]
	if r.state != StatePlaying {
		return AnswerResult{}, ErrNotPlaying
	}
	if !r.questionOpen {
		return AnswerResult{}, ErrQuestionNotOpen
	}
	q := r.questions[r.current]
	if option < 0 || option >= len(q.Options) {
		return AnswerResult{}, ErrInvalidOption
	}
	if p.answered(r.current) {
		return AnswerResult{}, ErrDuplicateAnswer
	}

	elapsed := max(r.opts.Clock.Now().Sub(r.questionStartedAt), 0)
	correct := option == q.CorrectAnswer
	points := 0
	if correct {
		points = r.opts.Source.CalculatePoints(q.Points, elapsed, r.settings.QuestionDuration)
	}
	p.Answers = append(p.Answers, AnswerRecord{
		QuestionID:    q.ID,
		QuestionIndex: r.current,
		Option:        option,
		Correct:       correct,
		Elapsed:       elapsed,
		ClientElapsed: clientElapsed,
		Points:        points,
	})
	p.Score += points
	r.touchLocked()

	all := r.allAnsweredLocked()
	if all {
		r.scheduleAdvanceLocked()
	}
	return AnswerResult{
		PlayerID:       p.ID,
		QuestionNumber: r.current + 1,
		Correct:        correct,
		Points:         points,
		CorrectAnswer:  q.CorrectAnswer,
		Elapsed:        elapsed,
		Score:          p.Score,
		AllAnswered:    all,
		Leaderboard:    rank(r.order),
		Audience:       r.audienceLocked(),
	}, nil
}

// Advance closes question expected and opens the next one, or finishes the
// game after the last. It is a no-op unless expected is still the open
// question, so racing triggers advance exactly once.
func (r *Room) Advance(expected int) bool {
	r.mu.Lock()
	if r.closed || r.state != StatePlaying || r.current != expected || !r.questionOpen {
		r.mu.Unlock()
		return false
	}

	q := r.questions[r.current]
	events := []Event{QuestionClosed{
		Code:          r.code,
		Number:        r.current + 1,
		CorrectAnswer: q.CorrectAnswer,
		Leaderboard:   rank(r.order),
		Audience:      r.audienceLocked(),
	}}
	r.questionOpen = false
	r.questionStartedAt = time.Time{}
	r.advancing = -1
	r.stopTimerLocked()
	r.current++

	var jobs []statsJob
	if r.current >= len(r.questions) {
		var ev GameFinished
		ev, jobs = r.finishLocked()
		events = append(events, ev)
	} else {
		events = append(events, r.presentLocked())
	}
	r.touchLocked()
	r.mu.Unlock()

	for _, ev := range events {
		r.opts.Notifier.Notify(ev)
	}
	r.recordStats(jobs)
	return true
}

func (r *Room) finishLocked() (GameFinished, []statsJob) {
	r.state = StateFinished
	board := rank(r.order)
	res := Results{
		Leaderboard:    board,
		TotalQuestions: len(r.questions),
		FinishedAt:     r.opts.Clock.Now(),
	}
	if len(board) > 0 {
		w := board[0]
		res.Winner = &w
	}
	r.results = &res

	jobs := make([]statsJob, 0, len(board))
	for i, s := range board {
		p := r.players[s.ID]
		jobs = append(jobs, statsJob{
			playerID: p.ID,
			name:     p.Name,
			result: GameResult{
				Score:          p.Score,
				CorrectAnswers: s.CorrectAnswers,
				TotalQuestions: len(r.questions),
				Rank:           i + 1,
				IsWinner:       i == 0,
				FastestAnswer:  p.fastestCorrect(),
				Category:       r.settings.categoryLabel(),
				Difficulty:     r.settings.difficultyLabel(),
			},
		})
	}
	r.log.Info("game finished", "players", len(board))
	return GameFinished{Code: r.code, Results: res, Audience: r.audienceLocked()}, jobs
}

func (r *Room) recordStats(jobs []statsJob) {
	for _, j := range jobs {
		go func(j statsJob) {
			defer func() {
				if v := recover(); v != nil {
					r.log.Error("stats sink panicked", "player", j.playerID, "panic", v)
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), r.opts.StatsTimeout)
			defer cancel()
			if err := r.opts.Stats.RecordGameResult(ctx, j.playerID, j.name, j.result); err != nil {
				r.log.Warn("record game result", "player", j.playerID, "err", err)
			}
		}(j)
	}
}

// Leaderboard returns the current standings, or the final ones once the game
// has finished.
func (r *Room) Leaderboard() []Standing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.standingsLocked()
}

func (r *Room) standingsLocked() []Standing {
	if r.results != nil {
		return slices.Clone(r.results.Leaderboard)
	}
	return rank(r.order)
}

// AllAnswered reports whether every connected player has answered the open question.
func (r *Room) AllAnswered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allAnsweredLocked()
}

func (r *Room) allAnsweredLocked() bool {
	if r.state != StatePlaying {
		return false
	}
	connected := 0
	for _, p := range r.order {
		if !p.Connected {
			continue
		}
		connected++
		if !p.answered(r.current) {
			return false
		}
	}
	return connected > 0
}

func (r *Room) scheduleAdvanceLocked() {
	if r.advancing == r.current {
		return
	}
	index := r.current
	r.advancing = index
	r.setTimerLocked(r.opts.AdvanceDelay, func() { r.Advance(index) })
}

// Results returns the final snapshot once the room has finished.
func (r *Room) Results() (Results, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		return Results{}, false
	}
	return *r.results, true
}

// CurrentQuestion returns the open question, if any.
func (r *Room) CurrentQuestion() (QuestionView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.questionOpen {
		return QuestionView{}, false
	}
	return r.questionViewLocked(), true
}

// Player returns a copy of the player bound to id.
func (r *Room) Player(id string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return Player{}, false
	}
	cp := *p
	cp.Answers = slices.Clone(p.Answers)
	return cp, true
}

// PlayerID resolves the player bound to conn.
func (r *Room) PlayerID(conn string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.sessions[conn]
	return id, ok
}

// Reconnect binds conn to an existing player, restoring its score and history.
func (r *Room) Reconnect(conn, playerID string) (Rejoin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Rejoin{}, ErrRoomNotFound
	}
	p, ok := r.players[playerID]
	if !ok {
		return Rejoin{}, ErrPlayerNotFound
	}
	if _, ok := r.sessions[conn]; ok {
		return Rejoin{}, ErrAlreadyInGame
	}

	var replaced string
	for c, id := range r.sessions {
		if id == playerID {
			replaced = c
			delete(r.sessions, c)
			break
		}
	}
	r.sessions[conn] = playerID
	p.Connected = true
	r.touchLocked()

	rj := Rejoin{
		Player:   p.view(),
		Info:     r.infoLocked(),
		Chat:     slices.Clone(r.chat),
		Replaced: replaced,
		Audience: r.audienceLocked(),
	}
	if r.questionOpen {
		v := r.questionViewLocked()
		rj.Question = &v
		rj.Answered = p.answered(r.current)
	}
	return rj, nil
}

// PostChat appends a chat line from conn's player.
func (r *Room) PostChat(conn, text string) (ChatMessage, []string, error) {
	if !r.opts.Chat {
		return ChatMessage{}, nil, ErrChatDisabled
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ChatMessage{}, nil, ErrRoomNotFound
	}
	id, ok := r.sessions[conn]
	if !ok {
		return ChatMessage{}, nil, ErrPlayerNotFound
	}
	p := r.players[id]
	msg := ChatMessage{
		ID:         uuid.NewString(),
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Avatar:     p.Avatar,
		Message:    text,
		Timestamp:  r.opts.Clock.Now(),
	}
	r.chat = append(r.chat, msg)
	if over := len(r.chat) - r.opts.ChatHistory; over > 0 {
		r.chat = slices.Delete(r.chat, 0, over)
	}
	r.touchLocked()
	return msg, r.audienceLocked(), nil
}

// ChatHistory returns the retained chat lines, oldest first.
func (r *Room) ChatHistory() []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.chat)
}

// Info returns a snapshot of the room.
func (r *Room) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked()
}

func (r *Room) infoLocked() Info {
	current := 0
	if r.state == StatePlaying {
		current = r.current + 1
	} else if r.state == StateFinished {
		current = len(r.questions)
	}
	return Info{
		Code:               r.code,
		HostID:             r.hostID,
		State:              r.state,
		Players:            r.playerViewsLocked(),
		PlayerCount:        len(r.players),
		MaxPlayers:         r.settings.MaxPlayers,
		SpectatorCount:     len(r.spectators),
		Settings:           r.settings,
		QuestionDurationMs: r.settings.QuestionDuration.Milliseconds(),
		CurrentQuestion:    current,
		TotalQuestions:     len(r.questions),
		Leaderboard:        r.standingsLocked(),
		CreatedAt:          r.createdAt,
	}
}

// Audience lists every connection that receives room-wide events.
func (r *Room) Audience() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.audienceLocked()
}

func (r *Room) audienceLocked() []string {
	out := make([]string, 0, len(r.sessions)+len(r.spectators))
	for _, p := range r.order {
		for c, id := range r.sessions {
			if id == p.ID {
				out = append(out, c)
			}
		}
	}
	spectators := lo.Keys(r.spectators)
	slices.Sort(spectators)
	return append(out, spectators...)
}

func (r *Room) playerViewsLocked() []PlayerView {
	return lo.Map(r.order, func(p *Player, _ int) PlayerView { return p.view() })
}

func (r *Room) questionViewLocked() QuestionView {
	q := r.questions[r.current]
	return QuestionView{
		Number:         r.current + 1,
		TotalQuestions: len(r.questions),
		Prompt:         q.Prompt,
		Options:        slices.Clone(q.Options),
		Category:       q.Category,
		Difficulty:     q.Difficulty,
		Points:         q.Points,
		DurationMs:     r.settings.QuestionDuration.Milliseconds(),
		StartTime:      r.questionStartedAt,
	}
}

// IdleSince reports when the room last saw any activity.
func (r *Room) IdleSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// Close stops pending timers. Callbacks that fire afterwards do nothing.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

// Closed reports whether the room has been closed.
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Room) closeLocked() {
	r.closed = true
	r.stopTimerLocked()
}

func (r *Room) setTimerLocked(d time.Duration, f func()) {
	r.stopTimerLocked()
	r.timer = r.opts.Clock.AfterFunc(d, f)
}

func (r *Room) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Room) touchLocked() {
	r.lastActivity = r.opts.Clock.Now()
}
