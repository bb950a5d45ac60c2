package game_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizarena/game"
	"quizarena/game/gametest"

	"github.com/stretchr/testify/require"
)

const (
	hostConn  = "conn-a"
	guestConn = "conn-b"
	thirdConn = "conn-c"
)

type fixture struct {
	clock  *gametest.ManualClock
	source *gametest.StaticSource
	stats  *gametest.RecordingStats
	events *gametest.Recorder
	reg    *game.Registry
}

func newFixture(t *testing.T, questions int, mutate ...func(*game.Options)) *fixture {
	t.Helper()
	f := &fixture{
		clock:  gametest.NewManualClock(),
		source: &gametest.StaticSource{Questions: gametest.Questions(questions)},
		stats:  &gametest.RecordingStats{},
		events: &gametest.Recorder{},
	}
	opts := game.Options{
		Source:     f.source,
		Stats:      f.stats,
		Notifier:   f.events,
		Clock:      f.clock,
		Defaults:   game.Settings{QuestionCount: questions},
		Spectators: true,
		Chat:       true,
	}
	for _, m := range mutate {
		m(&opts)
	}
	f.reg = game.NewRegistry(opts)
	return f
}

// twoPlayerRoom creates a room hosted by hostConn with guestConn joined.
func (f *fixture) twoPlayerRoom(t *testing.T) *game.Room {
	t.Helper()
	room, _, err := f.reg.Create(hostConn, "Alice", "🦊", game.Settings{})
	require.NoError(t, err)
	_, _, err = f.reg.Join(room.Code(), guestConn, "Bob", "🐼")
	require.NoError(t, err)
	return room
}

// started creates a two-player room, starts it and opens the first question.
func (f *fixture) started(t *testing.T) *game.Room {
	t.Helper()
	room := f.twoPlayerRoom(t)
	_, err := room.Start(context.Background(), hostConn)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Second)
	_, open := room.CurrentQuestion()
	require.True(t, open)
	return room
}

func TestRoom_FullGame(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 3)
	room := f.twoPlayerRoom(t)

	res, err := room.Start(context.Background(), hostConn)
	req.NoError(err)
	req.Equal(3, res.TotalQuestions)
	req.ElementsMatch([]string{hostConn, guestConn}, res.Audience)

	_, open := room.CurrentQuestion()
	req.False(open, "first question waits for the start delay")
	f.clock.Advance(2 * time.Second)

	for i := range 3 {
		q, open := room.CurrentQuestion()
		req.True(open)
		req.Equal(i+1, q.Number)

		f.clock.Advance(500 * time.Millisecond)
		a, err := room.SubmitAnswer(hostConn, 0, 400*time.Millisecond)
		req.NoError(err)
		req.True(a.Correct)
		req.Equal(148, a.Points)
		req.False(a.AllAnswered)

		b, err := room.SubmitAnswer(guestConn, 2, 0)
		req.NoError(err)
		req.False(b.Correct)
		req.Zero(b.Points)
		req.Equal(0, b.CorrectAnswer)
		req.True(b.AllAnswered)

		f.clock.Advance(3 * time.Second)
	}

	req.Equal(game.StateFinished, room.State())
	results, ok := room.Results()
	req.True(ok)
	req.Equal(3, results.TotalQuestions)
	req.Len(results.Leaderboard, 2)
	req.Equal(hostConn, results.Winner.ID)
	req.Equal(hostConn, results.Leaderboard[0].ID)
	req.Equal(3, results.Leaderboard[0].CorrectAnswers)
	req.Equal(3*148, results.Leaderboard[0].Score)
	req.Equal(guestConn, results.Leaderboard[1].ID)
	req.Equal(0, results.Leaderboard[1].CorrectAnswers)

	req.Equal(3, gametest.Count[game.QuestionPresented](f.events))
	req.Equal(3, gametest.Count[game.QuestionClosed](f.events))
	req.Equal(1, gametest.Count[game.GameFinished](f.events))

	req.Eventually(func() bool { return len(f.stats.Results()) == 2 }, time.Second, 5*time.Millisecond)
	recorded := f.stats.Results()
	req.Equal(hostConn, recorded[0].PlayerID)
	req.True(recorded[0].Result.IsWinner)
	req.Equal(1, recorded[0].Result.Rank)
	req.Equal(3, recorded[0].Result.CorrectAnswers)
	req.Equal(500*time.Millisecond, *recorded[0].Result.FastestAnswer)
	req.Equal(game.MixedLabel, recorded[0].Result.Category)
	req.Equal(2, recorded[1].Result.Rank)
	req.Nil(recorded[1].Result.FastestAnswer)
}

func TestRoom_ScoreIsSumOfAnswers(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 4)
	room := f.started(t)

	last := 0
	for i := range 4 {
		f.clock.Advance(time.Duration(i) * 3 * time.Second)
		_, err := room.SubmitAnswer(hostConn, i%2, 0)
		req.NoError(err)

		p, ok := room.Player(hostConn)
		req.True(ok)
		sum := 0
		for _, a := range p.Answers {
			sum += a.Points
		}
		req.Equal(sum, p.Score)
		req.GreaterOrEqual(p.Score, last)
		last = p.Score

		_, err = room.SubmitAnswer(guestConn, 1, 0)
		req.NoError(err)
		f.clock.Advance(3 * time.Second)
	}
}

func TestRoom_DuplicateAnswer(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 2)
	room := f.started(t)

	first, err := room.SubmitAnswer(hostConn, 0, 0)
	req.NoError(err)

	_, err = room.SubmitAnswer(hostConn, 1, 0)
	req.ErrorIs(err, game.ErrDuplicateAnswer)
	req.Equal(game.KindConflict, game.KindOf(err))

	p, _ := room.Player(hostConn)
	req.Len(p.Answers, 1)
	req.Equal(first.Score, p.Score)
}

func TestRoom_SubmitAnswerErrors(t *testing.T) {
	t.Run("should reject answers before the game starts", func(t *testing.T) {
		f := newFixture(t, 2)
		room := f.twoPlayerRoom(t)
		_, err := room.SubmitAnswer(hostConn, 0, 0)
		require.ErrorIs(t, err, game.ErrNotPlaying)
	})

	t.Run("should reject answers during the start delay", func(t *testing.T) {
		f := newFixture(t, 2)
		room := f.twoPlayerRoom(t)
		_, err := room.Start(context.Background(), hostConn)
		require.NoError(t, err)
		_, err = room.SubmitAnswer(hostConn, 0, 0)
		require.ErrorIs(t, err, game.ErrQuestionNotOpen)
	})

	t.Run("should reject unknown connections", func(t *testing.T) {
		f := newFixture(t, 2)
		room := f.started(t)
		_, err := room.SubmitAnswer("stranger", 0, 0)
		require.ErrorIs(t, err, game.ErrPlayerNotFound)
	})

	t.Run("should reject options outside the question", func(t *testing.T) {
		f := newFixture(t, 2)
		room := f.started(t)
		_, err := room.SubmitAnswer(hostConn, 4, 0)
		require.ErrorIs(t, err, game.ErrInvalidOption)
		p, _ := room.Player(hostConn)
		require.Empty(t, p.Answers)
	})

	t.Run("should reject answers after a recorded disconnect", func(t *testing.T) {
		f := newFixture(t, 2)
		room := f.started(t)
		_, _, err := f.reg.Leave(guestConn)
		require.NoError(t, err)
		_, err = room.SubmitAnswer(guestConn, 0, 0)
		require.ErrorIs(t, err, game.ErrPlayerNotFound)
	})

	t.Run("should score with server time and ignore the client clock", func(t *testing.T) {
		f := newFixture(t, 2)
		room := f.started(t)
		f.clock.Advance(15 * time.Second)
		res, err := room.SubmitAnswer(hostConn, 0, 0)
		require.NoError(t, err)
		require.Equal(t, 100, res.Points)
		require.Equal(t, 15*time.Second, res.Elapsed)
	})
}

func TestRoom_Start(t *testing.T) {
	t.Run("should refuse to start an empty room", func(t *testing.T) {
		f := newFixture(t, 2)
		room := game.NewRoom("ABCDEF", hostConn, game.Settings{}, game.Options{Source: f.source, Clock: f.clock})
		_, err := room.Start(context.Background(), hostConn)
		require.ErrorIs(t, err, game.ErrNotEnoughPlayers)
		require.Equal(t, game.KindInvalidState, game.KindOf(err))
		require.Equal(t, game.StateWaiting, room.State())
		require.Zero(t, f.source.Calls)
	})

	t.Run("should refuse below the minimum player count", func(t *testing.T) {
		f := newFixture(t, 2)
		room, _, err := f.reg.Create(hostConn, "Alice", "🦊", game.Settings{MinPlayers: 2})
		require.NoError(t, err)
		_, err = room.Start(context.Background(), hostConn)
		require.ErrorIs(t, err, game.ErrNotEnoughPlayers)
	})

	t.Run("should only accept the host", func(t *testing.T) {
		f := newFixture(t, 2)
		room := f.twoPlayerRoom(t)
		_, err := room.Start(context.Background(), guestConn)
		require.ErrorIs(t, err, game.ErrNotHost)
		require.Equal(t, game.KindAuthorization, game.KindOf(err))
		require.Equal(t, game.StateWaiting, room.State())
	})

	t.Run("should refuse to start twice without moving the question", func(t *testing.T) {
		f := newFixture(t, 3)
		room := f.started(t)
		_, err := room.SubmitAnswer(hostConn, 0, 0)
		require.NoError(t, err)

		_, err = room.Start(context.Background(), hostConn)
		require.ErrorIs(t, err, game.ErrNotWaiting)
		require.Equal(t, game.KindInvalidState, game.KindOf(err))
		q, open := room.CurrentQuestion()
		require.True(t, open)
		require.Equal(t, 1, q.Number)
		require.Equal(t, 1, f.source.Calls)
	})

	t.Run("should stay waiting when the source fails", func(t *testing.T) {
		f := newFixture(t, 2)
		f.source.Err = errors.New("db down")
		room := f.twoPlayerRoom(t)
		_, err := room.Start(context.Background(), hostConn)
		require.Error(t, err)
		require.Equal(t, game.StateWaiting, room.State())

		f.source.Err = nil
		_, err = room.Start(context.Background(), hostConn)
		require.NoError(t, err)
	})

	t.Run("should stay waiting when no question matches", func(t *testing.T) {
		f := newFixture(t, 2)
		room, _, err := f.reg.Create(hostConn, "Alice", "🦊", game.Settings{Category: "Cooking"})
		require.NoError(t, err)
		_, err = room.Start(context.Background(), hostConn)
		require.ErrorIs(t, err, game.ErrNoQuestions)
		require.Equal(t, game.StateWaiting, room.State())
	})

	t.Run("should fix the batch at start", func(t *testing.T) {
		f := newFixture(t, 2)
		room := f.started(t)
		f.source.Questions = nil
		require.Equal(t, 2, room.Info().TotalQuestions)
	})
}

func TestRoom_TimeoutAdvancesOnce(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 2)
	room := f.started(t)

	_, err := room.SubmitAnswer(hostConn, 0, 0)
	req.NoError(err)
	req.False(room.AllAnswered())

	f.clock.Advance(16 * time.Second)
	req.Equal(1, gametest.Count[game.QuestionClosed](f.events))

	q, open := room.CurrentQuestion()
	req.True(open)
	req.Equal(2, q.Number)

	// A late trigger for the closed question is ignored.
	req.False(room.Advance(0))
	req.Equal(1, gametest.Count[game.QuestionClosed](f.events))

	guest, _ := room.Player(guestConn)
	req.Empty(guest.Answers)

	f.clock.Advance(16 * time.Second)
	req.Equal(game.StateFinished, room.State())
	req.Equal(1, gametest.Count[game.GameFinished](f.events))
	guest, _ = room.Player(guestConn)
	req.Empty(guest.Answers)
}

func TestRoom_AllAnsweredBeatsTimer(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 2)
	room := f.started(t)

	_, err := room.SubmitAnswer(hostConn, 0, 0)
	req.NoError(err)
	_, err = room.SubmitAnswer(guestConn, 0, 0)
	req.NoError(err)
	req.True(room.AllAnswered())

	f.clock.Advance(3 * time.Second)
	req.Equal(1, gametest.Count[game.QuestionClosed](f.events))

	// The first question timer is gone; only the second question's remains.
	f.clock.Advance(13 * time.Second)
	req.Equal(1, gametest.Count[game.QuestionClosed](f.events))
	q, _ := room.CurrentQuestion()
	req.Equal(2, q.Number)
}

func TestRoom_AnswerSkippedQuestion(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 3)
	room := f.started(t)

	_, err := room.SubmitAnswer(hostConn, 0, 0)
	req.NoError(err)
	f.clock.Advance(16 * time.Second)

	// The guest skipped question one and can still answer question two.
	_, err = room.SubmitAnswer(guestConn, 0, 0)
	req.NoError(err)
	_, err = room.SubmitAnswer(hostConn, 0, 0)
	req.NoError(err)
	req.True(room.AllAnswered())
}

func TestRoom_DisconnectCompletesQuestion(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 2)
	room := f.started(t)

	_, err := room.SubmitAnswer(hostConn, 0, 0)
	req.NoError(err)

	_, d, err := f.reg.Leave(guestConn)
	req.NoError(err)
	req.False(d.Evict)
	req.True(room.AllAnswered())

	f.clock.Advance(3 * time.Second)
	q, open := room.CurrentQuestion()
	req.True(open)
	req.Equal(2, q.Number)
}

func TestRoom_Leaderboard(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 2)
	room, _, err := f.reg.Create(hostConn, "Alice", "🦊", game.Settings{})
	req.NoError(err)
	_, _, err = f.reg.Join(room.Code(), guestConn, "Bob", "🐼")
	req.NoError(err)
	_, _, err = f.reg.Join(room.Code(), thirdConn, "Carol", "🐸")
	req.NoError(err)

	_, err = room.Start(context.Background(), hostConn)
	req.NoError(err)
	f.clock.Advance(2 * time.Second)

	// Everyone has zero points; Alice answered, so she ranks below the others.
	_, err = room.SubmitAnswer(hostConn, 1, 0)
	req.NoError(err)

	board := room.Leaderboard()
	req.Equal([]string{guestConn, thirdConn, hostConn}, ids(board))
	req.Equal(1, board[2].TotalAnswers)
	req.Zero(board[2].CorrectAnswers)

	_, err = room.SubmitAnswer(thirdConn, 0, 0)
	req.NoError(err)
	board = room.Leaderboard()
	req.Equal([]string{thirdConn, guestConn, hostConn}, ids(board))

	// Stable across calls.
	req.Equal(board, room.Leaderboard())
}

func ids(board []game.Standing) []string {
	out := make([]string, 0, len(board))
	for _, s := range board {
		out = append(out, s.ID)
	}
	return out
}

func TestRoom_FinalLeaderboardIsFrozen(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 1)
	room := f.started(t)

	_, err := room.SubmitAnswer(hostConn, 0, 0)
	req.NoError(err)
	f.clock.Advance(game.DefaultQuestionDuration + time.Second)
	req.Equal(game.StateFinished, room.State())

	results, ok := room.Results()
	req.True(ok)

	_, err = room.RemovePlayer(guestConn)
	req.NoError(err)

	board := room.Leaderboard()
	req.Equal(results.Leaderboard, board)
	req.True(board[1].Connected, "standings keep the state they had when the game ended")
	req.Equal(results.Leaderboard, room.Info().Leaderboard)
}

func TestRoom_Reconnect(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 2)
	room := f.started(t)

	res, err := room.SubmitAnswer(guestConn, 0, 0)
	req.NoError(err)
	_, _, err = f.reg.Leave(guestConn)
	req.NoError(err)

	_, rj, err := f.reg.Reconnect(room.Code(), guestConn, "conn-b2")
	req.NoError(err)
	req.Equal(guestConn, rj.Player.ID)
	req.Equal(res.Score, rj.Player.Score)
	req.True(rj.Player.Connected)
	req.NotNil(rj.Question)
	req.True(rj.Answered)
	req.Empty(rj.Replaced)

	got, ok := f.reg.RoomFor("conn-b2")
	req.True(ok)
	req.Same(room, got)

	_, err = room.SubmitAnswer("conn-b2", 1, 0)
	req.ErrorIs(err, game.ErrDuplicateAnswer)

	t.Run("should detach a still bound session", func(t *testing.T) {
		_, rj, err := f.reg.Reconnect(room.Code(), guestConn, "conn-b3")
		require.NoError(t, err)
		require.Equal(t, "conn-b2", rj.Replaced)
		_, ok := f.reg.RoomFor("conn-b2")
		require.False(t, ok)
	})

	t.Run("should reject unknown players", func(t *testing.T) {
		_, _, err := f.reg.Reconnect(room.Code(), "ghost", "conn-x")
		require.ErrorIs(t, err, game.ErrPlayerNotFound)
	})
}

func TestRoom_StatsFailureDoesNotBlockFinish(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 1)
	f.stats.Err = errors.New("disk full")
	room := f.started(t)

	_, err := room.SubmitAnswer(hostConn, 0, 0)
	req.NoError(err)
	_, err = room.SubmitAnswer(guestConn, 0, 0)
	req.NoError(err)
	f.clock.Advance(3 * time.Second)

	req.Equal(game.StateFinished, room.State())
	req.Equal(1, gametest.Count[game.GameFinished](f.events))
	req.Eventually(func() bool { return len(f.stats.Results()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestRoom_Chat(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 1, func(o *game.Options) { o.ChatHistory = 3 })
	room := f.twoPlayerRoom(t)

	for i := range 5 {
		msg, audience, err := room.PostChat(guestConn, string(rune('a'+i)))
		req.NoError(err)
		req.Equal("Bob", msg.PlayerName)
		req.NotEmpty(msg.ID)
		req.ElementsMatch([]string{hostConn, guestConn}, audience)
	}
	history := room.ChatHistory()
	req.Len(history, 3)
	req.Equal("c", history[0].Message)
	req.Equal("e", history[2].Message)

	_, _, err := room.PostChat("stranger", "hi")
	req.ErrorIs(err, game.ErrPlayerNotFound)

	t.Run("should refuse when chat is disabled", func(t *testing.T) {
		f := newFixture(t, 1, func(o *game.Options) { o.Chat = false })
		room := f.twoPlayerRoom(t)
		_, _, err := room.PostChat(hostConn, "hi")
		require.ErrorIs(t, err, game.ErrChatDisabled)
	})
}

func TestRoom_CloseStopsTimers(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, 2)
	room := f.started(t)

	room.Close()
	req.True(room.Closed())
	f.clock.Advance(time.Minute)
	req.Zero(gametest.Count[game.QuestionClosed](f.events))
	req.False(room.Advance(0))
}
