package game

import "errors"

// Kind classifies a game error so the transport layer can decide how to report it.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindInvalidState
	KindConflict
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	default:
		return "internal"
	}
}

// Error is a recoverable, connection-scoped failure. Room state is never
// modified by an operation that returns one.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrRoomNotFound       = &Error{KindNotFound, "Game not found"}
	ErrPlayerNotFound     = &Error{KindNotFound, "Player not found in game"}
	ErrNotInGame          = &Error{KindNotFound, "Not in a game"}
	ErrNotWaiting         = &Error{KindInvalidState, "Game already started"}
	ErrNotPlaying         = &Error{KindInvalidState, "Game is not in progress"}
	ErrNotEnoughPlayers   = &Error{KindInvalidState, "Not enough players to start"}
	ErrQuestionNotOpen    = &Error{KindInvalidState, "No question is open"}
	ErrNoQuestions        = &Error{KindInvalidState, "No questions available for these settings"}
	ErrRoomFull           = &Error{KindConflict, "Game is full"}
	ErrDuplicateAnswer    = &Error{KindConflict, "Answer already submitted"}
	ErrAlreadyInGame      = &Error{KindConflict, "Already in a game"}
	ErrNotHost            = &Error{KindAuthorization, "Only the host can start the game"}
	ErrInvalidToken       = &Error{KindAuthorization, "Invalid reconnect token"}
	ErrInvalidOption      = &Error{KindValidation, "Invalid answer option"}
	ErrSpectatorsDisabled = &Error{KindInvalidState, "Spectator mode is disabled"}
	ErrChatDisabled       = &Error{KindInvalidState, "Chat is disabled"}
	ErrCodeExhausted      = errors.New("could not allocate a unique game code")
)

// KindOf reports the Kind of err, or KindInternal when err is not a game error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a game error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
