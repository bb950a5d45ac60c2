package game

import "time"

// AnswerRecord is one scored answer. Records are append-only.
type AnswerRecord struct {
	QuestionID    uint          `json:"questionId"`
	QuestionIndex int           `json:"questionIndex"`
	Option        int           `json:"answerIndex"`
	Correct       bool          `json:"isCorrect"`
	Elapsed       time.Duration `json:"elapsed"`
	ClientElapsed time.Duration `json:"clientElapsed"`
	Points        int           `json:"pointsEarned"`
}

// Player is a participant in one room. ID is the connection id at join time
// and stays fixed across reconnects.
type Player struct {
	ID        string
	Name      string
	Avatar    string
	Score     int
	Answers   []AnswerRecord
	Connected bool
	JoinedAt  time.Time
}

// answered reports whether the player already has a record for question index.
func (p *Player) answered(index int) bool {
	n := len(p.Answers)
	return n > 0 && p.Answers[n-1].QuestionIndex == index
}

func (p *Player) correctAnswers() int {
	n := 0
	for _, a := range p.Answers {
		if a.Correct {
			n++
		}
	}
	return n
}

func (p *Player) fastestCorrect() *time.Duration {
	var best *time.Duration
	for _, a := range p.Answers {
		if !a.Correct {
			continue
		}
		if best == nil || a.Elapsed < *best {
			e := a.Elapsed
			best = &e
		}
	}
	return best
}

func (p *Player) view() PlayerView {
	return PlayerView{
		ID:        p.ID,
		Name:      p.Name,
		Avatar:    p.Avatar,
		Score:     p.Score,
		Connected: p.Connected,
	}
}

// PlayerView is the public projection of a Player.
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}
