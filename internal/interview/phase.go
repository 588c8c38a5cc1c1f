package interview

import (
	"strings"

	"github.com/spigell/hh-interviewer/internal/session"
)

// Phase is the stage of an interview. It is always derived from the
// conversation and never stored.
type Phase int

const (
	NotStarted Phase = iota
	InProgress
	Concluding
)

const (
	// MaxAnswers is the number of candidate answers after which the interview concludes.
	MaxAnswers = 6
	// EndKeyword in an answer (any case) concludes the interview immediately.
	EndKeyword = "end interview"
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Concluding:
		return "concluding"
	default:
		return "unknown"
	}
}

// DecidePhase returns the phase for a conversation that already includes the
// answer supplied with the current call, if any. answer is nil when the call
// carried no answer.
func DecidePhase(turns []session.Turn, answer *string) Phase {
	if len(turns) == 0 && answer == nil {
		return NotStarted
	}

	if AnsweredCount(turns) >= MaxAnswers {
		return Concluding
	}

	if answer != nil && strings.Contains(strings.ToLower(*answer), EndKeyword) {
		return Concluding
	}

	return InProgress
}

// AnsweredCount returns the number of candidate turns.
func AnsweredCount(turns []session.Turn) int {
	count := 0
	for _, turn := range turns {
		if turn.Speaker == session.Candidate {
			count++
		}
	}
	return count
}
