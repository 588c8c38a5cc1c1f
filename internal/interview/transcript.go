package interview

import (
	"fmt"
	"strings"

	"github.com/spigell/hh-interviewer/internal/session"
)

// Presentation labels used by clients.
const (
	LabelUser = "User"
	LabelAI   = "AI"
)

// Message is a turn as shown to clients.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Label maps a speaker to its presentation label.
func Label(s session.Speaker) string {
	if s == session.Candidate {
		return LabelUser
	}
	return LabelAI
}

// SpeakerFromLabel is the inverse of Label.
func SpeakerFromLabel(label string) (session.Speaker, error) {
	switch label {
	case LabelUser:
		return session.Candidate, nil
	case LabelAI:
		return session.Interviewer, nil
	default:
		return 0, fmt.Errorf("unknown role label %q", label)
	}
}

// Present converts a conversation to client messages, keeping text verbatim.
func Present(turns []session.Turn) []Message {
	out := make([]Message, 0, len(turns))
	for _, turn := range turns {
		out = append(out, Message{Role: Label(turn.Speaker), Text: turn.Text})
	}
	return out
}

// FormatTranscript renders the conversation one speaker-labeled line per turn
// for embedding into prompts.
func FormatTranscript(turns []session.Turn) string {
	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(turn.Speaker.String())
		b.WriteString(": ")
		b.WriteString(turn.Text)
	}
	return b.String()
}
