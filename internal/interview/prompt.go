package interview

import (
	_ "embed"
	"strings"

	"github.com/spigell/hh-interviewer/internal/session"
)

// OpeningQuestion is asked without consulting the generator.
const OpeningQuestion = "Tell me about yourself."

const (
	placeholderRole       = "{{ROLE_TITLE}}"
	placeholderTranscript = "{{TRANSCRIPT}}"
)

var (
	//go:embed prompts/question.md
	questionTemplate string

	//go:embed prompts/feedback.md
	feedbackTemplate string
)

const (
	fallbackQuestionTemplate = "You are an AI job interviewer for a \"{{ROLE_TITLE}}\" role. Ask exactly one clear, concise next interview question and no feedback.\n\nConversation history:\n{{TRANSCRIPT}}\n\nWhat is your next question?"
	fallbackFeedbackTemplate = "You are an AI job interviewer for a \"{{ROLE_TITLE}}\" role. The interview has concluded. Give a concise summary of the candidate's performance and actionable advice for improvement.\n\nConversation history:\n{{TRANSCRIPT}}"
)

// BuildPrompt renders the prompt for the given phase. It returns an empty
// string for NotStarted, which never reaches the generator.
func BuildPrompt(phase Phase, roleTitle string, turns []session.Turn) string {
	var template string
	switch phase {
	case InProgress:
		template = questionTemplate
		if strings.TrimSpace(template) == "" {
			template = fallbackQuestionTemplate
		}
	case Concluding:
		template = feedbackTemplate
		if strings.TrimSpace(template) == "" {
			template = fallbackFeedbackTemplate
		}
	default:
		return ""
	}

	// Single pass: placeholders typed by the candidate are left as is.
	return strings.NewReplacer(
		placeholderRole, roleTitle,
		placeholderTranscript, FormatTranscript(turns),
	).Replace(template)
}
