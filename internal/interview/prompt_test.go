package interview

import (
	"strings"
	"testing"

	"github.com/spigell/hh-interviewer/internal/session"
)

func TestBuildPromptQuestion(t *testing.T) {
	turns := withAnswer(conversation(1), "I like distributed systems.")

	prompt := BuildPrompt(InProgress, "Backend Engineer", turns)

	if !strings.Contains(prompt, `"Backend Engineer" role`) {
		t.Fatalf("expected role title in prompt: %s", prompt)
	}

	expected := "Interviewer: Tell me about yourself.\nCandidate: A1\nInterviewer: Q1\nCandidate: I like distributed systems."
	if !strings.Contains(prompt, expected) {
		t.Fatalf("expected ordered transcript in prompt: %s", prompt)
	}

	if !strings.Contains(prompt, "exactly one new question") {
		t.Fatalf("expected single-question instruction: %s", prompt)
	}

	if !strings.Contains(prompt, "Do not provide feedback") {
		t.Fatalf("expected no-feedback instruction: %s", prompt)
	}

	if strings.Contains(prompt, placeholderRole) || strings.Contains(prompt, placeholderTranscript) {
		t.Fatalf("expected placeholders to be replaced: %s", prompt)
	}
}

func TestBuildPromptFeedback(t *testing.T) {
	turns := withAnswer(conversation(5), "A6")

	prompt := BuildPrompt(Concluding, "Backend Engineer", turns)

	if !strings.Contains(prompt, "The interview has concluded") {
		t.Fatalf("expected feedback prompt: %s", prompt)
	}

	if !strings.Contains(prompt, "summary") || !strings.Contains(prompt, "actionable advice") {
		t.Fatalf("expected summary and advice instructions: %s", prompt)
	}

	if !strings.Contains(prompt, "Candidate: A6") {
		t.Fatalf("expected latest answer in transcript: %s", prompt)
	}
}

func TestBuildPromptKeepsCandidatePlaceholders(t *testing.T) {
	turns := []session.Turn{
		{Speaker: session.Interviewer, Text: OpeningQuestion},
		{Speaker: session.Candidate, Text: "my title is {{ROLE_TITLE}}"},
	}

	prompt := BuildPrompt(InProgress, "SRE", turns)

	if !strings.Contains(prompt, "Candidate: my title is {{ROLE_TITLE}}") {
		t.Fatalf("expected candidate text verbatim: %s", prompt)
	}
}

func TestBuildPromptNotStarted(t *testing.T) {
	if prompt := BuildPrompt(NotStarted, "SRE", nil); prompt != "" {
		t.Fatalf("expected no prompt for opening phase, got %q", prompt)
	}
}

func TestBuildPromptFallbackTemplates(t *testing.T) {
	origQuestion, origFeedback := questionTemplate, feedbackTemplate
	questionTemplate, feedbackTemplate = " ", ""
	defer func() { questionTemplate, feedbackTemplate = origQuestion, origFeedback }()

	turns := withAnswer(conversation(0), "A1")

	question := BuildPrompt(InProgress, "SRE", turns)
	if !strings.Contains(question, `"SRE" role`) || !strings.Contains(question, "Candidate: A1") {
		t.Fatalf("unexpected fallback question prompt: %s", question)
	}

	feedback := BuildPrompt(Concluding, "SRE", turns)
	if !strings.Contains(feedback, "actionable advice") || !strings.Contains(feedback, "Candidate: A1") {
		t.Fatalf("unexpected fallback feedback prompt: %s", feedback)
	}
}
