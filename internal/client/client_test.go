package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/server"
	"github.com/spigell/hh-interviewer/internal/session"
)

type scriptedGenerator struct {
	calls int
}

func (g *scriptedGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	g.calls++
	if strings.Contains(prompt, "The interview has concluded") {
		return "great job", nil
	}
	return fmt.Sprintf("question %d", g.calls), nil
}

func (g *scriptedGenerator) Model() string { return "scripted" }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	orchestrator, err := interview.New(interview.Deps{
		Store:     session.NewStore(0),
		Generator: &scriptedGenerator{},
		Logger:    zap.NewNop(),
	}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	srv, err := server.New(orchestrator, zap.NewNop(), server.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func TestClientRunsInterview(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL+"/", zap.NewNop())
	ctx := context.Background()

	reply, err := c.Start(ctx, "s1", "Backend Engineer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.AIResponse != interview.OpeningQuestion || len(reply.ChatHistory) != 1 {
		t.Fatalf("unexpected opening reply: %+v", reply)
	}

	reply, err = c.Answer(ctx, "s1", "Backend Engineer", "I build APIs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.AIResponse != "question 1" {
		t.Fatalf("unexpected reply: %q", reply.AIResponse)
	}

	reply, err = c.Answer(ctx, "s1", "Backend Engineer", "End Interview")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.AIResponse != "great job" || len(reply.ChatHistory) != 5 {
		t.Fatalf("unexpected final reply: %+v", reply)
	}

	last := reply.ChatHistory[len(reply.ChatHistory)-1]
	if last.Role != interview.LabelAI {
		t.Fatalf("expected feedback from AI, got %+v", last)
	}
}

func TestClientReturnsAPIError(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL, zap.NewNop())

	_, err := c.Start(context.Background(), "s1", "")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected api error, got %v", err)
	}

	if apiErr.StatusCode != http.StatusBadRequest || !strings.Contains(apiErr.Message, "role title is required") {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestClientRejectsEmptyReply(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ai_response": "", "chat_history": []}`))
	}))
	defer ts.Close()

	if _, err := New(ts.URL, nil).Start(context.Background(), "s1", "SRE"); err == nil {
		t.Fatal("expected error for empty reply")
	}
}
