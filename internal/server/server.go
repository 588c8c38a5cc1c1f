package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/interview"
)

const (
	InterviewPath = "/api/interview"
	HealthPath    = "/healthz"

	defaultGenerationTimeout = 60 * time.Second
	defaultMaxBodyBytes      = 64 << 10
	generationFailedMessage  = "failed to get AI response, check the generation backend credentials and connectivity"
)

// Advancer runs one interview step.
type Advancer interface {
	Advance(ctx context.Context, req interview.Request) (*interview.Result, error)
}

// Options tunes the HTTP transport.
type Options struct {
	GenerationTimeout time.Duration
	AllowedOrigin     string
	// MaxBodyBytes caps the request body. Answers are replayed into every
	// later prompt of the session.
	MaxBodyBytes int64
}

type Server struct {
	advancer Advancer
	logger   *zap.Logger
	timeout  time.Duration
	origin   string
	maxBody  int64
}

type interviewResponse struct {
	AIResponse  string              `json:"ai_response"`
	ChatHistory []interview.Message `json:"chat_history"`
}

type camelCaseInterviewResponse struct {
	AIResponse  string              `json:"aiResponse"`
	ChatHistory []interview.Message `json:"chatHistory"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(advancer Advancer, logger *zap.Logger, opts Options) (*Server, error) {
	if advancer == nil {
		return nil, errors.New("interview advancer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := opts.GenerationTimeout
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}

	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	return &Server{
		advancer: advancer,
		logger:   logger,
		timeout:  timeout,
		origin:   origin,
		maxBody:  maxBody,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(InterviewPath, s.handleInterview)
	mux.HandleFunc(HealthPath, s.handleHealth)
	return s.logMiddleware(s.corsMiddleware(mux))
}

func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	req, err := decodeInterviewRequest(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := s.advancer.Advance(ctx, interview.Request{
		SessionID: req.SessionID,
		RoleTitle: req.RoleTitle,
		Answer:    req.Answer,
	})
	if err != nil {
		s.writeError(w, req, err)
		return
	}

	if req.camelCase {
		writeJSON(w, http.StatusOK, camelCaseInterviewResponse{
			AIResponse:  res.AIText,
			ChatHistory: res.Messages(),
		})
		return
	}

	writeJSON(w, http.StatusOK, interviewResponse{
		AIResponse:  res.AIText,
		ChatHistory: res.Messages(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, req *interviewRequest, err error) {
	switch {
	case errors.Is(err, interview.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case interview.IsGenerationFailure(err):
		s.logger.Error("calling generation backend",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: generationFailedMessage})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.logger.Warn("interview step expired before generation",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "request timed out waiting for the session"})
	default:
		s.logger.Error("advancing interview",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
