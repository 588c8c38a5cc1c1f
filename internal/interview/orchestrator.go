package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/session"
	"github.com/spigell/hh-interviewer/internal/utils"
)

const (
	instrumentationName = "github.com/spigell/hh-interviewer/internal/interview"
	defaultMaxLogLength = 200
)

var errEmptyCompletion = errors.New("generator returned empty text")

// Request is one step of an interview. Answer is nil when the caller sent no
// new answer.
type Request struct {
	SessionID string
	RoleTitle string
	Answer    *string
}

// Result carries the interviewer text produced by the step and the whole
// conversation after it.
type Result struct {
	AIText       string
	Phase        Phase
	Conversation []session.Turn
}

// Messages returns the conversation re-labeled for clients.
func (r *Result) Messages() []Message {
	return Present(r.Conversation)
}

// Deps aggregates the collaborators of the orchestrator. Tracer and Meter
// default to the global OpenTelemetry providers.
type Deps struct {
	Store     *session.Store
	Generator ai.Generator
	Logger    *zap.Logger
	Tracer    trace.Tracer
	Meter     metric.Meter
}

// Orchestrator drives interviews stored in a session.Store.
type Orchestrator struct {
	store     *session.Store
	generator ai.Generator
	logger    *zap.Logger
	maxLogLen int

	tracer      trace.Tracer
	advances    metric.Int64Counter
	genDuration metric.Float64Histogram
}

func New(deps Deps, maxLogLength int) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("session store is required")
	}
	if deps.Generator == nil {
		return nil, errors.New("generator is required")
	}

	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	meter := deps.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	advances, err := meter.Int64Counter(
		"interview.advance.total",
		metric.WithDescription("Completed interview steps by phase"),
	)
	if err != nil {
		return nil, fmt.Errorf("create advance counter: %w", err)
	}

	genDuration, err := meter.Float64Histogram(
		"interview.generation.duration",
		metric.WithDescription("Text generation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create generation histogram: %w", err)
	}

	return &Orchestrator{
		store:       deps.Store,
		generator:   deps.Generator,
		logger:      logger.WithFields(deps.Logger),
		maxLogLen:   maxLogLength,
		tracer:      tracer,
		advances:    advances,
		genDuration: genDuration,
	}, nil
}

// Advance records the answer, if any, and produces the next interviewer turn:
// the canned opening question, a generated follow-up question or the
// generated feedback. The session is locked for the whole step, so requests
// for one session are processed one at a time. On failure the conversation
// is left unchanged.
func (o *Orchestrator) Advance(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.RoleTitle) == "" {
		return nil, fmt.Errorf("%w: role title is required", ErrInvalidRequest)
	}

	ctx, span := o.tracer.Start(ctx, "interview.advance", trace.WithAttributes(
		attribute.String("interview.session_id", req.SessionID),
		attribute.Bool("interview.has_answer", req.Answer != nil),
	))
	defer span.End()

	sess := o.acquire(req.SessionID)
	defer sess.Unlock()

	// The request may have expired while queued behind another step.
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request expired")
		return nil, fmt.Errorf("waiting for session %q: %w", req.SessionID, err)
	}

	o.store.Touch(sess)

	var staged []session.Turn
	if req.Answer != nil {
		staged = append(staged, session.Turn{Speaker: session.Candidate, Text: *req.Answer})
	}

	view := append(sess.Turns(), staged...)
	phase := DecidePhase(view, req.Answer)
	answered := AnsweredCount(view)

	log := logger.WithSessionFields(o.logger, req.SessionID, req.RoleTitle).With(
		zap.Stringer("phase", phase),
		zap.Int("answered", answered),
	)
	span.SetAttributes(
		attribute.String("interview.phase", phase.String()),
		attribute.Int("interview.answered", answered),
	)

	var text string
	if phase == NotStarted {
		text = OpeningQuestion
	} else {
		generated, err := o.generate(ctx, log, phase, BuildPrompt(phase, req.RoleTitle, view))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generation failed")
			log.Warn("generation failed", zap.Error(err))
			return nil, &GenerationError{Phase: phase, Err: err}
		}
		text = generated
	}

	sess.Append(append(staged, session.Turn{Speaker: session.Interviewer, Text: text})...)

	o.advances.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", phase.String())))
	log.Info("interview advanced", zap.Int("turns", sess.Len()))

	return &Result{
		AIText:       text,
		Phase:        phase,
		Conversation: sess.Turns(),
	}, nil
}

// acquire returns the locked session for id, retrying when the session was
// evicted between lookup and locking.
func (o *Orchestrator) acquire(id string) *session.Session {
	for {
		sess := o.store.GetOrCreate(id)
		sess.Lock()
		if !sess.Evicted() {
			return sess
		}
		sess.Unlock()
	}
}

func (o *Orchestrator) generate(ctx context.Context, log *zap.Logger, phase Phase, prompt string) (string, error) {
	ctx, span := o.tracer.Start(ctx, "interview.generate", trace.WithAttributes(
		attribute.String("ai.model", o.generator.Model()),
		attribute.Int("ai.prompt_length", utf8.RuneCountInString(prompt)),
	))
	defer span.End()

	log.Debug("generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(utils.SingleLine(prompt), o.maxLogLen)),
	)

	start := time.Now()
	text, err := o.generator.GenerateContent(ctx, prompt)
	o.genDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(
		attribute.String("phase", phase.String()),
		attribute.Bool("error", err != nil),
	))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate content")
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		span.SetStatus(codes.Error, "empty completion")
		return "", errEmptyCompletion
	}

	log.Debug("generate content response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(utils.SingleLine(text), o.maxLogLen)),
	)

	return text, nil
}
