// Package analyst turns the sample security log into a threat status by
// asking a generative-AI model for a verdict. It never fails: any problem
// with the model call yields the fixed fallback status.
package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kijani/sentinel/internal/threat"
)

// Generator produces text for a prompt, in JSON response mode.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrNoCredential is reported when no API key was configured.
var ErrNoCredential = errors.New("no AI API credential configured")

// Outcome labels how a status was produced.
type Outcome string

const (
	OutcomeAI       Outcome = "ai"
	OutcomeFallback Outcome = "fallback"
)

// Analyst produces threat statuses. A nil generator is allowed and always
// yields the fallback.
type Analyst struct {
	gen    Generator
	logger *slog.Logger
}

// New creates an analyst.
func New(gen Generator, logger *slog.Logger) *Analyst {
	return &Analyst{gen: gen, logger: logger}
}

// AnalyseThreat asks the model for a verdict on the sample log. The trigger
// is recorded but does not change what is analysed.
func (a *Analyst) AnalyseThreat(ctx context.Context, trigger threat.Trigger) threat.Status {
	status, _ := a.Analyse(ctx, trigger)
	return status
}

// Analyse is AnalyseThreat plus the outcome label.
func (a *Analyst) Analyse(ctx context.Context, trigger threat.Trigger) (threat.Status, Outcome) {
	ctx, span := otel.Tracer("github.com/kijani/sentinel/internal/analyst").Start(ctx, "analyst.AnalyseThreat",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("kijani.device", trigger.Device),
			attribute.String("kijani.log_trigger", trigger.LogTrigger),
		),
	)
	defer span.End()

	a.logger.Debug("analysing threat", "device", trigger.Device, "log_trigger", trigger.LogTrigger)

	status, err := a.verdict(ctx)
	outcome := OutcomeAI
	if err != nil {
		a.logger.Error("AI analysis failed, using fallback", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback")
		status = threat.Fallback()
		outcome = OutcomeFallback
	}

	span.SetAttributes(
		attribute.String("kijani.outcome", string(outcome)),
		attribute.String("kijani.action", string(status.Action)),
		attribute.Int("kijani.score", status.Score),
	)
	return status, outcome
}

func (a *Analyst) verdict(ctx context.Context) (threat.Status, error) {
	if a.gen == nil {
		return threat.Status{}, ErrNoCredential
	}

	prompt, err := BuildPrompt(threat.SampleLog())
	if err != nil {
		return threat.Status{}, err
	}

	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return threat.Status{}, fmt.Errorf("generating verdict: %w", err)
	}

	return ParseVerdict(text)
}

// modelVerdict holds only the keys the model is asked for; anything else it
// returns, including a color, is dropped.
type modelVerdict struct {
	Score   json.Number `json:"score"`
	Message string      `json:"message"`
	Action  string      `json:"action"`
}

// ParseVerdict decodes model output into a status and applies the color rule.
func ParseVerdict(text string) (threat.Status, error) {
	text = stripFence(strings.TrimSpace(text))
	if text == "" {
		return threat.Status{}, errors.New("empty model response")
	}

	var v modelVerdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return threat.Status{}, fmt.Errorf("decoding model response: %w", err)
	}
	score, err := parseScore(v.Score)
	if err != nil {
		return threat.Status{}, err
	}

	status := threat.Status{
		Score:   score,
		Message: v.Message,
		Action:  threat.Action(v.Action),
	}
	if err := status.Validate(); err != nil {
		return threat.Status{}, fmt.Errorf("model response: %w", err)
	}
	status.StatusColor = threat.ColorFor(status.Action)
	return status, nil
}

// parseScore accepts any integral JSON number in 0..100, so 87 and 87.0
// are the same score.
func parseScore(n json.Number) (int, error) {
	if n == "" {
		return 0, errors.New("model response has no score")
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("model response score %q: %w", n, err)
	}
	if math.Trunc(f) != f {
		return 0, fmt.Errorf("model response score %s is not an integer", n)
	}
	if f < 0 || f > 100 {
		return 0, fmt.Errorf("model response score %s out of range 0-100", n)
	}
	return int(f), nil
}

// stripFence removes a surrounding ```json ... ``` block.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
