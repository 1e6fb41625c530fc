package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-casebrief-be/internal/metrics"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/pkg/llm"
	"ai-casebrief-be/pkg/rag/tools"
	"ai-casebrief-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Dispatcher runs one bounded reasoning session: the model alternates between
// tool requests and a final answer, and every tool request costs one turn.
type Dispatcher struct {
	model  llm.LLMProvider
	tools  tools.Handlers
	cfg    Config
	logger logger.ILogger
	audit  logger.ILogger
	tracer trace.Tracer
	now    func() time.Time
}

func NewDispatcher(model llm.LLMProvider, handlers tools.Handlers, cfg Config, log logger.ILogger, audit logger.ILogger) (*Dispatcher, error) {
	if err := handlers.Validate(); err != nil {
		return nil, err
	}
	if audit == nil {
		audit = log
	}
	return &Dispatcher{
		model:  model,
		tools:  handlers,
		cfg:    cfg.withDefaults(),
		logger: log,
		audit:  audit,
		tracer: otel.Tracer("ai-casebrief-be/dispatch"),
		now:    time.Now,
	}, nil
}

type session struct {
	in         Input
	state      State
	transcript []store.TranscriptEntry
	report     *Report
	steps      int
}

// Run always returns a report. The error is non-nil for TurnBudgetExceeded
// and fatal outcomes; tool failures never end a session.
func (d *Dispatcher) Run(ctx context.Context, in Input) (*Report, error) {
	ctx, span := d.tracer.Start(ctx, "dispatch.run", trace.WithAttributes(attribute.String("case_id", in.CaseID)))
	defer span.End()

	s := &session{in: in, state: StateAwaitingModel, report: &Report{}}
	s.transcript = append(s.transcript, store.TranscriptEntry{Role: store.RoleSystem, Content: systemPrompt()})
	prior := in.Prior
	if len(prior) > d.cfg.PriorLimit {
		prior = prior[len(prior)-d.cfg.PriorLimit:]
	}
	for _, e := range prior {
		if e.Role != store.RoleSystem {
			s.transcript = append(s.transcript, e)
		}
	}
	s.transcript = append(s.transcript, store.TranscriptEntry{Role: store.RoleUser, Content: initialMessage(in)})

	report, err := d.loop(ctx, s)
	metrics.DispatchOutcomes.WithLabelValues(string(report.Outcome)).Inc()
	metrics.DispatchToolCalls.Observe(float64(report.ToolCalls))

	span.SetAttributes(
		attribute.String("outcome", string(report.Outcome)),
		attribute.Int("tool_calls", report.ToolCalls),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}

	d.logger.Info("DISPATCH", "Reasoning session ended", map[string]interface{}{
		"case_id":     in.CaseID,
		"outcome":     report.Outcome,
		"model_turns": report.ModelTurns,
		"tool_calls":  report.ToolCalls,
	})
	return report, err
}

func (d *Dispatcher) loop(ctx context.Context, s *session) (*Report, error) {
	for {
		s.state = StateAwaitingModel
		raw, err := d.modelTurn(ctx, s)
		if err != nil {
			if fatal := d.classifyModelError(ctx, err); fatal != nil {
				return d.terminate(s, OutcomeFatal), fatal
			}
			d.logger.Warn("DISPATCH", "Model turn failed, retrying", map[string]interface{}{
				"case_id": s.in.CaseID,
				"error":   err.Error(),
			})
			if !d.spendTurn(s) {
				return d.terminate(s, OutcomeTurnBudgetExceeded), apperr.TurnBudget("dispatch.run", s.steps)
			}
			continue
		}

		s.transcript = append(s.transcript, store.TranscriptEntry{Role: store.RoleAssistant, Content: raw})

		reply, parseErr := parseReply(raw)
		if parseErr == nil && reply.Final != nil {
			report := d.terminate(s, OutcomeSuccess)
			report.Result = normalizeResult(reply.Final)
			return report, nil
		}

		if !d.spendTurn(s) {
			return d.terminate(s, OutcomeTurnBudgetExceeded), apperr.TurnBudget("dispatch.run", s.steps)
		}

		if parseErr != nil {
			s.transcript = append(s.transcript, store.TranscriptEntry{
				Role:    store.RoleTool,
				Tool:    "protocol",
				Content: errorObservation(parseErr),
			})
			continue
		}

		s.state = StateExecutingTool
		d.executeTool(ctx, s, reply)
	}
}

// spendTurn consumes one unit of the turn budget, reporting false when none is left.
func (d *Dispatcher) spendTurn(s *session) bool {
	if s.steps >= d.cfg.MaxTurns {
		return false
	}
	s.steps++
	return true
}

func (d *Dispatcher) terminate(s *session, outcome Outcome) *Report {
	s.state = StateTerminated
	s.report.Outcome = outcome
	s.report.Transcript = s.transcript
	return s.report
}

func (d *Dispatcher) classifyModelError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, llm.ErrUnauthorized):
		return apperr.Fatal("dispatch.model", fmt.Errorf("%w: %v", apperr.ErrBackendUnauthorized, err))
	case ctx.Err() != nil:
		return apperr.Fatal("dispatch.model", ctx.Err())
	}
	return nil
}

func (d *Dispatcher) modelTurn(ctx context.Context, s *session) (string, error) {
	ctx, span := d.tracer.Start(ctx, "dispatch.model_turn")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, d.cfg.ModelTimeout)
	defer cancel()

	s.report.ModelTurns++
	reply, err := d.model.Chat(ctx, toMessages(s.transcript), llm.WithJSONMode(), llm.WithTemperature(0.1))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return reply, err
}

func (d *Dispatcher) executeTool(ctx context.Context, s *session, reply *modelReply) {
	ctx, span := d.tracer.Start(ctx, "dispatch.tool", trace.WithAttributes(attribute.String("tool", reply.Tool)))
	defer span.End()

	started := d.now()
	inv := store.ToolInvocation{
		SessionID: s.in.CaseID,
		Turn:      s.steps,
		Tool:      reply.Tool,
		Input:     decodeInput(reply.Input),
		StartedAt: started,
	}

	content, err := d.runTool(ctx, reply)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		inv.Failed = true
		content = errorObservation(err)
	}
	inv.Observation = content
	inv.Duration = d.now().Sub(started)

	s.report.ToolCalls++
	s.report.Invocations = append(s.report.Invocations, inv)
	s.transcript = append(s.transcript, store.TranscriptEntry{Role: store.RoleTool, Tool: reply.Tool, Content: content})

	d.audit.Info("DISPATCH", "Tool invocation", map[string]interface{}{
		"session_id":  inv.SessionID,
		"turn":        inv.Turn,
		"tool":        inv.Tool,
		"input":       inv.Input,
		"failed":      inv.Failed,
		"duration_ms": inv.Duration.Milliseconds(),
		"observation": inv.Observation,
	})
}

func (d *Dispatcher) runTool(ctx context.Context, reply *modelReply) (string, error) {
	call, err := tools.Decode(reply.Tool, reply.Input)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.ToolTimeout)
	defer cancel()

	obs, err := d.tools.Execute(ctx, call)
	if err != nil {
		return "", err
	}
	return obs.Content, nil
}

func toMessages(transcript []store.TranscriptEntry) []llm.Message {
	msgs := make([]llm.Message, len(transcript))
	for i, e := range transcript {
		switch e.Role {
		case store.RoleTool:
			msgs[i] = llm.Message{Role: store.RoleUser, Content: observationMessage(e.Tool, e.Content)}
		default:
			msgs[i] = llm.Message{Role: e.Role, Content: e.Content}
		}
	}
	return msgs
}

func decodeInput(raw json.RawMessage) map[string]interface{} {
	out := map[string]interface{}{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}
