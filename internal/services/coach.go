package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/dto"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/errs"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/models"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/wire"
	"github.com/mrcorrales01-hub/my-aura-sub003/pkg/helpers"
	"github.com/mrcorrales01-hub/my-aura-sub003/pkg/logger"
)

type vertexStreamer interface {
	StreamGenerate(ctx context.Context, req dto.VertexStreamRequest) (dto.VertexStream, error)
}

type toolRunner interface {
	Describe() []dto.VertexTool
	Execute(ctx context.Context, tctx ToolContext, name string, args map[string]any) (map[string]any, error)
}

type coachLogStore interface {
	SaveMessage(ctx context.Context, uid, sessionID string, msg models.CoachMessage) error
	ListMessages(ctx context.Context, uid, sessionID string, limit int) ([]models.CoachMessage, error)
}

// streamState tracks where one generation is in its lifecycle. Transitions
// only move forward, except the jump to stateAborted on cancellation,
// timeout, or upstream failure.
type streamState int

const (
	stateIdle streamState = iota
	stateRequesting
	stateStreaming
	stateToolExecuting
	stateFinalizing
	stateClosed
	stateAborted
)

func (s streamState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRequesting:
		return "requesting"
	case stateStreaming:
		return "streaming"
	case stateToolExecuting:
		return "tool_executing"
	case stateFinalizing:
		return "finalizing"
	case stateClosed:
		return "closed"
	case stateAborted:
		return "aborted"
	}
	return "unknown"
}

type coachService struct {
	vertex        vertexStreamer
	tools         toolRunner
	store         coachLogStore
	streamTimeout time.Duration
	historyLimit  int
	clockNow      func() time.Time
}

func NewCoachService(vertex vertexStreamer, tools toolRunner, store coachLogStore, streamTimeout time.Duration, historyLimit int) *coachService {
	if streamTimeout <= 0 {
		streamTimeout = 30 * time.Second
	}
	if historyLimit <= 0 {
		historyLimit = 12
	}
	return &coachService{
		vertex:        vertex,
		tools:         tools,
		store:         store,
		streamTimeout: streamTimeout,
		historyLimit:  historyLimit,
		clockNow:      time.Now,
	}
}

// Generate drives one coaching exchange: it streams the model's prose to sink
// as it arrives, runs at most one tool call, appends the serialized tool
// result as the final chunk, and logs the exchange best-effort. Admission has
// already happened in the handler layer; this method never touches the ledger.
//
// An aborted generation (caller cancel, timeout, upstream failure) closes the
// stream without a tool block and writes no conversation log entry.
func (s *coachService) Generate(ctx context.Context, uid string, req dto.CoachStreamRequest, sink func(chunk string) error) error {
	log := logger.FromContext(ctx)
	state := stateIdle

	lang := req.Lang
	if lang == "" {
		lang = "en"
	}

	msgs := trimHistory(req.Messages, s.historyLimit)
	if len(msgs) == 0 {
		return errs.NewValidationError("messages are required")
	}
	if msgs[len(msgs)-1].Role != "user" {
		return errs.NewValidationError("last message must be from the user")
	}

	contents, extraSystem := toVertexContents(msgs)

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	// One wall-clock budget covers the upstream call and the whole stream.
	genCtx, cancel := context.WithTimeout(ctx, s.streamTimeout)
	defer cancel()

	state = stateRequesting
	stream, err := s.vertex.StreamGenerate(genCtx, dto.VertexStreamRequest{
		System:          systemPrompt(lang, s.clockNow()) + extraSystem,
		Contents:        contents,
		Tools:           s.tools.Describe(),
		Temperature:     helpers.Ptr(float32(0.6)),
		MaxOutputTokens: helpers.Ptr(int32(1024)),
	})
	if err != nil {
		state = stateAborted
		return s.classifyUpstream(ctx, genCtx, err)
	}

	state = stateStreaming
	var prose strings.Builder
	var calls []dto.VertexToolCall
	for {
		chunk, recvErr := stream.Recv()
		if recvErr == io.EOF {
			break
		}
		if recvErr != nil {
			state = stateAborted
			log.Warn("generation aborted mid-stream", "state", state.String(), "error", recvErr)
			return s.classifyUpstream(ctx, genCtx, recvErr)
		}

		// Tool-call parts ride a separate logical channel: accumulated here,
		// never forwarded as text.
		calls = append(calls, chunk.ToolCalls...)

		if chunk.Text != "" {
			prose.WriteString(chunk.Text)
			if err := sink(chunk.Text); err != nil {
				state = stateAborted
				log.Warn("caller stopped consuming stream", "state", state.String(), "error", err)
				return err
			}
		}
	}

	fullText := prose.String()
	var toolLog *models.CoachMessage

	if len(calls) > 0 {
		state = stateToolExecuting
		if len(calls) > 1 {
			// Signals the system prompt may need tightening; never execute more
			// than the first.
			log.Warn("model proposed multiple tool calls, executing only the first", "count", len(calls))
		}

		call := calls[0]
		result, execErr := s.tools.Execute(ctx, ToolContext{Lang: lang, Messages: msgs}, call.Name, call.Args)
		if execErr != nil {
			// Tool failure degrades the reply to prose only.
			log.Warn("tool execution failed, continuing without tool block", "tool", call.Name, "error", execErr)
		} else {
			blockChunk, encErr := wire.EncodeToolBlock(wire.ToolBlock{Tool: call.Name, Data: result})
			if encErr != nil {
				log.Warn("tool result encoding failed, continuing without tool block", "tool", call.Name, "error", encErr)
			} else {
				if err := sink(blockChunk); err != nil {
					state = stateAborted
					log.Warn("caller stopped consuming stream", "state", state.String(), "error", err)
					return err
				}
				fullText += blockChunk
				toolLog = &models.CoachMessage{
					Role:       "tool",
					ToolName:   call.Name,
					ToolArgs:   call.Args,
					ToolResult: result,
				}
			}
		}
	}

	state = stateFinalizing
	s.logExchange(ctx, uid, sessionID, lang, msgs[len(msgs)-1], fullText, toolLog)

	state = stateClosed
	log.Info("generation completed", "state", state.String(), "session_id", sessionID, "tool_calls", len(calls))
	return nil
}

// logExchange persists the triggering user message and the final assistant
// text. Persistence is decoupled from delivery: the response already reached
// the caller, so failures are logged and swallowed, and the write is detached
// from request cancellation so a client hanging up right after the final
// chunk does not lose the exchange.
func (s *coachService) logExchange(ctx context.Context, uid, sessionID, lang string, userMsg dto.CoachMessage, assistantText string, toolLog *models.CoachMessage) {
	ctx = context.WithoutCancel(ctx)
	log := logger.FromContext(ctx)
	now := s.clockNow()

	save := func(msg models.CoachMessage) {
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = now
		}
		if err := s.store.SaveMessage(ctx, uid, sessionID, msg); err != nil {
			log.Error("failed to persist coach message", "session_id", sessionID, "role", msg.Role, "error", err)
		}
	}

	save(models.CoachMessage{Role: "user", Content: userMsg.Content, Lang: lang})
	if toolLog != nil {
		save(*toolLog)
	}
	if assistantText != "" {
		save(models.CoachMessage{Role: "assistant", Content: assistantText, Lang: lang})
	}
}

// History returns one session's logged messages in chronological order.
func (s *coachService) History(ctx context.Context, uid, sessionID string, limit int) ([]models.CoachMessage, error) {
	if sessionID == "" {
		return nil, errs.NewValidationError("sessionId is required")
	}
	return s.store.ListMessages(ctx, uid, sessionID, limit)
}

// classifyUpstream maps a stream failure to the error taxonomy. Caller
// cancellation is passed through untouched so the handler can tell an aborted
// client apart from a provider fault.
func (s *coachService) classifyUpstream(ctx, genCtx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(genCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return errs.NewUpstreamTimeoutError("generation exceeded time budget")
	}
	return errs.NewExternalServiceError("vertex", err.Error(), true)
}

// trimHistory keeps the most recent limit messages in their original order.
// Deterministic: oldest dropped first.
func trimHistory(msgs []dto.CoachMessage, limit int) []dto.CoachMessage {
	if len(msgs) <= limit {
		return msgs
	}
	return msgs[len(msgs)-limit:]
}

// toVertexContents converts conversation turns to provider contents. System
// turns cannot appear in genai history, so their text is folded into the
// system instruction instead.
func toVertexContents(msgs []dto.CoachMessage) ([]dto.VertexContent, string) {
	contents := make([]dto.VertexContent, 0, len(msgs))
	var extraSystem strings.Builder

	for _, msg := range msgs {
		switch msg.Role {
		case "user":
			contents = append(contents, dto.VertexContent{
				Role:  "user",
				Parts: []dto.VertexPart{{Text: helpers.Ptr(msg.Content)}},
			})
		case "assistant":
			if msg.Content != "" {
				contents = append(contents, dto.VertexContent{
					Role:  "model",
					Parts: []dto.VertexPart{{Text: helpers.Ptr(msg.Content)}},
				})
			}
		case "system":
			if msg.Content != "" {
				extraSystem.WriteString(" ")
				extraSystem.WriteString(msg.Content)
			}
		}
	}

	return contents, extraSystem.String()
}

func systemPrompt(lang string, now time.Time) string {
	today := now.Format("2006-01-02")
	return "You are a warm, practical wellness coach. " +
		"Reply with one short empathetic sentence, then exactly three numbered concrete steps, then one focused follow-up question. " +
		"Respond in the language with BCP 47 tag '" + lang + "'. " +
		"You may call at most one tool per reply when a plan, exercise suggestion, or journal prompt would help. " +
		"Never give medical diagnoses; suggest professional help for anything beyond everyday coaching. " +
		"Today is " + today + "."
}
