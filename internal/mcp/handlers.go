package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/pomo/internal/errors"
	"github.com/hpungsan/pomo/internal/ops"
	"github.com/hpungsan/pomo/internal/settings"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	rt *ops.Runtime
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(rt *ops.Runtime) *Handlers {
	return &Handlers{rt: rt}
}

// Request types for each tool

// ResetRequest represents the arguments for timer_reset.
type ResetRequest struct {
	All bool `json:"all,omitempty"`
}

// SwitchRequest represents the arguments for timer_switch.
type SwitchRequest struct {
	Phase string `json:"phase"`
}

// SetRequest represents the arguments for timer_set.
type SetRequest struct {
	Seconds *int   `json:"seconds,omitempty"`
	Clock   string `json:"clock,omitempty"`
}

// CatchupRequest represents the arguments for timer_catchup.
type CatchupRequest struct {
	Force bool `json:"force,omitempty"`
}

// HistoryRequest represents the arguments for timer_history.
type HistoryRequest struct {
	Phase  string `json:"phase,omitempty"`
	Today  bool   `json:"today,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Handler implementations

// HandleStatus handles the timer_status tool call.
func (h *Handlers) HandleStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Status(ctx, h.rt)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleStart handles the timer_start tool call.
func (h *Handlers) HandleStart(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Start(ctx, h.rt)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePause handles the timer_pause tool call.
func (h *Handlers) HandlePause(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Pause(ctx, h.rt)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleReset handles the timer_reset tool call.
func (h *Handlers) HandleReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ResetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Reset(ctx, h.rt, ops.ResetInput{All: input.All})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSwitch handles the timer_switch tool call.
func (h *Handlers) HandleSwitch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SwitchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Switch(ctx, h.rt, ops.SwitchInput{Phase: input.Phase})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSet handles the timer_set tool call.
func (h *Handlers) HandleSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Set(ctx, h.rt, ops.SetInput{Seconds: input.Seconds, Clock: input.Clock})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCatchup handles the timer_catchup tool call.
func (h *Handlers) HandleCatchup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CatchupRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Catchup(ctx, h.rt, ops.CatchupInput{Force: input.Force})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistory handles the timer_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.History(ctx, h.rt, ops.HistoryInput{
		Phase:  input.Phase,
		Today:  input.Today,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleReport handles the timer_report tool call.
func (h *Handlers) HandleReport(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Report(ctx, h.rt)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSettings handles the timer_settings tool call.
func (h *Handlers) HandleSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patch, err := decode[settings.Patch](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.UpdateSettings(ctx, h.rt, patch)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any
	var pomoErr *errors.PomoError
	if stderrors.As(err, &pomoErr) {
		message := pomoErr.Message
		if err != error(pomoErr) {
			// Keep wrapper context such as "catchup: ".
			message = strings.TrimSuffix(err.Error(), pomoErr.Error()) + pomoErr.Message
		}
		errorObj := map[string]any{
			"code":    pomoErr.Code,
			"message": message,
			"status":  pomoErr.Status,
		}
		// Internal details can carry SQL errors or file paths.
		if pomoErr.Code != errors.ErrInternal && len(pomoErr.Details) > 0 {
			errorObj["details"] = pomoErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
