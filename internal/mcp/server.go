package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/pomo/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"timer_status": {
		def:     statusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStatus },
	},
	"timer_start": {
		def:     startToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStart },
	},
	"timer_pause": {
		def:     pauseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePause },
	},
	"timer_reset": {
		def:     resetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReset },
	},
	"timer_switch": {
		def:     switchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSwitch },
	},
	"timer_set": {
		def:     setToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSet },
	},
	"timer_catchup": {
		def:     catchupToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCatchup },
	},
	"timer_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
	"timer_report": {
		def:     reportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReport },
	},
	"timer_settings": {
		def:     settingsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettings },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the timer tools registered.
// Tools listed in the runtime's disabled_tools are excluded from registration.
func NewServer(rt *ops.Runtime, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"pomo",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(rt)

	disabled := make(map[string]bool)
	for _, name := range rt.Config.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport. The timer keeps ticking in
// real time for as long as the client stays connected.
func Run(rt *ops.Runtime, version string) error {
	s := NewServer(rt, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
