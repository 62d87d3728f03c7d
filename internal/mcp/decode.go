package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode maps a tool call's arguments onto the request struct T by way of
// JSON, so field tags and number checks (a fractional "seconds" is rejected)
// apply exactly as they do for the CLI's JSON. A call without arguments
// yields the zero T.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var input T
	args := req.GetArguments()
	if len(args) == 0 {
		return input, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return input, fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, fmt.Errorf("decode arguments: %w", err)
	}
	return input, nil
}
