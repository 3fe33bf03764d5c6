// Package mcpserver exposes the host adapter as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kayz/modprompt/internal/host"
	"github.com/kayz/modprompt/internal/logger"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tools holds the tool handlers bound to one adapter.
type Tools struct {
	adapter *host.Adapter
}

// NewTools binds tool handlers to adapter.
func NewTools(adapter *host.Adapter) *Tools {
	return &Tools{adapter: adapter}
}

// NewServer builds an MCP server with the compose, options, inputs and negative tools.
func NewServer(adapter *host.Adapter, version string) *server.MCPServer {
	t := NewTools(adapter)
	s := server.NewMCPServer("modprompt", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("compose",
		mcp.WithDescription("Compose a diffusion prompt from per-block selections"),
		mcp.WithString("library", mcp.Description("Library id")),
		mcp.WithString("model", mcp.Description("Target model id, e.g. sdxl or flux")),
		mcp.WithObject("selections", mcp.Required(), mcp.Description("Map of block name to option id")),
		mcp.WithObject("addons", mcp.Description("Map of block name to free addon text")),
		mcp.WithObject("intent_flags", mcp.Description("Map of intent flag name to value")),
		mcp.WithString("custom", mcp.Description("Free text appended after a BREAK")),
	), t.Compose)

	s.AddTool(mcp.NewTool("options",
		mcp.WithDescription("List selectable options of one block"),
		mcp.WithString("block", mcp.Required(), mcp.Description("Block name")),
		mcp.WithString("library", mcp.Description("Library id")),
		mcp.WithBoolean("strict", mcp.Description("Fail when the library is not loaded")),
	), t.Options)

	s.AddTool(mcp.NewTool("inputs",
		mcp.WithDescription("Describe libraries, models and every block with its options"),
		mcp.WithString("library", mcp.Description("Library id (default: first library)")),
	), t.Inputs)

	s.AddTool(mcp.NewTool("negative",
		mcp.WithDescription("Build a negative prompt from keyword categories"),
		mcp.WithArray("categories", mcp.Description("Categories: quality, anatomy, style, lighting, context, texture")),
		mcp.WithString("custom", mcp.Description("Extra negative text appended last")),
	), t.Negative)

	return s
}

// Compose runs a composition and returns the output as JSON.
func (t *Tools) Compose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	selections, ok := stringMapArg(req, "selections")
	if !ok {
		return mcp.NewToolResultError("selections is required (object of block to option)"), nil
	}
	addons, _ := stringMapArg(req, "addons")
	flags, _ := stringMapArg(req, "intent_flags")

	out := t.adapter.ComposePrompt(ctx, host.PromptInput{
		Library:     stringArg(req, "library"),
		Model:       stringArg(req, "model"),
		Selections:  selections,
		Addons:      addons,
		IntentFlags: flags,
		Custom:      stringArg(req, "custom"),
	})
	return jsonResult(out)
}

// Options lists the options of a block.
func (t *Tools) Options(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	block := stringArg(req, "block")
	if block == "" {
		return mcp.NewToolResultError("block is required"), nil
	}
	strict, _ := req.Params.Arguments["strict"].(bool)

	opts, err := t.adapter.Options(stringArg(req, "library"), block, strict)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(opts, "\n")), nil
}

// Inputs describes the selectable inputs of a library.
func (t *Tools) Inputs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.adapter.Inputs(stringArg(req, "library")))
}

// Negative builds a negative prompt. Without categories the defaults apply.
func (t *Tools) Negative(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := host.NegativeInput{Custom: stringArg(req, "custom")}

	if raw, ok := req.Params.Arguments["categories"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return mcp.NewToolResultError("categories must be an array of names"), nil
		}
		in.Categories = make(map[string]bool, len(list))
		for _, item := range list {
			name, ok := item.(string)
			if !ok {
				return mcp.NewToolResultError("categories must be an array of names"), nil
			}
			in.Categories[strings.TrimSpace(name)] = true
		}
	}
	return mcp.NewToolResultText(t.adapter.ComposeNegative(in)), nil
}

func stringArg(req mcp.CallToolRequest, name string) string {
	v, _ := req.Params.Arguments[name].(string)
	return strings.TrimSpace(v)
}

// stringMapArg reads an object argument. Non-string values are formatted
// with fmt, so {"hdr": true} becomes "true"; nulls are dropped.
func stringMapArg(req mcp.CallToolRequest, name string) (map[string]string, bool) {
	raw, ok := req.Params.Arguments[name].(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
			// dropped
		case string:
			out[k] = v
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out, true
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Warn("Encode tool result: %v", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
