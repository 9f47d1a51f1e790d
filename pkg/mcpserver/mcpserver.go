// Package mcpserver exposes chains and parallel groups as MCP tools using
// the official MCP Go SDK.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/germanamz/promptchain/pkg/chain"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// handler runs one tool call with already-decoded string arguments.
type handler func(ctx context.Context, bindings map[string]string) (string, error)

// MCPServer serves chains over the MCP protocol.
type MCPServer struct {
	server *mcp.Server
	log    *slog.Logger
}

// New creates a new MCPServer with the given name and version. A nil logger
// discards call logs.
func New(name, version string, log *slog.Logger) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &MCPServer{server: server, log: log}
}

// RegisterChain adds a tool that runs r with the call arguments as bindings.
// Each placeholder becomes a required string argument.
func (s *MCPServer) RegisterChain(name string, r chain.Runner, placeholders []string) {
	s.add(name, fmt.Sprintf("Run the %s prompt chain.", name), placeholders, r.Run)
}

// RegisterParallel adds a tool that runs every chain of p concurrently and
// returns the record as a JSON object keyed by output name.
func (s *MCPServer) RegisterParallel(name string, p *chain.Parallel, placeholders []string) {
	desc := fmt.Sprintf("Run the %s chains (%v) in parallel.", name, p.Names())

	s.add(name, desc, placeholders, func(ctx context.Context, bindings map[string]string) (string, error) {
		rec, err := p.RunAll(ctx, bindings)
		if err != nil {
			return "", err
		}

		out, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("encode record: %w", err)
		}

		return string(out), nil
	})
}

func (s *MCPServer) add(name, description string, placeholders []string, h handler) {
	s.server.AddTool(&mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema(placeholders),
	}, s.toSDKHandler(name, h))
}

// Serve starts serving MCP requests. It reads requests from in and writes
// responses to out. It blocks until ctx is cancelled or the transport closes.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

// run starts the server with the given transport.
func (s *MCPServer) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// inputSchema builds an object schema with one required string property per
// placeholder.
func inputSchema(placeholders []string) json.RawMessage {
	props := make(map[string]any, len(placeholders))
	for _, p := range placeholders {
		props[p] = map[string]any{"type": "string"}
	}

	required := slices.Clone(placeholders)
	if required == nil {
		required = []string{}
	}

	schema, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	})

	return schema
}

// toSDKHandler decodes the arguments into bindings and reports failures as
// IsError results.
func (s *MCPServer) toSDKHandler(name string, h handler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		callID := uuid.NewString()
		log := s.log.With("tool", name, "call_id", callID)

		bindings, err := decodeBindings(req.Params.Arguments)
		if err != nil {
			log.Warn("invalid tool arguments", "error", err)
			return errorResult(err), nil
		}

		log.Debug("tool call started")

		result, err := h(ctx, bindings)
		if err != nil {
			log.Error("tool call failed", "error", err)
			return errorResult(err), nil
		}

		log.Info("tool call finished")

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	}
}

func decodeBindings(raw json.RawMessage) (map[string]string, error) {
	if len(raw) == 0 {
		return map[string]string{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("arguments must be an object: %w", err)
	}

	bindings := make(map[string]string, len(args))
	for k, v := range args {
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("argument %q must be a string", k)
		}
		bindings[k] = str
	}

	return bindings, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

// nopWriteCloser wraps an io.Writer as an io.WriteCloser with a no-op Close.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
