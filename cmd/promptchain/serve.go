package main

import (
	"context"
	"io"

	"github.com/germanamz/promptchain/pkg/mcpserver"
)

// version is reported to MCP clients.
const version = "0.1.0"

// newMCPServer registers every configured chain and parallel group as a tool.
func newMCPServer(a *app) *mcpserver.MCPServer {
	s := mcpserver.New("promptchain", version, a.log)

	for _, name := range a.engine.ChainNames() {
		c, _ := a.engine.Chain(name)
		s.RegisterChain(name, c, c.Template().Placeholders())
	}

	for _, name := range a.engine.ParallelNames() {
		p, _ := a.engine.Parallel(name)
		s.RegisterParallel(name, p, a.engine.Placeholders(name))
	}

	return s
}

// serveMCP serves the tools over in/out until the client disconnects or ctx
// is cancelled.
func serveMCP(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	a.log.Info("serving mcp", "chains", a.engine.ChainNames(), "groups", a.engine.ParallelNames())
	return newMCPServer(a).Serve(ctx, in, out)
}
