package mcp

import (
	"context"
	"encoding/json"
	"time"

	"montecarlo-mcp/internal/config"
	"montecarlo-mcp/internal/configstore"
	"montecarlo-mcp/internal/simulation"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const serverName = "montecarlo-mcp"

// Server exposes the simulation pipeline and the configuration store as MCP tools.
type Server struct {
	engine             *simulation.Engine
	store              configstore.Store
	defaultSimulations int
	enableCharts       bool
	server             *sdk.Server
}

// NewServer creates a new MCP server and registers every tool.
func NewServer(cfg *config.AppConfig, store configstore.Store, version string) *Server {
	s := &Server{
		engine:             cfg.NewEngine(),
		store:              store,
		defaultSimulations: cfg.DefaultSimulations,
		enableCharts:       cfg.EnableMermaidCharts,
		server:             sdk.NewServer(&sdk.Implementation{Name: serverName, Version: version}, nil),
	}
	s.registerTools()
	return s
}

// Serve runs the server over stdio until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// addTool registers h with call logging. Errors returned by h reach the
// client as tool errors carrying the message, never as protocol failures.
func addTool[In any](s *Server, tool *sdk.Tool, h func(context.Context, In) (*sdk.CallToolResult, error)) {
	sdk.AddTool(s.server, tool, func(ctx context.Context, _ *sdk.CallToolRequest, in In) (*sdk.CallToolResult, any, error) {
		start := time.Now()
		res, err := h(ctx, in)
		if err != nil {
			log.Warn().Err(err).Str("tool", tool.Name).Msg("Tool call failed")
			return nil, nil, err
		}
		log.Info().Str("tool", tool.Name).Dur("elapsed", time.Since(start)).Msg("Tool call completed")
		return res, nil, nil
	})
}

// textResult renders data as indented JSON followed by any non-empty extra
// blocks such as Mermaid charts.
func textResult(data any, extra ...string) (*sdk.CallToolResult, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	res := &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: string(out)}},
	}
	for _, block := range extra {
		if block != "" {
			res.Content = append(res.Content, &sdk.TextContent{Text: block})
		}
	}
	return res, nil
}
