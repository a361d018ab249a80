// Package mcp exposes the triage operations, case resources and workflow
// prompts over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cybertriage/cybertriage/internal/lifecycle"
	"github.com/cybertriage/cybertriage/internal/ruleset"
)

// Server wraps the MCP SDK server around the lifecycle service.
type Server struct {
	mcpServer *mcpsdk.Server
	svc       *lifecycle.Service
	tables    *ruleset.Tables
}

// New creates an MCP server with every tool, resource and prompt registered.
func New(svc *lifecycle.Service, version string) *Server {
	s := &Server{
		svc:    svc,
		tables: svc.Engine().Tables,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "cybertriage",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// Run serves MCP on stdio. Blocks until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves one session over t.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

// HTTPHandler serves MCP over the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return s.mcpServer
	}, nil)
}

// result converts an operation outcome into a tool result. Failures are
// reported in-band with IsError set.
func result[T any](res T, err error) (*mcpsdk.CallToolResult, any, error) {
	if err != nil {
		failure := lifecycle.Failure(err)
		text, _ := json.Marshal(failure)
		return &mcpsdk.CallToolResult{
			IsError: true,
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(text)}},
		}, failure, nil
	}
	return nil, res, nil
}
