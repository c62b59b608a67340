package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server and exposes the knowledge base to
// connected assistants through tools and resources.
type Server struct {
	server *mcp.Server
	ports  *Ports
}

// NewServer builds an MCP server over the given ports. The version string
// comes from the build and is reported to clients during initialisation.
func NewServer(ports *Ports, version string) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: "recall", Version: version}, nil),
		ports:  ports,
	}

	s.addTools()
	s.addResources()

	return s, nil
}

// Run serves MCP over stdio until the client disconnects or ctx is
// cancelled. This is the transport Claude Desktop and similar hosts use.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves MCP over streamable HTTP on addr. Cancelling ctx drains
// in-flight sessions before the listener closes.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return s.server },
		nil,
	)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
