package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/ports"
)

const (
	ToolSearchFAQ     = "search_faq"
	ToolAnswerMessage = "answer_message"
)

// Server exposes FAQ search and the message decision engine as MCP tools.
type Server struct {
	responder ports.MessageResponder
	searcher  ports.FAQSearcher
	logger    *slog.Logger
}

func NewServer(responder ports.MessageResponder, searcher ports.FAQSearcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{responder: responder, searcher: searcher, logger: logger}
}

func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer("homestay-faq", version, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool(ToolSearchFAQ,
		mcp.WithDescription("Search the homestay FAQ and return reranked candidates with their scores. Does not call a chat model."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Guest question to search for")),
	), s.handleSearch)

	srv.AddTool(mcp.NewTool(ToolAnswerMessage,
		mcp.WithDescription("Run the full reply pipeline for a guest message. A null answer means no reply should be sent."),
		mcp.WithString("message", mcp.Required(), mcp.Description("Incoming guest message")),
		mcp.WithString("phone_number", mcp.Description("Sender phone number")),
	), s.handleAnswer)

	return srv
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.searcher.Search(ctx, query)
	if err != nil {
		s.logger.Warn("mcp_tool_failed", "tool", ToolSearchFAQ, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("mcp_tool_called", "tool", ToolSearchFAQ,
		"search_method", string(result.SearchMethod),
		"candidates", len(result.Candidates),
	)
	return jsonResult(result)
}

func (s *Server) handleAnswer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.responder.Respond(ctx, domain.Query{
		Message:     message,
		PhoneNumber: request.GetString("phone_number", ""),
	})
	if err != nil {
		s.logger.Warn("mcp_tool_failed", "tool", ToolAnswerMessage, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("mcp_tool_called", "tool", ToolAnswerMessage,
		"final_decision", result.ProcessingDetails.FinalDecision,
		"confidence", result.Confidence,
	)
	return jsonResult(result)
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}
