// Package mcp exposes the context pipeline as MCP tools over stdio so other
// agents can borrow its memory and attachment handling.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/internal/service/chat"
	"github.com/sandevgo/tuskctx/pkg/log"
)

type Memory interface {
	PrepareContext(ctx context.Context, sessionID, userMessage string) (core.MemoryContext, error)
	RecordInteraction(ctx context.Context, sessionID, userMessage, answer string) (core.RecordResult, error)
}

type Attachments interface {
	Build(ctx context.Context, refs []core.AttachmentRef) core.AttachmentContext
}

type Chatter interface {
	Handle(ctx context.Context, req chat.Request) (chat.Response, error)
}

type Server struct {
	memory      Memory
	attachments Attachments
	chat        Chatter
	srv         *server.MCPServer
}

func NewServer(memory Memory, attachments Attachments, c Chatter) *Server {
	s := &Server{
		memory:      memory,
		attachments: attachments,
		chat:        c,
		srv:         server.NewMCPServer(core.TuskName, core.TaskVersion, server.WithToolCapabilities(false)),
	}

	attachmentItems := mcp.Items(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fileId":   map[string]any{"type": "string"},
			"fileName": map[string]any{"type": "string"},
			"mimeType": map[string]any{"type": "string"},
			"size":     map[string]any{"type": "number"},
		},
		"required": []string{"fileId"},
	})

	s.srv.AddTool(mcp.NewTool("prepare_context",
		mcp.WithDescription("Returns the rolling summary, relevant long-term facts and recent history of a session."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Conversation id")),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user message about to be answered")),
	), s.prepareContext)

	s.srv.AddTool(mcp.NewTool("record_interaction",
		mcp.WithDescription("Stores a completed user/assistant exchange in session memory."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Conversation id")),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user message")),
		mcp.WithString("answer", mcp.Required(), mcp.Description("The assistant answer")),
	), s.recordInteraction)

	s.srv.AddTool(mcp.NewTool("build_attachment_context",
		mcp.WithDescription("Analyses uploaded files and returns a prompt-ready description of each."),
		mcp.WithArray("attachments", mcp.Required(), mcp.Description("Attachment references"), attachmentItems),
	), s.buildAttachmentContext)

	s.srv.AddTool(mcp.NewTool("chat",
		mcp.WithDescription("Answers a message using session memory, attachments and the knowledge base."),
		mcp.WithString("sessionId", mcp.Description("Conversation id; generated when empty")),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user message")),
		mcp.WithArray("attachments", mcp.Description("Attachment references"), attachmentItems),
	), s.chatTool)

	return s
}

// Serve speaks MCP over the given streams until ctx is done or in closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.srv)
	stdio.SetErrorLogger(log.NewStdLogger(ctx))
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}

func (s *Server) prepareContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("sessionId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	message := request.GetString("message", "")

	mem, err := s.memory.PrepareContext(ctx, sessionID, message)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("prepare context failed", err), nil
	}
	return jsonResult(mem)
}

func (s *Server) recordInteraction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("sessionId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	message := request.GetString("message", "")
	answer := request.GetString("answer", "")

	res, err := s.memory.RecordInteraction(ctx, sessionID, message, answer)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("record interaction failed", err), nil
	}
	return jsonResult(res)
}

func (s *Server) buildAttachmentContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := attachmentRefs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.attachments.Build(ctx, refs))
}

func (s *Server) chatTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := attachmentRefs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.chat.Handle(ctx, chat.Request{
		SessionID:   request.GetString("sessionId", ""),
		Message:     request.GetString("message", ""),
		Attachments: refs,
	})
	if err != nil {
		return mcp.NewToolResultErrorFromErr("chat failed", err), nil
	}
	return jsonResult(resp)
}

// attachmentRefs decodes the optional "attachments" argument. A bare string
// is taken as a file id.
func attachmentRefs(request mcp.CallToolRequest) ([]core.AttachmentRef, error) {
	raw, ok := request.GetArguments()["attachments"]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errors.New("attachments must be an array")
	}

	refs := make([]core.AttachmentRef, 0, len(items))
	for _, item := range items {
		if id, ok := item.(string); ok {
			refs = append(refs, core.AttachmentRef{FileID: id})
			continue
		}
		data, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode attachment: %w", err)
		}
		var ref core.AttachmentRef
		if err := json.Unmarshal(data, &ref); err != nil {
			return nil, fmt.Errorf("invalid attachment: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
