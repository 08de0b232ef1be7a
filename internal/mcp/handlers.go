package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/scribe/internal/auth"
	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/ops"
	"github.com/hpungsan/scribe/internal/post"
	"github.com/hpungsan/scribe/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store store.Store
	az    *auth.Authorizer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st store.Store, az *auth.Authorizer) *Handlers {
	return &Handlers{store: st, az: az}
}

// Request types for each tool

// GetRequest represents the arguments for post_get.
type GetRequest struct {
	Slug string `json:"slug"`
}

// CreateRequest represents the arguments for post_create.
type CreateRequest struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Markdown string `json:"markdown"`
}

// UpdateRequest represents the arguments for post_update.
type UpdateRequest struct {
	Target   string `json:"target"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Markdown string `json:"markdown"`
}

// DeleteRequest represents the arguments for post_delete.
type DeleteRequest struct {
	Slug string `json:"slug"`
}

// ExportRequest represents the arguments for post_export.
type ExportRequest struct {
	Dir string `json:"dir"`
}

// ImportRequest represents the arguments for post_import.
type ImportRequest struct {
	Dir  string `json:"dir"`
	Mode string `json:"mode,omitempty"`
}

// DeleteResult is returned by post_delete.
type DeleteResult struct {
	Slug    string `json:"slug"`
	Deleted bool   `json:"deleted"`
}

// Handler implementations

// HandleList handles the post_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.List(ctx, h.store)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGet handles the post_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Fetch(ctx, h.store, input.Slug)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCreate handles the post_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	return h.submit(ctx, ops.SubmitInput{
		Target:   post.NewSlug,
		Intent:   string(ops.IntentCreate),
		Title:    input.Title,
		Slug:     input.Slug,
		Markdown: input.Markdown,
	})
}

// HandleUpdate handles the post_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	// "new" would silently turn an update into a create
	if input.Target == "" || ops.IsNewTarget(input.Target) {
		return errorResult(errors.NewInvalidRequest("target must be the slug of an existing post")), nil
	}

	return h.submit(ctx, ops.SubmitInput{
		Target:   input.Target,
		Intent:   string(ops.IntentUpdate),
		Title:    input.Title,
		Slug:     input.Slug,
		Markdown: input.Markdown,
	})
}

// HandleDelete handles the post_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	_, err = ops.Submit(ctx, h.store, h.az, h.az.Admin(), ops.SubmitInput{
		Target: input.Slug,
		Intent: string(ops.IntentDelete),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(DeleteResult{Slug: input.Slug, Deleted: true})
}

// HandleExport handles the post_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Export(ctx, h.store, ops.ExportInput{Dir: input.Dir})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the post_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Import(ctx, h.store, h.az, h.az.Admin(), ops.ImportInput{
		Dir:  input.Dir,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// submit runs a create or update as the admin. Field errors become a
// VALIDATION_FAILED error result with the failing fields in details.
func (h *Handlers) submit(ctx context.Context, input ops.SubmitInput) (*mcp.CallToolResult, error) {
	result, err := ops.Submit(ctx, h.store, h.az, h.az.Admin(), input)
	if err != nil {
		return errorResult(err), nil
	}
	if result.Failed() {
		return errorResult(errors.NewValidationFailed(result.Errors.Map())), nil
	}
	return successResult(result.Post)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var sErr *errors.ScribeError
	if stderrors.As(err, &sErr) {
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": sErr.Message,
			"status":  sErr.Status,
		}
		if sErr.Code != errors.ErrInternal && len(sErr.Details) > 0 {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
