package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	// HistoryToolName lists audit records.
	HistoryToolName = "list_command_history"
	// CommandsResourceURI lists the registered commands.
	CommandsResourceURI = "bridge://commands"
)

// envelopeSchema accepts any object: arguments are the parameter envelope
// and each command validates its own payload.
func envelopeSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"requestId": {Type: "string", Description: "Optional caller-chosen id echoed in logs and the audit log."},
			"data":      {Description: "Command parameters. May be omitted when parameters are given at the top level."},
		},
	}
}

func commandTool(d bridge.Descriptor) *mcp.Tool {
	return &mcp.Tool{
		Name:        d.Name,
		Description: fmt.Sprintf("%s (times out after %s)", d.Description, d.Timeout),
		InputSchema: envelopeSchema(),
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: !d.Mutates},
	}
}

// commandHandler forwards the raw arguments to the router. Command failures
// are tool errors, not protocol errors.
func (s *Server) commandHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var raw json.RawMessage
		if req != nil && req.Params != nil {
			raw = req.Params.Arguments
		}
		result := s.router.ExecuteJSON(ctx, name, raw)
		if !result.Success {
			s.logger.Debug("tool call failed",
				zap.String("command", name),
				zap.String("code", string(result.Code)),
				zap.Bool("retryable", result.Code.Retryable()),
				zap.String("message", result.Message),
			)
		}
		return toolResult(result)
	}
}

func toolResult(result bridge.Result) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(data)}},
		StructuredContent: json.RawMessage(data),
		IsError:           !result.Success,
	}, nil
}

// HistoryInput selects audit records.
type HistoryInput struct {
	RequestID string `json:"requestId,omitempty" jsonschema:"only records for this request id"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum records to return, newest first (default 50)"`
}

// HistoryRecord is one audit record as returned to clients.
type HistoryRecord struct {
	RequestID    string `json:"requestId" jsonschema:"request id"`
	Command      string `json:"command" jsonschema:"command name"`
	Outcome      string `json:"outcome" jsonschema:"succeeded, failed, rejected, timed_out, canceled or orphaned"`
	Code         string `json:"code,omitempty" jsonschema:"machine-readable error code"`
	Retryable    bool   `json:"retryable,omitempty" jsonschema:"whether retrying the same request may succeed"`
	Message      string `json:"message" jsonschema:"result message"`
	ParamsDigest string `json:"paramsDigest,omitempty" jsonschema:"keyed hash of the parameters"`
	TraceID      string `json:"traceId,omitempty" jsonschema:"trace id when tracing is enabled"`
	StartedAt    string `json:"startedAt" jsonschema:"RFC 3339 start time"`
	DurationMS   int64  `json:"durationMs" jsonschema:"duration in milliseconds"`
}

// HistoryResult lists audit records.
type HistoryResult struct {
	Records []HistoryRecord `json:"records" jsonschema:"audit records"`
}

func historyTool() *mcp.Tool {
	return &mcp.Tool{
		Name: HistoryToolName,
		Description: "List recent bridge command outcomes from the audit log, or every record for one request id. " +
			"A request that timed out and later finished on the host shows an orphaned record.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}
}

func historyHandler(history HistoryReader) mcp.ToolHandlerFor[HistoryInput, HistoryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, HistoryResult, error) {
		var (
			records []bridge.AuditRecord
			err     error
		)
		if id := strings.TrimSpace(input.RequestID); id != "" {
			records, err = history.ListByRequestID(ctx, id)
		} else {
			records, err = history.ListRecent(ctx, input.Limit)
		}
		if err != nil {
			return nil, HistoryResult{}, fmt.Errorf("list command history: %w", err)
		}
		out := HistoryResult{Records: make([]HistoryRecord, 0, len(records))}
		for _, rec := range records {
			out.Records = append(out.Records, HistoryRecord{
				RequestID:    rec.RequestID,
				Command:      rec.Command,
				Outcome:      string(rec.Outcome),
				Code:         string(rec.Code),
				Retryable:    rec.Code.Retryable(),
				Message:      rec.Message,
				ParamsDigest: rec.ParamsDigest,
				TraceID:      rec.TraceID,
				StartedAt:    rec.StartedAt.UTC().Format(time.RFC3339Nano),
				DurationMS:   rec.Duration.Milliseconds(),
			})
		}
		return nil, out, nil
	}
}

type commandListing struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Mutates     bool   `json:"mutates"`
	TimeoutMS   int64  `json:"timeoutMs"`
}

func commandsResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         CommandsResourceURI,
		Name:        "commands",
		Description: "Registered bridge commands with their timeout budgets.",
		MIMEType:    "application/json",
	}
}

func commandsResourceHandler(router CommandRouter) mcp.ResourceHandler {
	return func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := CommandsResourceURI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		if uri != CommandsResourceURI {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		descriptors := router.Commands()
		payload := make([]commandListing, 0, len(descriptors))
		for _, d := range descriptors {
			payload = append(payload, commandListing{
				Name:        d.Name,
				Description: d.Description,
				Mutates:     d.Mutates,
				TimeoutMS:   d.Timeout.Milliseconds(),
			})
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal command list: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}
