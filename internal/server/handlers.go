package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ironsheep/logo-gallery/internal/features"
	"github.com/ironsheep/logo-gallery/internal/guard"
	"github.com/ironsheep/logo-gallery/internal/similarity"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "logo_compare").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Info("Tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "logo_extract_features":
		return s.handleExtractFeatures(args)
	case "logo_compare":
		return s.handleCompare(args)
	case "logo_check_duplicate":
		return s.handleCheckDuplicate(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type extractArgs struct {
	Path string `json:"path"`
}

// FeaturesResult is the logo_extract_features result.
type FeaturesResult struct {
	Path     string                  `json:"path"`
	Features *features.ImageFeatures `json:"features"`
}

func (s *Server) handleExtractFeatures(args json.RawMessage) (interface{}, error) {
	var a extractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	f, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return &FeaturesResult{Path: a.Path, Features: f}, nil
}

type compareArgs struct {
	PathA string `json:"path_a"`
	PathB string `json:"path_b"`
}

// CompareResult is the logo_compare result.
type CompareResult struct {
	similarity.Result
	HashSimilarity   float64 `json:"hashSimilarity"`
	AspectSimilarity float64 `json:"aspectSimilarity"`
	ColorSimilarity  float64 `json:"colorSimilarity"`
	Error            string  `json:"error,omitempty"`
}

func (s *Server) handleCompare(args json.RawMessage) (interface{}, error) {
	var a compareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.PathA == "" || a.PathB == "" {
		return nil, errors.New("path_a and path_b are required")
	}

	fa, err := s.cache.Load(a.PathA)
	if err != nil {
		return nil, err
	}
	fb, err := s.cache.Load(a.PathB)
	if err != nil {
		return nil, err
	}

	return Breakdown(fa, fb), nil
}

// Breakdown compares a and b and reports the component scores next to the
// composite result.
func Breakdown(a, b *features.ImageFeatures) *CompareResult {
	res, err := similarity.Evaluate(a, b)
	out := &CompareResult{Result: res}
	if err != nil {
		out.Error = err.Error()
		return out
	}

	out.HashSimilarity = similarity.HashSimilarity(a.PerceptualHash, b.PerceptualHash)
	out.AspectSimilarity = similarity.AspectRatioSimilarity(
		float64(a.Width)/float64(a.Height),
		float64(b.Width)/float64(b.Height),
	)
	out.ColorSimilarity, _ = similarity.ColorSimilarity(a.DominantColors, b.DominantColors)
	return out
}

type checkDuplicateArgs struct {
	Path    string `json:"path"`
	OwnerID string `json:"owner_id"`
}

func (s *Server) handleCheckDuplicate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a checkDuplicateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" || a.OwnerID == "" {
		return nil, errors.New("path and owner_id are required")
	}
	if s.guard == nil {
		return nil, errors.New("no logo store is configured")
	}

	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", a.Path, err)
	}

	decision, err := s.guard.Preview(ctx, a.OwnerID, data)
	var verr *guard.ValidationError
	if errors.As(err, &verr) {
		return guard.Decision{Reason: verr.Reason, Message: verr.Message}, nil
	}
	if err != nil {
		return nil, err
	}
	return decision, nil
}
