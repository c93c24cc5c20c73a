package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/logo-gallery/internal/features"
	"github.com/ironsheep/logo-gallery/internal/guard"
	"github.com/ironsheep/logo-gallery/internal/similarity"
	"github.com/ironsheep/logo-gallery/internal/store"
)

// createTestLogoFile writes a two-color logo and returns its path
func createTestLogoFile(t *testing.T, name string, width, height int, left, right color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.Set(x, y, left)
			} else {
				img.Set(x, y, right)
			}
		}
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool invokes a tool through tools/call and decodes the text content into out
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	}

	resp := s.handleRequest(context.Background(), req)
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil || out == nil {
		return resp
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("Result content malformed: %v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("Failed to unmarshal tool result: %v", err)
	}
	return resp
}

var (
	red   = color.RGBA{255, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
)

func TestExtractFeatures(t *testing.T) {
	s := New(nil, nil)
	path := createTestLogoFile(t, "logo.png", 100, 50, red, white)

	var got FeaturesResult
	resp := callTool(t, s, "logo_extract_features", map[string]interface{}{"path": path}, &got)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	if got.Path != path {
		t.Errorf("Path: got %s, want %s", got.Path, path)
	}
	if got.Features == nil {
		t.Fatal("Features should not be nil")
	}
	if got.Features.Width != 100 || got.Features.Height != 50 {
		t.Errorf("Size: got %dx%d, want 100x50", got.Features.Width, got.Features.Height)
	}
	if got.Features.AspectRatio != 2 {
		t.Errorf("AspectRatio: got %f, want 2", got.Features.AspectRatio)
	}
	if len(got.Features.PerceptualHash) != features.HashLength {
		t.Errorf("PerceptualHash length: got %d", len(got.Features.PerceptualHash))
	}

	// Second call is served from the cache
	callTool(t, s, "logo_extract_features", map[string]interface{}{"path": path}, &got)
	if s.cache.Len() != 1 {
		t.Errorf("cache size: got %d, want 1", s.cache.Len())
	}
}

func TestExtractFeatures_Errors(t *testing.T) {
	s := New(nil, nil)

	notImage := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(notImage, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing path", map[string]interface{}{}},
		{"nonexistent file", map[string]interface{}{"path": "/nonexistent/logo.png"}},
		{"not an image", map[string]interface{}{"path": notImage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "logo_extract_features", tt.args, nil)
			if resp.Error == nil {
				t.Fatal("Expected error response")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	s := New(nil, nil)
	a := createTestLogoFile(t, "a.png", 64, 64, red, white)
	b := createTestLogoFile(t, "b.png", 128, 64, blue, black)

	var same CompareResult
	resp := callTool(t, s, "logo_compare", map[string]interface{}{"path_a": a, "path_b": a}, &same)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if same.Similarity != 1 {
		t.Errorf("Similarity: got %f, want 1", same.Similarity)
	}
	if same.MatchType != similarity.MatchExact {
		t.Errorf("MatchType: got %s, want exact", same.MatchType)
	}

	var diff CompareResult
	callTool(t, s, "logo_compare", map[string]interface{}{"path_a": a, "path_b": b}, &diff)
	if diff.Similarity >= 0.7 {
		t.Errorf("Similarity of different logos too high: %f", diff.Similarity)
	}
	if diff.AspectSimilarity != 0.5 {
		t.Errorf("AspectSimilarity: got %f, want 0.5", diff.AspectSimilarity)
	}

	var reversed CompareResult
	callTool(t, s, "logo_compare", map[string]interface{}{"path_a": b, "path_b": a}, &reversed)
	if reversed.Similarity != diff.Similarity {
		t.Errorf("Compare is not symmetric: %f vs %f", diff.Similarity, reversed.Similarity)
	}
}

func TestCompare_MissingPath(t *testing.T) {
	s := New(nil, nil)
	resp := callTool(t, s, "logo_compare", map[string]interface{}{"path_a": "/x.png"}, nil)
	if resp.Error == nil {
		t.Fatal("Expected error response")
	}
}

func TestBreakdown_InvalidColor(t *testing.T) {
	good := &features.ImageFeatures{
		Width: 10, Height: 10,
		DominantColors: []features.DominantColor{{Hex: "#000000", Coverage: 1}},
	}
	bad := &features.ImageFeatures{
		Width: 10, Height: 10,
		DominantColors: []features.DominantColor{{Hex: "oops", Coverage: 1}},
	}

	res := Breakdown(good, bad)
	if res.MatchType != similarity.MatchError {
		t.Errorf("MatchType: got %s, want error", res.MatchType)
	}
	if res.Error == "" {
		t.Error("Expected error description")
	}
}

func TestCheckDuplicate(t *testing.T) {
	st := store.NewMemoryStore()
	g := guard.New(st, guard.Options{Policy: guard.DefaultPolicy()})
	s := New(g, nil)
	path := createTestLogoFile(t, "logo.png", 64, 64, red, white)

	var first guard.Decision
	resp := callTool(t, s, "logo_check_duplicate", map[string]interface{}{"path": path, "owner_id": "alice"}, &first)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if !first.Accepted {
		t.Errorf("Expected acceptance into an empty store, got %+v", first)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Submit(context.Background(), guard.Upload{OwnerID: "alice", Title: "Logo", Data: data}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	var again guard.Decision
	callTool(t, s, "logo_check_duplicate", map[string]interface{}{"path": path, "owner_id": "alice"}, &again)
	if again.Accepted || again.Reason != guard.ReasonDuplicate {
		t.Errorf("Expected duplicate rejection, got %+v", again)
	}

	var other guard.Decision
	callTool(t, s, "logo_check_duplicate", map[string]interface{}{"path": path, "owner_id": "bob"}, &other)
	if !other.Accepted {
		t.Errorf("Expected cross-owner acceptance, got %+v", other)
	}

	logos, _ := st.ListLogos(context.Background())
	if len(logos) != 1 {
		t.Errorf("Dry run stored logos: got %d, want 1", len(logos))
	}
}

func TestCheckDuplicate_InvalidFile(t *testing.T) {
	s := New(guard.New(store.NewMemoryStore(), guard.Options{}), nil)

	junk := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(junk, []byte("not really a png"), 0644); err != nil {
		t.Fatal(err)
	}

	var d guard.Decision
	resp := callTool(t, s, "logo_check_duplicate", map[string]interface{}{"path": junk, "owner_id": "alice"}, &d)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if d.Accepted || d.Reason != guard.ReasonInvalidType {
		t.Errorf("Expected invalid-type rejection, got %+v", d)
	}
}

func TestCheckDuplicate_NoGuard(t *testing.T) {
	s := New(nil, nil)
	path := createTestLogoFile(t, "logo.png", 8, 8, red, white)

	resp := callTool(t, s, "logo_check_duplicate", map[string]interface{}{"path": path, "owner_id": "alice"}, nil)
	if resp.Error == nil {
		t.Fatal("Expected error without a store")
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := New(nil, nil)
	resp := callTool(t, s, "image_crop", map[string]interface{}{}, nil)
	if resp.Error == nil {
		t.Fatal("Expected error for unknown tool")
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(nil, nil)
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	}

	resp := s.handleToolsCall(context.Background(), req)
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("Expected -32602, got %+v", resp.Error)
	}
}
