package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "logo_extract_features",
			Description: "Extract the structural features of a logo file (PNG, JPEG or SVG): dimensions, aspect ratio, 64-bit average and perceptual hashes, and up to five dominant colors with their coverage.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the logo file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "logo_compare",
			Description: "Compare two logo files. Returns the composite similarity in [0,1] (30% perceptual hash, 20% aspect ratio, 50% color), its component scores and the match type: exact, very similar, similar, somewhat similar or different.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path_a": pathProperty("Absolute path to the first logo file"),
					"path_b": pathProperty("Absolute path to the second logo file"),
				},
				"required": []string{"path_a", "path_b"},
			},
		},
		{
			Name:        "logo_check_duplicate",
			Description: "Check whether uploading a logo file as the given owner would be accepted. Runs the duplicate and similarity rules against the stored logos without storing anything; a rejection reports its reason and, for similar logos, the closest stored match.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the logo file"),
					"owner_id": map[string]interface{}{
						"type":        "string",
						"description": "Owner the upload would belong to",
					},
				},
				"required": []string{"path", "owner_id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
