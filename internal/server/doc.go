// Package server implements the MCP (Model Context Protocol) tool server for
// the logo gallery.
//
// It exposes the upload pipeline to MCP clients so an assistant can inspect
// logo files before they are submitted: extract their features, compare two
// files, or ask whether an upload would be accepted.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - logo_extract_features: Dimensions, hashes and dominant colors of a file
//   - logo_compare: Composite similarity and match type of two files
//   - logo_check_duplicate: Dry run of the upload guard for an owner; nothing
//     is stored
//
// # Feature Caching
//
// Features are cached by path for the lifetime of the process, so comparing
// one file against many others decodes it once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A rejected dry run is not an error: logo_check_duplicate reports the
// rejection reason in its result.
//
// # Usage
//
//	srv := server.New(g, logger)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal("tool server failed", zap.Error(err))
//	}
package server
