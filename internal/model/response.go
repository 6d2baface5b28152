package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// ─── Response Envelope ────────────────────────────────────────────────────────

// Metadata carries fetch_date, cache_hit, echoed request parameters, and
// (for errors) error_kind. Keys are short snake_case strings.
type Metadata map[string]any

// ToolResponse is the uniform envelope returned by every tool.
// Exactly one of Data or Error is non-empty.
type ToolResponse struct {
	Tool     string   `json:"tool"`
	Data     any      `json:"data,omitempty"`
	Metadata Metadata `json:"metadata"`
	Error    string   `json:"error,omitempty"`
}

// Clock is overridable so tests can pin fetch_date.
var Clock = time.Now

// NewResponse builds an empty envelope for tool, stamping fetch_date.
func NewResponse(tool string) *ToolResponse {
	return &ToolResponse{
		Tool: tool,
		Metadata: Metadata{
			"fetch_date": Clock().UTC().Format(time.RFC3339),
		},
	}
}

// NewErrorResponse builds an error envelope with the given kind and message.
func NewErrorResponse(tool, kind, message string) *ToolResponse {
	r := NewResponse(tool)
	r.Error = message
	r.Metadata["error_kind"] = kind
	return r
}

// Echo records a request parameter in metadata, skipping zero values so the
// echo only reflects parameters that were actually in effect.
func (r *ToolResponse) Echo(key string, value any) *ToolResponse {
	switch v := value.(type) {
	case string:
		if v == "" {
			return r
		}
	case nil:
		return r
	}
	r.Metadata[key] = value
	return r
}

// SetCacheHit records whether the payload came from cache.
func (r *ToolResponse) SetCacheHit(hit bool) *ToolResponse {
	r.Metadata["cache_hit"] = hit
	return r
}

// IsError reports whether this is an error envelope.
func (r *ToolResponse) IsError() bool {
	return r.Error != ""
}

// Encode serializes the envelope as compact JSON (minimal separators, no
// HTML escaping, no trailing newline). Compactness is a token-budget decision
// for LLM consumers.
func (r *ToolResponse) Encode() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
