// Package mcp exposes document ingestion and question answering as MCP tools.
package mcp

// AskInput defines the input parameters for the ask tool.
type AskInput struct {
	// Question is the free-text query.
	Question string `json:"question" jsonschema:"the question to answer from indexed documents"`
	// TopK overrides the number of chunks retrieved.
	TopK int `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (defaults to the server setting)"`
}

// AskOutput contains the retrieved answer.
type AskOutput struct {
	// Answer is the retrieved chunk texts joined by blank lines.
	Answer string `json:"answer"`
	// Sources lists each distinct source once, in ranking order.
	Sources []string `json:"sources"`
	// Matches carries the individual chunks with their scores.
	Matches []Match `json:"matches"`
	// Found is false when nothing was retrieved.
	Found bool `json:"found"`
}

// Match is one retrieved chunk.
type Match struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// IngestTextInput defines the input parameters for the ingest_text tool.
type IngestTextInput struct {
	Text   string `json:"text" jsonschema:"the raw document text to index"`
	Source string `json:"source,omitempty" jsonschema:"source label stored with every chunk (defaults to unknown)"`
}

// IngestTextOutput reports how many chunks were stored.
type IngestTextOutput struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

// StatusInput takes no parameters.
type StatusInput struct{}

// StatusOutput describes the index.
type StatusOutput struct {
	Collection  string `json:"collection"`
	Backend     string `json:"backend"`
	TotalPoints uint64 `json:"total_points"`
}
