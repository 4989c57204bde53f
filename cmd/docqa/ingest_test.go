package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bull/docqa/internal/indexer"
)

func TestCheckResult(t *testing.T) {
	tests := []struct {
		name    string
		result  indexer.IndexResult
		wantErr bool
	}{
		{name: "all ingested", result: indexer.IndexResult{TotalDocs: 2, SuccessfulDocs: 2}},
		{name: "partial", result: indexer.IndexResult{TotalDocs: 2, SuccessfulDocs: 1}},
		{name: "nothing found", result: indexer.IndexResult{}},
		{name: "all failed", result: indexer.IndexResult{TotalDocs: 2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkResult(&tt.result)
			if tt.wantErr {
				assert.EqualError(t, err, "all 2 documents failed")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPrintResult_ListsFailures(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &indexer.IndexResult{
		TotalDocs:      2,
		SuccessfulDocs: 1,
		TotalChunks:    4,
		FailedDocs:     []indexer.FailedDoc{{Path: "bad.docx", Reason: "parse failed"}},
		Duration:       1500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "Documents: 1/2")
	assert.Contains(t, out, "Chunks: 4")
	assert.Contains(t, out, "Duration: 1.5s")
	assert.Contains(t, out, "  - bad.docx: parse failed")
}
