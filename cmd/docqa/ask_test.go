package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bull/docqa/internal/indexer"
)

func sampleAnswer() *indexer.Answer {
	return &indexer.Answer{
		Text:    "refunds take five days\n\nreturns need a receipt",
		Sources: []string{"faq.txt", "policy.pdf"},
		Matches: []indexer.Match{
			{Text: "refunds take five days", Source: "faq.txt", Score: 0.91},
			{Text: "returns need a receipt", Source: "policy.pdf", Score: 0.74},
		},
		Found: true,
	}
}

func TestWriteAnswer_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnswer(&buf, sampleAnswer(), "text"))
	assert.Equal(t, "refunds take five days\n\nreturns need a receipt\n\nSources: faq.txt, policy.pdf\n", buf.String())
}

func TestWriteAnswer_NothingFound(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnswer(&buf, &indexer.Answer{Text: indexer.NoRelevantContent, Sources: []string{}}, "text"))
	assert.Equal(t, "No relevant content found.\n", buf.String())
}

func TestWriteAnswer_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnswer(&buf, sampleAnswer(), "json"))

	var got askResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []string{"faq.txt", "policy.pdf"}, got.Sources)
	assert.Equal(t, 0.91, got.Matches[0].Score)
	assert.Contains(t, buf.String(), `"source": "faq.txt"`)
}

func TestWriteAnswer_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnswer(&buf, sampleAnswer(), "yaml"))

	var got askResult
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleAnswer().Text, got.Answer)
	assert.Len(t, got.Matches, 2)
}
