// Package chunker splits document text into bounded word chunks for embedding.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the chunk budget in characters, counted over words only.
const DefaultMaxLength = 500

// Chunk is a slice of a source document, the unit of embedding and indexing.
type Chunk struct {
	Text          string
	SourceID      string
	SequenceIndex int
}

// Splitter produces ordered chunks tagged with their source.
type Splitter struct {
	maxLength int
}

// NewSplitter creates a Splitter. If maxLength is 0 or negative, DefaultMaxLength is used.
func NewSplitter(maxLength int) *Splitter {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Splitter{maxLength: maxLength}
}

// MaxLength returns the configured chunk budget.
func (s *Splitter) MaxLength() int {
	return s.maxLength
}

// SplitDocument splits text and tags each chunk with source and its running index.
func (s *Splitter) SplitDocument(text, source string) []Chunk {
	parts := Split(text, s.maxLength)
	chunks := make([]Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = Chunk{
			Text:          part,
			SourceID:      source,
			SequenceIndex: i,
		}
	}
	return chunks
}

// Split accumulates whitespace-delimited words into chunks joined by single spaces.
//
// A chunk is closed when adding the next word would bring the summed word lengths
// in characters (separators excluded) to maxLength or beyond; that word starts the next chunk.
// Words are never split, so a word of maxLength characters or more becomes a chunk
// of its own. Empty or all-whitespace text yields no chunks, and no chunk is empty.
func Split(text string, maxLength int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	size := 0

	for _, word := range words {
		n := utf8.RuneCountInString(word)
		if len(current) > 0 && size+n >= maxLength {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			size = 0
		}
		current = append(current, word)
		size += n
	}
	chunks = append(chunks, strings.Join(current, " "))

	return chunks
}
