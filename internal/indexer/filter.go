package indexer

import (
	"context"
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar/v4"
)

// Filtered narrows a Source to paths matching Include (all, when empty) and not
// matching Exclude. Patterns use ** globbing and are tried against both the full
// relative path and its base name.
type Filtered struct {
	Source
	Include []string
	Exclude []string
}

// NewFiltered validates the patterns and wraps src.
func NewFiltered(src Source, include, exclude []string) (*Filtered, error) {
	for _, pattern := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: invalid pattern %q", ErrValidation, pattern)
		}
	}
	return &Filtered{Source: src, Include: include, Exclude: exclude}, nil
}

// ListFiles lists the underlying source and drops filtered paths.
func (f *Filtered) ListFiles(ctx context.Context) ([]string, error) {
	paths, err := f.Source.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	kept := paths[:0:0]
	for _, p := range paths {
		if f.keep(p) {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

func (f *Filtered) keep(p string) bool {
	if anyMatch(f.Exclude, p) {
		return false
	}
	return len(f.Include) == 0 || anyMatch(f.Include, p)
}

func anyMatch(patterns []string, p string) bool {
	base := path.Base(p)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
