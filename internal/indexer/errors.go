package indexer

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is against any error returned by the pipelines.
var (
	ErrValidation = errors.New("validation error")
	ErrParse      = errors.New("parse error")
	ErrEmbedding  = errors.New("embedding error")
	ErrStore      = errors.New("store error")
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageValidate Stage = "validate"
	StageParse    Stage = "parse"
	StageEmbed    Stage = "embed"
	StageStore    Stage = "store"
)

var stageKinds = map[Stage]error{
	StageValidate: ErrValidation,
	StageParse:    ErrParse,
	StageEmbed:    ErrEmbedding,
	StageStore:    ErrStore,
}

// StageError reports which stage of an ingest or query call failed.
type StageError struct {
	Stage  Stage
	Source string // empty for queries
	Err    error
}

func (e *StageError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s %q: %v", e.Stage, e.Source, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Is matches the error kind of the failed stage.
func (e *StageError) Is(target error) bool {
	return stageKinds[e.Stage] == target
}

// StageOf returns the failed stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

func stageErr(stage Stage, source string, err error) error {
	return &StageError{Stage: stage, Source: source, Err: err}
}
