package ui

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPipeline = errors.New("unknown pipeline")
	ErrProcessorType   = errors.New("processor has the wrong signature")
	ErrUnknownEvent    = errors.New("unknown ui event")
)

// ProcessorError is a failure of a single pipeline stage. The stage is skipped.
type ProcessorError struct {
	Pipeline string
	ID       string
	Err      error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor %s of pipeline %s: %v", e.ID, e.Pipeline, e.Err)
}

func (e *ProcessorError) Unwrap() error {
	return e.Err
}
