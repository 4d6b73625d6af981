package errors

import (
	"errors"
	"fmt"
	"strings"

	"resume-analyzer/internal/models"
)

// indicates an unrecoverable error
var ErrPermanentFailure = errors.New("permanent failure, do not retry")

var (
	ErrUploadFailed     = errors.New("upload failed")
	ErrExtractionFailed = errors.New("failed to extract text from resume")
	ErrAnalysisFailed   = errors.New("resume analysis failed")
	ErrPersistFailed    = errors.New("failed to save analysis")
)

const GenericMessage = "An error occurred while processing your resume"

// PipelineError ties a failure to the stage it happened in.
type PipelineError struct {
	Stage models.Stage
	Kind  error
	Err   error
}

func NewPipelineError(stage models.Stage, kind, err error) *PipelineError {
	return &PipelineError{Stage: stage, Kind: kind, Err: err}
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

// errors.Is matches both the kind and anything in the cause chain
func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UserMessage collapses any pipeline failure into the single line shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var pe *PipelineError
	if errors.As(err, &pe) {
		if pe.Err != nil {
			if msg := strings.TrimSpace(pe.Err.Error()); msg != "" {
				return msg
			}
		}
		if pe.Kind != nil {
			return pe.Kind.Error()
		}
		return GenericMessage
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return GenericMessage
}

// StageOf reports where a pipeline error happened, StageIdle when unknown.
func StageOf(err error) models.Stage {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return models.StageIdle
}
