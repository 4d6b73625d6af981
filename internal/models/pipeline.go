package models

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
)

type Stage int

const (
	StageIdle Stage = iota
	StageUploading
	StageExtracting
	StageAnalyzing
	StagePersisting
	StageDone
	StageFailed
)

// ResumeFile is an upload that already passed the PDF and size checks.
type ResumeFile struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// Progress is what a caller needs to render the five step wizard.
type Progress struct {
	Stage Stage `json:"stage"`

	Step int `json:"step"`

	// stage the run was in when it failed
	FailedAt Stage `json:"failed_at,omitempty"`

	Error string `json:"error,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// PipelineRun records how far one invocation got and which external ids it obtained,
// so a failed run can be cleaned up afterwards.
type PipelineRun struct {
	ID uuid.UUID `json:"id" db:"id"`

	Filename string `json:"filename" db:"filename"`

	Stage Stage `json:"stage" db:"stage"`

	FileURL string `json:"file_url,omitempty" db:"file_url"`

	ObjectKey string `json:"object_key,omitempty" db:"object_key"`

	RecordID *uuid.UUID `json:"record_id,omitempty" db:"record_id"`

	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`

	Compensated bool `json:"compensated" db:"compensated"`

	StartedAt time.Time `json:"started_at" db:"started_at"`

	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageUploading:
		return "uploading"
	case StageExtracting:
		return "extracting"
	case StageAnalyzing:
		return "analyzing"
	case StagePersisting:
		return "persisting"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Step is the wizard counter: 0 before the first stage, 5 once complete.
func (s Stage) Step() int {
	switch s {
	case StageUploading:
		return 1
	case StageExtracting:
		return 2
	case StageAnalyzing:
		return 3
	case StagePersisting:
		return 4
	case StageDone:
		return 5
	default:
		return 0
	}
}

func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// Next is the only forward edge out of s. Terminal stages have none.
func (s Stage) Next() (Stage, bool) {
	if s.Terminal() {
		return s, false
	}
	return s + 1, true
}

func ParseStage(str string) Stage {
	for s := StageIdle; s <= StageFailed; s++ {
		if s.String() == str {
			return s
		}
	}
	return StageIdle
}

func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ParseStage(str)
	return nil
}
