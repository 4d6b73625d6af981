package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus int

// the zero value is pending so a freshly built record is never marked completed by accident
const (
	StatusPending AnalysisStatus = iota
	StatusCompleted
)

type ContactInfo struct {
	Name string `json:"name,omitempty"`

	Email string `json:"email,omitempty"`

	Phone string `json:"phone,omitempty"`

	Location string `json:"location,omitempty"`

	LinkedIn string `json:"linkedin,omitempty"`

	Portfolio string `json:"portfolio,omitempty"`
}

type WorkExperience struct {
	Company          string   `json:"company,omitempty"`
	Position         string   `json:"position,omitempty"`
	Duration         string   `json:"duration,omitempty"`
	Location         string   `json:"location,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

type Education struct {
	Institution    string `json:"institution,omitempty"`
	Degree         string `json:"degree,omitempty"`
	Field          string `json:"field,omitempty"`
	GraduationYear string `json:"graduation_year,omitempty"`
	GPA            string `json:"gpa,omitempty"`
}

type Project struct {
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

type Suggestion struct {
	Category   string   `json:"category,omitempty"`
	Suggestion string   `json:"suggestion"`
	Priority   Priority `json:"priority"`
}

type SuggestedSkill struct {
	Skill    string `json:"skill"`
	Reason   string `json:"reason,omitempty"`
	Category string `json:"category,omitempty"`
}

// Analysis is the part of a record produced by the LLM.
type Analysis struct {
	ContactInfo ContactInfo `json:"contact_info"`

	Summary string `json:"summary,omitempty"`

	WorkExperience []WorkExperience `json:"work_experience"`

	Education []Education `json:"education"`

	Skills []string `json:"skills"`

	Certifications []string `json:"certifications"`

	Projects []Project `json:"projects"`

	OverallRating float64 `json:"overall_rating"`

	// keys are not fixed, models return whatever categories they rated
	CategoryRatings map[string]float64 `json:"category_ratings"`

	ImprovementSuggestions []Suggestion `json:"improvement_suggestions"`

	SuggestedSkills []SuggestedSkill `json:"suggested_skills"`
}

type ResumeAnalysis struct {
	ID uuid.UUID `json:"id" db:"id"`

	Filename string `json:"filename" db:"filename"`

	FileURL string `json:"file_url" db:"file_url"`

	AnalysisStatus AnalysisStatus `json:"analysis_status" db:"analysis_status"`

	Analysis

	CreatedDate time.Time `json:"created_date" db:"created_date"`
}

func (s AnalysisStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Advance moves the status forward. Going back from completed is refused.
func (s AnalysisStatus) Advance(next AnalysisStatus) (AnalysisStatus, error) {
	if next < s {
		return s, fmt.Errorf("analysis status cannot move from %s to %s", s, next)
	}
	return next, nil
}

func ParseAnalysisStatus(s string) (AnalysisStatus, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return StatusPending, fmt.Errorf("unknown analysis status %q", s)
	}
}

func (s AnalysisStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *AnalysisStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	parsed, err := ParseAnalysisStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
