package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Difficulty is the self-assessed difficulty of a solved question.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyHard      Difficulty = "hard"
	DifficultyUndefined Difficulty = "undefined"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyUndefined:
		return true
	}
	return false
}

// Question is one solved-question record in an algorithm's list.
type Question struct {
	ID              int64      `json:"id"`
	Problem         string     `json:"problem"`
	Intuition       string     `json:"intuition"`
	Approaches      string     `json:"approaches"`
	Story           string     `json:"story"`
	DryRun          string     `json:"dryRun"`
	EdgeCases       string     `json:"edgeCases"`
	Solution        string     `json:"solution"`
	TimeComplexity  string     `json:"timeComplexity"`
	SpaceComplexity string     `json:"spaceComplexity"`
	Difficulty      Difficulty `json:"difficulty"`
	CreatedAt       string     `json:"createdAt"`

	// Extra holds fields this version does not know about, so whole-document
	// writes hand them back unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

var questionFields = map[string]bool{
	"id": true, "problem": true, "problemName": true, "intuition": true,
	"approaches": true, "story": true, "dryRun": true, "edgeCases": true,
	"solution": true, "timeComplexity": true, "spaceComplexity": true,
	"difficulty": true, "createdAt": true,
}

// UnmarshalJSON also accepts the older "problemName" label field.
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	aux := struct {
		*plain
		ProblemName string `json:"problemName"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if q.Problem == "" {
		q.Problem = aux.ProblemName
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Extra = nil
	for k, v := range raw {
		if questionFields[k] {
			continue
		}
		if q.Extra == nil {
			q.Extra = make(map[string]json.RawMessage)
		}
		q.Extra[k] = v
	}
	return nil
}

func (q Question) MarshalJSON() ([]byte, error) {
	type plain Question
	data, err := json.Marshal(plain(q))
	if err != nil || len(q.Extra) == 0 {
		return data, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range q.Extra {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Document is the persisted form of one algorithm's list.
type Document struct {
	Questions []Question `json:"questions"`
}

// Status is the transient persistence feedback shown next to the list.
type Status string

const (
	StatusIdle   Status = ""
	StatusSaving Status = "Saving..."
	StatusSaved  Status = "Saved!"
	StatusError  Status = "Error!"
)

// State is a point-in-time copy of a list.
type State struct {
	Slug      string     `json:"slug"`
	Loading   bool       `json:"loading"`
	Questions []Question `json:"questions"`
	Status    Status     `json:"status"`
}

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrLoading          = errors.New("list is still loading")
	ErrNotLoaded        = errors.New("no algorithm loaded")
	ErrClosed           = errors.New("list is closed")
	ErrSuperseded       = errors.New("load superseded by a newer load")
	ErrUnknownSlug      = errors.New("unknown algorithm")
)

// ValidationError reports a rejected record. No state changes accompany it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// normalize validates q and fills defaults.
func normalize(q Question) (Question, error) {
	if strings.TrimSpace(q.Problem) == "" {
		return q, &ValidationError{Field: "problem", Message: "Problem Statement cannot be empty."}
	}
	if q.Difficulty == "" {
		q.Difficulty = DifficultyMedium
	}
	if !q.Difficulty.Valid() {
		return q, &ValidationError{Field: "difficulty", Message: "difficulty must be easy, medium, hard or undefined"}
	}
	return q, nil
}

func indexOf(questions []Question, id int64) int {
	for i, q := range questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}
