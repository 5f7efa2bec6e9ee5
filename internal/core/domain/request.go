package domain

import "strings"

// TaskType identifies the kind of grounded answer requested
type TaskType string

const (
	TaskReport TaskType = "report"
	TaskChat   TaskType = "chat"
)

// IsValid returns true if this is a known task type
func (t TaskType) IsValid() bool {
	return t == TaskReport || t == TaskChat
}

// SchemaRequest asks for a structured report on the given schemas.
type SchemaRequest struct {
	Schemas []string `json:"schemas" validate:"required,min=1,dive,required"`
}

// ChatRequest asks a free-form question scoped to the given schemas.
type ChatRequest struct {
	Schemas  []string `json:"schemas" validate:"required,min=1,dive,required"`
	Question string   `json:"question" validate:"required"`
}

// Normalize trims whitespace from every schema name.
// Order is preserved; blank names stay blank so validation rejects them.
func (r *SchemaRequest) Normalize() {
	r.Schemas = trimAll(r.Schemas)
}

// Normalize trims whitespace from the schema names and the question.
func (r *ChatRequest) Normalize() {
	r.Schemas = trimAll(r.Schemas)
	r.Question = strings.TrimSpace(r.Question)
}

func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// Prompt is the rendered instruction text plus the query used for retrieval.
type Prompt struct {
	Instructions   string
	RetrievalQuery string
}

// GroundedText is the output of a retrieval-augmented generation call.
type GroundedText struct {
	Text     string
	Passages []RetrievedPassage
	Model    string
}

// GroundedAnswer is the result returned to callers of the orchestrator.
type GroundedAnswer struct {
	Task     TaskType `json:"task"`
	Text     string   `json:"text"`
	Schemas  []string `json:"schemas"`
	Question string   `json:"question,omitempty"`
	Passages int      `json:"passages"`
	Model    string   `json:"model,omitempty"`
}
