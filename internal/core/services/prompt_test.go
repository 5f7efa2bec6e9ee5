package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

func TestBuildReportPrompt_OneSectionPerSchemaInOrder(t *testing.T) {
	schemas := []string{"Terk Edilme", "Kusurluluk", "Duygusal Yoksunluk"}
	prompt := BuildReportPrompt(schemas)

	if strings.Count(prompt.Instructions, "## ▶️ ") != len(schemas) {
		t.Fatalf("expected %d overview headers, got %d", len(schemas), strings.Count(prompt.Instructions, "## ▶️ "))
	}
	if strings.Count(prompt.Instructions, ReportEffectsHeader) != len(schemas) {
		t.Errorf("expected one effects header per schema")
	}
	if strings.Count(prompt.Instructions, ReportNextStepsHeader) != len(schemas) {
		t.Errorf("expected one next steps header per schema")
	}

	last := -1
	for _, schema := range schemas {
		header := fmt.Sprintf(ReportOverviewHeaderFormat, schema)
		idx := strings.Index(prompt.Instructions, header)
		if idx < 0 {
			t.Fatalf("missing header %q", header)
		}
		if idx <= last {
			t.Errorf("header %q out of order", header)
		}
		last = idx
	}
}

func TestBuildReportPrompt_TwoSchemas(t *testing.T) {
	prompt := BuildReportPrompt([]string{"Abandonment", "Mistrust"})

	abandonment := strings.Index(prompt.Instructions, "## ▶️ Abandonment: General Overview")
	mistrust := strings.Index(prompt.Instructions, "## ▶️ Mistrust: General Overview")
	if abandonment < 0 || mistrust < 0 || abandonment > mistrust {
		t.Fatalf("expected Abandonment section before Mistrust section")
	}
	if strings.Count(prompt.Instructions, "\n"+ReportSectionSeparator+"\n") != 1 {
		t.Errorf("expected exactly one separator between two sections")
	}
}

func TestBuildReportPrompt_FallbacksAndRole(t *testing.T) {
	schemas := []string{"Abandonment", "Mistrust"}
	prompt := BuildReportPrompt(schemas)

	for _, schema := range schemas {
		want := fmt.Sprintf("Sağlanan dokümanlarda '%s' hakkında detaylı bilgi bulunamadı.", schema)
		if !strings.Contains(prompt.Instructions, want) {
			t.Errorf("missing fallback sentence %q", want)
		}
	}
	if !strings.Contains(prompt.Instructions, "Never use external knowledge.") {
		t.Error("expected the prompt to restrict the model to provided context")
	}
	if !strings.Contains(prompt.Instructions, "**Abandonment, Mistrust**") {
		t.Error("expected the schema list in the user data block")
	}
	if prompt.RetrievalQuery != "Abandonment, Mistrust" {
		t.Errorf("unexpected retrieval query %q", prompt.RetrievalQuery)
	}
}

func TestBuildChatPrompt(t *testing.T) {
	schemas := []string{"Abandonment", "Mistrust"}
	question := "How can I cope with this?"
	prompt := BuildChatPrompt(schemas, question)

	wantQuery := "Regarding the schemas 'Abandonment, Mistrust', the user asks: How can I cope with this?"
	if prompt.RetrievalQuery != wantQuery {
		t.Errorf("expected retrieval query %q, got %q", wantQuery, prompt.RetrievalQuery)
	}

	for _, want := range []string{
		`USER QUESTION: "How can I cope with this?"`,
		"CONTEXTUAL QUERY FOR RETRIEVAL: " + wantQuery,
		"**Abandonment, Mistrust**",
		ChatFallback,
		"7. ",
	} {
		if !strings.Contains(prompt.Instructions, want) {
			t.Errorf("chat prompt missing %q", want)
		}
	}
	if strings.Contains(prompt.Instructions, "## ▶️") {
		t.Error("chat prompt must not contain report sections")
	}
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name    string
		task    domain.TaskType
		wantErr bool
	}{
		{"report", domain.TaskReport, false},
		{"chat", domain.TaskChat, false},
		{"unknown", domain.TaskType("summary"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := BuildPrompt(tt.task, []string{"Abandonment"}, "why?")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if prompt.Instructions == "" || prompt.RetrievalQuery == "" {
				t.Error("expected non-empty prompt")
			}
		})
	}
}
