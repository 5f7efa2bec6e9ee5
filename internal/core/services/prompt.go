package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

// Fallback sentences the model must emit verbatim when the sources are insufficient.
const (
	ReportFallbackTemplate = "Sağlanan dokümanlarda '%s' hakkında detaylı bilgi bulunamadı."
	ChatFallback           = "Sağlanan dokümanlarda bu sorunuza yeterli bilgi bulunamadı, ancak mevcut bilgiler ışığında şunları söyleyebilirim..."
)

// Section labels of the structured report.
const (
	ReportOverviewHeaderFormat = "## ▶️ %s: General Overview"
	ReportEffectsHeader        = "### Potential Effects on Your Life"
	ReportNextStepsHeader      = "### Next Steps (According to the Sources)"
	ReportSectionSeparator     = "---"
)

const reportRole = `ROLE: You are an expert Schema Therapy assistant. Your tone must be supportive, educational, and non-judgmental. You MUST base your entire analysis strictly on the context provided from the user's uploaded documents. Never use external knowledge. Do not act as a therapist or provide a clinical diagnosis.`

const chatRole = `You are an expert Schema Therapy assistant providing contextual support and education. Your tone must be supportive, educational, and non-judgmental. You MUST base your entire response strictly on the context provided from the user's uploaded documents. Never use external knowledge.`

var chatRules = []string{
	"**Directly addresses the user's specific question** in relation to their identified schemas",
	"**Provides educational information** from the source documents that relates to both their schemas and their question",
	"**Maintains a supportive, non-judgmental tone** throughout the response",
	"**Explains concepts clearly** using language that is accessible and understandable",
	"**Connects the answer to their specific schema context** when relevant",
	"**Avoids providing clinical diagnoses or therapeutic advice** - focus on educational information only",
	"**If the source material doesn't contain enough information** to answer the question, clearly state this limitation",
}

// ReportFallback returns the fallback sentence for one schema.
func ReportFallback(schema string) string {
	return fmt.Sprintf(ReportFallbackTemplate, schema)
}

// ReportRetrievalQuery is the text used to retrieve context for a report.
func ReportRetrievalQuery(schemas []string) string {
	return strings.Join(schemas, ", ")
}

// ChatRetrievalQuery folds the schemas and the question into one retrieval query.
func ChatRetrievalQuery(schemas []string, question string) string {
	return fmt.Sprintf("Regarding the schemas '%s', the user asks: %s", strings.Join(schemas, ", "), question)
}

// BuildReportPrompt renders the report instructions, one section per schema in order.
func BuildReportPrompt(schemas []string) domain.Prompt {
	schemaList := strings.Join(schemas, ", ")

	var b strings.Builder
	b.WriteString(reportRole)
	b.WriteString("\n\n")
	b.WriteString("CONTEXT: The relevant text snippets from the user's documents are provided separately, retrieved for the schemas below.\n\n")
	fmt.Fprintf(&b, "USER DATA: A user has completed a questionnaire, and their most dominant schemas have been identified as: **%s**.\n\n", schemaList)
	b.WriteString("TASK: Based ONLY on the provided CONTEXT, generate a personalized and structured educational report for the user. ")
	b.WriteString("Structure your response using Markdown for clear formatting. Write exactly the following sections, in this order, filling in each placeholder:\n\n")

	for i, schema := range schemas {
		if i > 0 {
			b.WriteString(ReportSectionSeparator)
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, ReportOverviewHeaderFormat, schema)
		b.WriteString("\n(Provide a detailed definition and core concept of this schema based on the provided texts.)\n\n")
		b.WriteString(ReportEffectsHeader)
		b.WriteString("\n(Based on the texts, explain how this schema might manifest in the user's daily life, thoughts, feelings, and relationships.)\n\n")
		b.WriteString(ReportNextStepsHeader)
		b.WriteString("\n(Summarize the suggestions, strategies, or steps for change related to this schema that are mentioned in the source documents. Always frame this as educational information from the texts, not as direct advice.)\n\n")
	}

	b.WriteString("If you cannot find sufficient information for one of these schemas in the provided CONTEXT, write the matching sentence below verbatim in its section instead:\n")
	for _, schema := range schemas {
		fmt.Fprintf(&b, "- \"%s\"\n", ReportFallback(schema))
	}

	return domain.Prompt{
		Instructions:   b.String(),
		RetrievalQuery: ReportRetrievalQuery(schemas),
	}
}

// BuildChatPrompt renders the chat instructions for a question about the schemas.
func BuildChatPrompt(schemas []string, question string) domain.Prompt {
	schemaList := strings.Join(schemas, ", ")
	query := ChatRetrievalQuery(schemas, question)

	var b strings.Builder
	b.WriteString(chatRole)
	b.WriteString("\n\n")
	b.WriteString("CONTEXT: The relevant text snippets from the user's documents are provided separately, retrieved for the contextual query below.\n\n")
	fmt.Fprintf(&b, "USER CONTEXT: The user has been identified with these dominant schemas: **%s**.\n\n", schemaList)
	fmt.Fprintf(&b, "USER QUESTION: \"%s\"\n\n", question)
	fmt.Fprintf(&b, "CONTEXTUAL QUERY FOR RETRIEVAL: %s\n\n", query)
	b.WriteString("TASK: Based ONLY on the provided CONTEXT, provide a helpful, personalized response that:\n\n")
	for i, rule := range chatRules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}
	b.WriteString("\nStructure your response in a conversational yet informative way. Use the retrieved context to provide accurate, source-based information while keeping the user's specific schemas in mind.\n\n")
	fmt.Fprintf(&b, "If you cannot find sufficient information in the provided CONTEXT to answer the question, you must clearly state: \"%s\"\n", ChatFallback)

	return domain.Prompt{
		Instructions:   b.String(),
		RetrievalQuery: query,
	}
}

// BuildPrompt selects the template for the task.
func BuildPrompt(task domain.TaskType, schemas []string, question string) (domain.Prompt, error) {
	switch task {
	case domain.TaskReport:
		return BuildReportPrompt(schemas), nil
	case domain.TaskChat:
		return BuildChatPrompt(schemas, question), nil
	default:
		return domain.Prompt{}, fmt.Errorf("%w: unknown task type %q", domain.ErrInvalidInput, task)
	}
}
