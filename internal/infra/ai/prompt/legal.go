package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pactguard/pactguard/internal/domain/ai"
)

// maxDocumentRunes keeps the user message inside typical context windows.
const maxDocumentRunes = 24000

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are PactGuard, an expert legal document analyzer. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- risk_score is an integer from 1 (harmless) to 10 (extremely high risk).
- Use lowercase severity values: critical, high, medium, low.
- Use lowercase category values: financial, operational, legal, compliance.
- concerns is an array ordered from most to least important; keep items concise.
- document_type is a short label such as "Terms of Service", "Privacy Policy", "Employment Contract".

Schema (example with empty values):
{
  "risk_score": 0,
  "document_type": "<string>",
  "summary": "<string>",
  "concerns": [
    {
      "title": "<string>",
      "description": "<string>",
      "severity": "<critical|high|medium|low>",
      "category": "<financial|operational|legal|compliance>"
    }
  ]
}`
}

// GetUserPrompt wraps the document text; long documents are cut.
func GetUserPrompt(text string) string {
	r := []rune(text)
	if len(r) > maxDocumentRunes {
		text = string(r[:maxDocumentRunes]) + "\n[document truncated]"
	}
	return fmt.Sprintf("Analyze the following document and respond with the JSON per schema.\n\n---\n%s\n---", text)
}

// ParseStructured pulls the first JSON object out of a model reply. Models
// often wrap JSON in prose or code fences, so everything outside the
// outermost braces is ignored. Returns nil when no object parses.
func ParseStructured(reply string) *ai.Structured {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil
	}
	var s ai.Structured
	if err := json.Unmarshal([]byte(reply[start:end+1]), &s); err != nil {
		return nil
	}
	if s.RiskScore == 0 && s.Summary == "" && s.DocumentType == "" && len(s.Concerns) == 0 {
		return nil
	}
	return &s
}
