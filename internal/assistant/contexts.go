package assistant

import "strings"

// Context names accepted by the chat endpoint.
const (
	ContextBorrower    = "borrower"
	ContextLoanOfficer = "loan_officer"
	ContextProcessor   = "processor"
	ContextUnderwriter = "underwriter"
	ContextAdmin       = "admin"
	ContextExecutive   = "executive"
	ContextCRM         = "crm"
	ContextProperty    = "property"
	ContextGeneral     = "general"
)

var systemPrompts = map[string]string{
	ContextBorrower:    "You are assisting a borrower with a loan inquiry.",
	ContextLoanOfficer: "You are supporting a loan officer with deal structuring.",
	ContextProcessor:   "You are helping a loan processor manage documentation and files.",
	ContextUnderwriter: "You are aiding an underwriter in risk evaluation.",
	ContextAdmin:       "You are assisting a system administrator with operational insights.",
	ContextExecutive:   "You are advising an executive on portfolio strategy.",
	ContextCRM:         "You are helping manage client relationships and communication.",
	ContextProperty:    "You are assisting with real estate market insights.",
	ContextGeneral:     "You are a helpful financial AI assistant.",
}

// NormalizeContext maps a requested role onto a known context.
// Unknown or empty values become ContextGeneral.
func NormalizeContext(role string) string {
	key := strings.ToLower(strings.TrimSpace(role))
	if _, ok := systemPrompts[key]; ok {
		return key
	}
	return ContextGeneral
}

// SystemPrompt returns the system instruction for a context.
func SystemPrompt(role string) string {
	return systemPrompts[NormalizeContext(role)]
}

// BuildPrompt renders the system instruction followed by the recent turns.
func BuildPrompt(system string, turns []Turn) string {
	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nConversation so far:\n")
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(speakerLabel(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	b.WriteString("\n\nAI, please continue helpfully.")
	return b.String()
}

func speakerLabel(role string) string {
	if role == "" {
		return ""
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
