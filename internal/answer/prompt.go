package answer

import (
	"fmt"
	"strings"
)

// passageSeparator delimits retrieved passages inside the prompt.
const passageSeparator = "\n---\n"

// systemPrompt is the fixed persona instruction for answer generation.
// The assistant answers only from the supplied context and points the
// user at support or a demo when the context does not cover the
// question.
func systemPrompt(supportURL, demoURL string) string {
	var b strings.Builder
	b.WriteString("You are a friendly and professional customer support assistant for Sprypt.\n")
	b.WriteString("Answer the user's question using ONLY the context provided below.\n")
	b.WriteString("Be concise and helpful. Do not invent features, prices, or policies.\n")
	b.WriteString("If the context does not contain the information needed to answer, say so honestly")
	if supportURL != "" {
		fmt.Fprintf(&b, " and suggest visiting %s for help", supportURL)
	}
	if demoURL != "" {
		fmt.Fprintf(&b, " or booking a demo at %s", demoURL)
	}
	b.WriteString(".")
	return b.String()
}

// condensePrompt asks the model to rewrite a follow-up question as a
// standalone one, using the conversation so far.
func condensePrompt(history History, question string) string {
	var b strings.Builder
	b.WriteString("Given the following conversation and a follow-up question, rephrase the follow-up question to be a standalone question that makes sense without the conversation. Return only the rephrased question, nothing else.\n\nConversation:\n")
	for _, t := range history {
		role := "User"
		if t.Role == RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Text)
	}
	fmt.Fprintf(&b, "\nFollow-up question: %s\n\nStandalone question:", question)
	return b.String()
}

// answerPrompt assembles the generation prompt from the retrieved
// passages and the condensed question. With no passages it explicitly
// states that nothing relevant was found, so the model declines instead
// of guessing.
func answerPrompt(passages []string, question string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	if len(passages) == 0 {
		b.WriteString("(no relevant information was found in the knowledge base for this question)\n")
	} else {
		b.WriteString(strings.Join(passages, passageSeparator))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n\nAnswer:", question)
	return b.String()
}
