package rag

import (
	"fmt"
	"strings"

	"github.com/yuhao0/newsrag/internal/article"
	"github.com/yuhao0/newsrag/internal/session"
)

// NoContextSentinel is the context block used when retrieval returns no
// chunks. It is deliberately not an empty string so the model receives an
// unambiguous signal that no grounding material exists.
const NoContextSentinel = "No relevant articles were found in the knowledge base for this question."

// groundingInstruction is the system directive prepended to every prompt.
const groundingInstruction = `You are a helpful news assistant. Answer the user's question using ONLY the information in the context articles below.
If the context does not contain the information needed, say so clearly instead of guessing.
Cite the articles you used by their number. Keep a conversational tone.`

// AssembleContext renders retrieved chunks as a labeled article list in
// the order given. It is deterministic for a given input ordering and
// returns NoContextSentinel for zero chunks.
func AssembleContext(chunks []article.Chunk) string {
	if len(chunks) == 0 {
		return NoContextSentinel
	}

	var b strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}

		title := chunk.Metadata.Title
		if title == "" {
			title = chunk.Metadata.Source
		}
		fmt.Fprintf(&b, "[Article %d] %s", i+1, title)

		if chunk.Metadata.URL != "" {
			fmt.Fprintf(&b, " (%s)", chunk.Metadata.URL)
		}
		if !chunk.Metadata.PublishedAt.IsZero() {
			fmt.Fprintf(&b, " - %s", chunk.Metadata.PublishedAt.Format("2006-01-02"))
		}
		b.WriteString("\n")
		b.WriteString(chunk.Content)
	}
	return b.String()
}

// RenderHistory renders messages as role-tagged lines, oldest first.
// An empty history renders as an empty string.
func RenderHistory(messages []session.Message) string {
	if len(messages) == 0 {
		return ""
	}

	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", msg.Role, msg.Content)
	}
	return b.String()
}

// BuildPrompt composes the grounding instruction, context block, rendered
// history, and the user's question into a single prompt.
func BuildPrompt(contextBlock, history, question string) string {
	var b strings.Builder
	b.WriteString(groundingInstruction)
	b.WriteString("\n\nContext articles:\n")
	b.WriteString(contextBlock)
	if history != "" {
		b.WriteString("\n\nConversation so far:\n")
		b.WriteString(history)
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
