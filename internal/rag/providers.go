package rag

import (
	"context"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Embedder converts texts into fixed-dimension vectors. The returned slice
// has the same length and order as the input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer generates text for a prompt. Implementations must never
// return empty text with a nil error.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GenkitEmbedder adapts a Genkit ai.Embedder to the Embedder interface,
// normalizing its response shape and error reporting.
type GenkitEmbedder struct {
	embedder ai.Embedder
}

// NewGenkitEmbedder wraps a Genkit embedder.
func NewGenkitEmbedder(embedder ai.Embedder) *GenkitEmbedder {
	return &GenkitEmbedder{embedder: embedder}
}

// Embed generates one vector per input text.
func (e *GenkitEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	docs := make([]*ai.Document, len(texts))
	for i, text := range texts {
		docs[i] = ai.DocumentFromText(text, nil)
	}

	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, newProviderError("embedding", "embed request failed", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, newProviderError("embedding", "response size does not match input", nil)
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) == 0 {
			return nil, newProviderError("embedding", "empty vector in response", nil)
		}
		vectors[i] = emb.Embedding
	}
	return vectors, nil
}

// GenkitCompleter adapts genkit.Generate to the Completer interface using
// a provider-qualified model name.
type GenkitCompleter struct {
	g         *genkit.Genkit
	modelName string
}

// NewGenkitCompleter creates a completer for the given model, e.g.
// "googleai/gemini-2.5-flash".
func NewGenkitCompleter(g *genkit.Genkit, modelName string) *GenkitCompleter {
	return &GenkitCompleter{g: g, modelName: modelName}
}

// Complete generates text for the prompt. Empty or all-whitespace model
// output is a provider failure, not a valid completion.
func (c *GenkitCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", newProviderError("generation", "generate request failed", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", newProviderError("generation", "empty completion", ErrEmptyCompletion)
	}
	return text, nil
}
