package websearch

import (
	"context"
	"fmt"

	"github.com/papercomputeco/docent/pkg/llm"
)

const knowledgePrompt = `Answer the following question from your general knowledge. Be concise and factual.

Question: %s
Answer:`

// Knowledge answers from the language model alone, without grounding.
type Knowledge struct {
	completer llm.Completer
	maxTokens int
}

func NewKnowledge(completer llm.Completer, maxTokens int) *Knowledge {
	return &Knowledge{completer: completer, maxTokens: maxTokens}
}

func (k *Knowledge) Name() Kind { return KindKnowledge }

func (k *Knowledge) Description() string {
	return "Answer general questions from the language model's own knowledge."
}

func (k *Knowledge) Search(ctx context.Context, query string) (string, error) {
	return k.completer.Complete(ctx, fmt.Sprintf(knowledgePrompt, query), llm.Options{MaxTokens: k.maxTokens})
}
