package service

import (
	"context"
	"fmt"
	"strings"

	"pdfqa/internal/domain"
)

// promptTemplate is the grounding contract for the completion model: the
// answer may only use facts present in the context block, and when the
// context is insufficient the model must say so instead of inventing one.
// This is the system's only hallucination mitigation.
const promptTemplate = `CONTEXT:
%s

RULES:
- Answer only based on the CONTEXT.
- If the information is not explicitly in the CONTEXT, respond:
  "I don't have the necessary information to answer your question."
- Never invent or use external knowledge.
- Never produce opinions or interpretations beyond what is written.

EXAMPLES OF QUESTIONS OUTSIDE THE CONTEXT:
Question: "What is the capital of France?"
Answer: "I don't have the necessary information to answer your question."

Question: "How many clients do we have in 2024?"
Answer: "I don't have the necessary information to answer your question."

Question: "Do you think this is good or bad?"
Answer: "I don't have the necessary information to answer your question."

USER QUESTION:
%s

ANSWER THE "USER QUESTION"`

// contextSeparator delimits retrieved passages inside the context block.
const contextSeparator = "\n\n"

// Retriever embeds a question with the ingestion-time embedder and fetches
// the top-k nearest passages. It is a pure function of the store state and
// the question text; nothing is cached between calls.
type Retriever struct {
	embedder domain.Embedder
	store    domain.VectorStore
	topK     int
}

func NewRetriever(embedder domain.Embedder, store domain.VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = 10
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve returns up to topK passages ordered by descending similarity.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]domain.SearchResult, error) {
	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	return r.store.Nearest(ctx, vec, r.topK)
}

// Synthesizer turns retrieved passages and a question into a grounded
// answer. Passages are concatenated in the order they were returned; no
// deduplication or truncation happens here, an oversized context surfaces
// as an error from the model call.
type Synthesizer struct {
	model domain.CompletionModel
}

func NewSynthesizer(model domain.CompletionModel) *Synthesizer {
	return &Synthesizer{model: model}
}

// Answer renders the grounding prompt and calls the completion model.
func (s *Synthesizer) Answer(ctx context.Context, question string, results []domain.SearchResult) (string, error) {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	prompt := fmt.Sprintf(promptTemplate, strings.Join(texts, contextSeparator), question)
	return s.model.Complete(ctx, prompt)
}

// QA composes retrieval and synthesis into the single operation the chat
// session runs per question.
type QA struct {
	retriever   *Retriever
	synthesizer *Synthesizer
}

func NewQA(retriever *Retriever, synthesizer *Synthesizer) *QA {
	return &QA{retriever: retriever, synthesizer: synthesizer}
}

// Ask answers one question from the ingested document.
func (q *QA) Ask(ctx context.Context, question string) (string, error) {
	results, err := q.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	return q.synthesizer.Answer(ctx, question, results)
}
