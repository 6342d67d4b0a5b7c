package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/apperr"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/config"
)

// NewEmbedder creates an embedder backed by an OpenAI-compatible endpoint
func NewEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithEmbeddingModel(llmConfig.Model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

// Func adapts an embedder to the vector index's embedding callback. The
// embedding capability fixes the vector dimension for the whole index, so
// all entries of one index must come from the same Func.
func Func(embedder *embeddings.EmbedderImpl) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vector, err := embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrEmbedding, err)
		}
		return vector, nil
	}
}
