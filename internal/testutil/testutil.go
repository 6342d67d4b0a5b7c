// Package testutil provides deterministic stand-ins for the embedding and
// generation capabilities, so pipeline tests run without network access.
package testutil

import (
	"context"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/llms"
)

// FakeEmbedder returns a deterministic bag-of-words embedding: each word is
// hashed into one of dim buckets and the vector is L2-normalized. Texts
// sharing words end up genuinely close under cosine similarity, which makes
// retrieval ranking testable.
func FakeEmbedder(dim int) chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		vector := make([]float32, dim)
		words := strings.Fields(strings.ToLower(text))
		if len(words) == 0 {
			vector[0] = 1
			return vector, nil
		}
		for _, word := range words {
			word = strings.Trim(word, ".,;:!?\"'()")
			if word == "" {
				continue
			}
			vector[xxhash.Sum64String(word)%uint64(dim)]++
		}
		var norm float64
		for _, v := range vector {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			vector[0] = 1
			return vector, nil
		}
		norm = math.Sqrt(norm)
		for i := range vector {
			vector[i] = float32(float64(vector[i]) / norm)
		}
		return vector, nil
	}
}

// FailingEmbedder wraps an embedding func and fails for any text containing
// the trigger substring.
func FailingEmbedder(inner chromem.EmbeddingFunc, trigger string, err error) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, trigger) {
			return nil, err
		}
		return inner(ctx, text)
	}
}

// FakeGenerator records the prompt it was given and returns a canned
// answer. With no canned answer it echoes the final message, so tests can
// assert that retrieved context reached the model.
type FakeGenerator struct {
	Answer   string
	Err      error
	Messages []llms.MessageContent
}

func (f *FakeGenerator) GenerateContent(_ context.Context, messages []llms.MessageContent) (string, error) {
	f.Messages = messages
	if f.Err != nil {
		return "", f.Err
	}
	if f.Answer != "" {
		return f.Answer, nil
	}
	if len(messages) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, part := range messages[len(messages)-1].Parts {
		if text, ok := part.(llms.TextContent); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), nil
}
