package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/apperr"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/config"
)

// Client calls an OpenAI-compatible chat completion endpoint. It performs a
// single attempt per call; retry policy belongs to the caller, not here.
type Client struct {
	cfg *config.LLMConfig
}

func NewClient(cfg *config.LLMConfig) *Client {
	return &Client{cfg: cfg}
}

// GenerateContent sends the messages to the model and returns its reply.
func (c *Client) GenerateContent(ctx context.Context, messages []llms.MessageContent) (string, error) {
	log.Debug().Str("model", c.cfg.Model).Int("messages", len(messages)).Msg("generating content")
	llm, err := openai.New(
		openai.WithBaseURL(c.cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(c.cfg.Key, "Bearer ")),
		openai.WithModel(c.cfg.Model),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrGeneration, err)
	}

	res, err := llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrGeneration, err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", apperr.ErrGeneration)
	}
	return res.Choices[0].Content, nil
}
