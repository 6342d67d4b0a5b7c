// Package rag answers questions from indexed documents, grounding the
// model on freshly retrieved segments fused with the recent turns of the
// conversation. Retrieval itself is not history-conditioned: only the
// question is embedded for search, history is replayed to the model.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/apperr"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/chatstore"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/config"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/models"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/vectorindex"
)

// previewLimit bounds source content previews for citation display.
const previewLimit = 300

// Generator produces free text from a chat-style prompt.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent) (string, error)
}

type RAG struct {
	index      *vectorindex.Store
	chats      *chatstore.Store
	llm        Generator
	topK       int
	maxHistory int
}

func NewRAG(index *vectorindex.Store, chats *chatstore.Store, llm Generator, cfg *config.RAGConfig) *RAG {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 3
	}
	return &RAG{index: index, chats: chats, llm: llm, topK: topK, maxHistory: maxHistory}
}

// Answer retrieves the segments most similar to the question, replays the
// recent history, asks the model once, and returns the answer together with
// the segments used as evidence. It does not append to the conversation:
// the caller records the user and assistant turns, in that order, after a
// successful call.
func (r *RAG) Answer(ctx context.Context, question, chatID string) (string, []models.Source, error) {
	if r.index.Retrievable() == 0 {
		return "", nil, fmt.Errorf("%w: upload documents before querying", apperr.ErrNoDocuments)
	}

	history, err := r.chats.Read(chatID, r.maxHistory)
	if err != nil {
		return "", nil, err
	}

	results, err := r.index.Search(ctx, question, r.topK)
	if err != nil {
		return "", nil, err
	}

	var contextText strings.Builder
	sources := make([]models.Source, 0, len(results))
	for _, result := range results {
		fmt.Fprintf(&contextText, "[Source: %s]\n%s\n\n", result.Segment.Source, result.Segment.Content)
		sources = append(sources, models.Source{
			Source:  result.Segment.Source,
			Page:    result.Segment.Page,
			Content: preview(result.Segment.Content),
		})
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: models.SystemPrompt}},
		},
	}
	for _, msg := range history {
		role := llms.ChatMessageTypeHuman
		if msg.Role == models.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextContent{Text: msg.Content}},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextContent{Text: fmt.Sprintf(models.ContextPromptTemplate, contextText.String(), question)}},
	})

	answer, err := r.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", nil, err
	}

	log.Debug().Str("chat_id", chatID).Int("sources", len(sources)).Int("history", len(history)).Msg("generated answer")
	return answer, sources, nil
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLimit {
		return content
	}
	return string(runes[:previewLimit]) + "..."
}
