package rag

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/apperr"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/chatstore"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/config"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/models"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/testutil"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/vectorindex"
)

func newFixture(t *testing.T, gen Generator) (*RAG, *vectorindex.Store, *chatstore.Store) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	index, err := vectorindex.Open(ctx, filepath.Join(dir, "index.chromem"), testutil.FakeEmbedder(64))
	require.NoError(t, err)
	chats, err := chatstore.New(filepath.Join(dir, "history"))
	require.NoError(t, err)

	cfg := &config.RAGConfig{TopK: 5, MaxHistory: 3}
	return NewRAG(index, chats, gen, cfg), index, chats
}

func TestAnswerNoDocuments(t *testing.T) {
	gen := &testutil.FakeGenerator{Answer: "should never be called"}
	answerer, _, _ := newFixture(t, gen)

	_, _, err := answerer.Answer(context.Background(), "anything?", "chat-1")
	require.Error(t, err)
	assert.True(t, apperr.IsNoDocuments(err))
	assert.Nil(t, gen.Messages, "generator must not be invoked without documents")
}

func TestAnswerGroundedWithSources(t *testing.T) {
	gen := &testutil.FakeGenerator{} // echoes the final prompt
	answerer, index, chats := newFixture(t, gen)
	ctx := context.Background()

	require.NoError(t, index.Update(ctx, []models.Segment{
		{Content: "Paris is the capital of France.", Source: "france.txt"},
	}))

	answer, sources, err := answerer.Answer(ctx, "What is the capital of France?", "chat-1")
	require.NoError(t, err)

	assert.Contains(t, answer, "Paris")
	require.Len(t, sources, 1)
	assert.Equal(t, "france.txt", sources[0].Source)
	assert.Contains(t, sources[0].Content, "Paris")

	// answering must not append to the conversation; that is the caller's job
	history, err := chats.Read("chat-1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAnswerReplaysRecentHistory(t *testing.T) {
	gen := &testutil.FakeGenerator{Answer: "ok"}
	answerer, index, chats := newFixture(t, gen)
	ctx := context.Background()

	require.NoError(t, index.Update(ctx, []models.Segment{
		{Content: "Paris is the capital of France.", Source: "france.txt"},
	}))
	require.NoError(t, chats.Append("chat-1", models.RoleUser, "Hello there"))
	require.NoError(t, chats.Append("chat-1", models.RoleAssistant, "Hi, ask me about your documents"))

	_, _, err := answerer.Answer(ctx, "What is the capital of France?", "chat-1")
	require.NoError(t, err)

	// system + 2 history turns + the grounded question
	require.Len(t, gen.Messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, gen.Messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, gen.Messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, gen.Messages[2].Role)

	final := gen.Messages[3]
	assert.Equal(t, llms.ChatMessageTypeHuman, final.Role)
	text := final.Parts[0].(llms.TextContent).Text
	assert.Contains(t, text, "What is the capital of France?")
	assert.Contains(t, text, "[Source: france.txt]")
}

func TestAnswerTruncatesSourcePreview(t *testing.T) {
	gen := &testutil.FakeGenerator{Answer: "ok"}
	answerer, index, _ := newFixture(t, gen)
	ctx := context.Background()

	long := strings.Repeat("alpha beta gamma ", 40) // ~680 chars
	require.NoError(t, index.Update(ctx, []models.Segment{
		{Content: long, Source: "long.txt"},
	}))

	_, sources, err := answerer.Answer(ctx, "alpha beta gamma", "chat-1")
	require.NoError(t, err)
	require.NotEmpty(t, sources)
	assert.LessOrEqual(t, len([]rune(sources[0].Content)), 303)
	assert.True(t, strings.HasSuffix(sources[0].Content, "..."))
}
