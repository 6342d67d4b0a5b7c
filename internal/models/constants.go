package models

const (
	SystemPrompt = `You are a helpful assistant. Use the provided context to answer the query. If the context does not contain the answer, say that you don't know instead of guessing.`

	ContextPromptTemplate = `Context:
%s
Query: %s`
)
