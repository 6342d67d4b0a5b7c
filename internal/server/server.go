// Package server exposes the HTTP boundary: document upload, querying, and
// conversation history. It translates the pipeline's error taxonomy into
// actionable responses and never leaks internal detail beyond the request's
// correlation id.
package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/apperr"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/chatstore"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/helper"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/ingest"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/middleware"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/models"
	"github.com/LeeKayn/AI-Powered-Question-Answering-System-using-RAG/internal/rag"
)

type Server struct {
	ingestor *ingest.Ingestor
	answerer *rag.RAG
	chats    *chatstore.Store
}

func New(ingestor *ingest.Ingestor, answerer *rag.RAG, chats *chatstore.Store) *Server {
	return &Server{ingestor: ingestor, answerer: answerer, chats: chats}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	router.GET("/", s.handleRoot)
	router.POST("/upload", s.handleUpload)
	router.POST("/query", s.handleQuery)
	router.GET("/chat/:id", s.handleChat)
	return router
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "RAG Question-Answering System API"})
}

func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "bad_request", "file form field is required")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "bad_request", "failed to read uploaded file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "bad_request", "failed to read uploaded file")
		return
	}

	count, err := s.ingestor.Ingest(c.Request.Context(), data, fileHeader.Filename)
	switch {
	case apperr.IsUnsupportedFormat(err):
		errorResponse(c, http.StatusBadRequest, "unsupported_format", err.Error())
		return
	case err != nil:
		log.Error().Err(err).Str("file", fileHeader.Filename).Msg("upload failed")
		errorResponse(c, http.StatusInternalServerError, "processing", "error processing document")
		return
	}

	message := fmt.Sprintf("File %q uploaded and processed successfully", fileHeader.Filename)
	if count == 0 {
		message = fmt.Sprintf("File %q uploaded but no content was extracted", fileHeader.Filename)
	}
	c.JSON(http.StatusCreated, gin.H{"message": message, "segments": count})
}

type queryRequest struct {
	Query  string `json:"query"`
	ChatID string `json:"chat_id"`
}

type queryResponse struct {
	Answer  string          `json:"answer"`
	ChatID  string          `json:"chat_id"`
	Sources []models.Source `json:"sources"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		errorResponse(c, http.StatusBadRequest, "bad_request", "query is required")
		return
	}

	chatID := req.ChatID
	if chatID == "" {
		var err error
		chatID, err = helper.GenerateUUID()
		if err != nil {
			errorResponse(c, http.StatusInternalServerError, "processing", "error processing query")
			return
		}
	}

	answer, sources, err := s.answerer.Answer(c.Request.Context(), req.Query, chatID)
	switch {
	case apperr.IsNoDocuments(err):
		errorResponse(c, http.StatusBadRequest, "no_documents",
			"No documents have been uploaded yet. Please upload documents first.")
		return
	case err != nil:
		log.Error().Err(err).Str("chat_id", chatID).Msg("query failed")
		errorResponse(c, http.StatusInternalServerError, "processing", "error processing query")
		return
	}

	// record the turn: question first, then answer, so history stays ordered
	if err := s.chats.Append(chatID, models.RoleUser, req.Query); err == nil {
		err = s.chats.Append(chatID, models.RoleAssistant, answer)
		if err != nil {
			log.Error().Err(err).Str("chat_id", chatID).Msg("failed to append assistant message")
		}
	} else {
		log.Error().Err(err).Str("chat_id", chatID).Msg("failed to append user message")
	}

	if sources == nil {
		sources = []models.Source{}
	}
	c.JSON(http.StatusOK, queryResponse{Answer: answer, ChatID: chatID, Sources: sources})
}

func (s *Server) handleChat(c *gin.Context) {
	messages, err := s.chats.Read(c.Param("id"), 0)
	if err != nil {
		// unknown or malformed ids read as an empty conversation
		log.Warn().Err(err).Msg("chat history read failed")
		messages = nil
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{
		"code":       code,
		"message":    message,
		"request_id": c.GetString("request_id"),
	}})
}
