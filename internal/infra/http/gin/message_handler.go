package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentlona/internal/app/commands"
	"rentlona/internal/app/dto"
	messageapp "rentlona/internal/app/handlers/messages"
	"rentlona/internal/app/queries"
)

type MessageHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required"`
	ThreadID   string `json:"threadId"`
}

func (h MessageHandler) List(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	result, err := queries.Ask[messageapp.ListMessagesQuery, []dto.Message](c.Request.Context(), h.Queries, messageapp.ListMessagesQuery{ViewerID: p.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MessageHandler) Conversations(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	result, err := queries.Ask[messageapp.ListConversationsQuery, []dto.Conversation](c.Request.Context(), h.Queries, messageapp.ListConversationsQuery{ViewerID: p.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MessageHandler) Thread(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	q := messageapp.GetThreadQuery{ViewerID: p.ID, ThreadID: c.Param("threadId")}
	result, err := queries.Ask[messageapp.GetThreadQuery, []dto.Message](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MessageHandler) Send(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := messageapp.SendMessageCommand{
		SenderID:   p.ID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		ThreadID:   req.ThreadID,
		RequestKey: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[messageapp.SendMessageCommand, *dto.Message](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h MessageHandler) MarkRead(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	cmd := messageapp.MarkThreadReadCommand{ViewerID: p.ID, ThreadID: c.Param("threadId")}
	result, err := commands.Dispatch[messageapp.MarkThreadReadCommand, *dto.MarkReadResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MessageHTTP = MessageHandler{}
