package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/services"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageSvc *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageSvc}
}

type createMessageRequest struct {
	MemberID  *uint      `json:"member_id"`
	Recipient string     `json:"recipient"`
	Message   string     `json:"message" binding:"required"`
	Channel   string     `json:"channel"`
	Timestamp *time.Time `json:"timestamp"`
}

// @Summary List Messages
// @Description Outbound message log, newest first
// @Tags Messages
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param member_id query int false "Member ID"
// @Param batch_id query string false "Batch ID"
// @Param channel query string false "whatsapp or manual"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /messages [get]
func (h *MessageHandler) Index(c *gin.Context) {
	query := listQuery(c, "member_id", "batch_id", "channel")
	messages, total, err := h.messageService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, messages[i].ToResponse())
	}
	respond(c, http.StatusOK, gin.H{
		"messages":   responses,
		"pagination": pagination(query, total),
	})
}

// @Summary Get Message
// @Tags Messages
// @Produce json
// @Param id path int true "Message ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /messages/{id} [get]
func (h *MessageHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	msg, err := h.messageService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": msg.ToResponse()})
}

// @Summary Log Message
// @Description Record a message sent outside the gateway
// @Tags Messages
// @Accept json
// @Produce json
// @Param message body createMessageRequest true "Message"
// @Success 201 {object} models.MessageResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /messages [post]
func (h *MessageHandler) Create(c *gin.Context) {
	var req createMessageRequest
	if err := bindRequest(c, "", &req); err != nil {
		badRequest(c, err)
		return
	}

	msg := &models.Message{
		MemberID:  req.MemberID,
		Recipient: req.Recipient,
		Body:      req.Message,
		Channel:   req.Channel,
	}
	if req.Timestamp != nil {
		msg.Timestamp = req.Timestamp.UTC()
	}
	if err := h.messageService.Create(c.Request.Context(), msg); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": msg.ToResponse()})
}
