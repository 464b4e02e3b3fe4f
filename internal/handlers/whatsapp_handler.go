package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/sacco-api/internal/messaging"
	"github.com/sjperalta/sacco-api/internal/middleware"
	"github.com/sjperalta/sacco-api/internal/services"
)

type WhatsAppHandler struct {
	messageService *services.MessageService
}

func NewWhatsAppHandler(messageSvc *services.MessageService) *WhatsAppHandler {
	return &WhatsAppHandler{messageService: messageSvc}
}

type gatewayEventRequest struct {
	Event string `json:"event" binding:"required"`
	QR    string `json:"qr"`
}

type sendNumberRequest struct {
	Number  string `json:"number" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type bulkRequest struct {
	Filter  string `json:"filter"`
	Message string `json:"message" binding:"required"`
}

// @Summary Pairing QR
// @Description Current QR code to pair the WhatsApp session
// @Tags WhatsApp
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /whatsapp/qr [get]
func (h *WhatsAppHandler) QR(c *gin.Context) {
	qr, ok := h.messageService.Pairing().QR()
	if !ok {
		respond(c, http.StatusNotFound, gin.H{"error": "QR code not available yet"})
		return
	}
	respond(c, http.StatusOK, gin.H{"qr_code": qr})
}

// @Summary Session Status
// @Tags WhatsApp
// @Produce json
// @Success 200 {object} messaging.Snapshot
// @Security BearerAuth
// @Router /whatsapp/status [get]
func (h *WhatsAppHandler) Status(c *gin.Context) {
	snap := h.messageService.Status(c.Request.Context())
	respond(c, http.StatusOK, gin.H{
		"status":     snap.State,
		"ready":      snap.State == messaging.StateReady,
		"updated_at": snap.UpdatedAt,
	})
}

// @Summary Session Stream
// @Description Server-sent events with every pairing state change
// @Tags WhatsApp
// @Produce text/event-stream
// @Success 200
// @Security BearerAuth
// @Router /whatsapp/stream [get]
func (h *WhatsAppHandler) Stream(c *gin.Context) {
	pairing := h.messageService.Pairing()
	updates, cancel := pairing.Subscribe()
	defer cancel()

	c.SSEvent("state", pairing.Snapshot())
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("state", snap)
			return true
		}
	})
}

// @Summary Gateway Webhook
// @Description Pairing events pushed by the WhatsApp gateway (qr, ready, disconnected)
// @Tags WhatsApp
// @Accept json
// @Produce json
// @Param X-Api-Key header string true "Gateway key"
// @Param event body gatewayEventRequest true "Event"
// @Success 200 {object} map[string]interface{}
// @Router /whatsapp/events [post]
func (h *WhatsAppHandler) Events(c *gin.Context) {
	var req gatewayEventRequest
	if err := bindRequest(c, "", &req); err != nil {
		badRequest(c, err)
		return
	}
	applied := h.messageService.HandleGatewayEvent(req.Event, req.QR)
	respond(c, http.StatusOK, gin.H{"received": true, "applied": applied})
}

// @Summary Send To Number
// @Tags WhatsApp
// @Accept json
// @Produce json
// @Param body body sendNumberRequest true "Number and message"
// @Success 200 {object} models.MessageResponse
// @Failure 422 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Security BearerAuth
// @Router /whatsapp/send [post]
func (h *WhatsAppHandler) Send(c *gin.Context) {
	var req sendNumberRequest
	if err := bindRequest(c, "", &req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.messageService.SendToNumber(c.Request.Context(), middleware.Actor(c), req.Number, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"success": true, "message": msg.ToResponse()})
}

// @Summary Bulk Send
// @Description Send the same message to every member whose name matches the filter
// @Tags WhatsApp
// @Accept json
// @Produce json
// @Param body body bulkRequest true "Filter and message"
// @Success 200 {object} messaging.BatchResult
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /whatsapp/bulk [post]
func (h *WhatsAppHandler) Bulk(c *gin.Context) {
	var req bulkRequest
	if err := bindRequest(c, "", &req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.messageService.Bulk(c.Request.Context(), middleware.Actor(c), req.Filter, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, batchResponse(result))
}

func batchResponse(result *messaging.BatchResult) gin.H {
	return gin.H{
		"batch_id":        result.BatchID,
		"success":         len(result.Sent),
		"failed":          len(result.Failed),
		"cancelled":       result.Cancelled,
		"success_details": result.Sent,
		"failures":        result.Failed,
	}
}
