package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/sacco-api/internal/middleware"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/services"
)

type MemberHandler struct {
	memberService       *services.MemberService
	contributionService *services.ContributionService
	messageService      *services.MessageService
}

func NewMemberHandler(memberSvc *services.MemberService, contributionSvc *services.ContributionService, messageSvc *services.MessageService) *MemberHandler {
	return &MemberHandler{
		memberService:       memberSvc,
		contributionService: contributionSvc,
		messageService:      messageSvc,
	}
}

type createMemberRequest struct {
	Name       string     `json:"name" binding:"required"`
	Phone      string     `json:"phone" binding:"required"`
	JoinedDate *time.Time `json:"joined_date"`
}

type updateMemberRequest struct {
	Name       *string    `json:"name"`
	Phone      *string    `json:"phone"`
	JoinedDate *time.Time `json:"joined_date"`
}

type sendTextRequest struct {
	Message string `json:"message" binding:"required"`
}

// @Summary List Members
// @Description Get a paginated list of members sorted by name
// @Tags Members
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search query string false "Name or phone"
// @Param sort query string false "Sort, e.g. name-asc"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /members [get]
func (h *MemberHandler) Index(c *gin.Context) {
	query := listQuery(c)
	members, total, err := h.memberService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.MemberResponse, 0, len(members))
	for i := range members {
		responses = append(responses, members[i].ToResponse())
	}
	respond(c, http.StatusOK, gin.H{
		"members":    responses,
		"pagination": pagination(query, total),
	})
}

// @Summary Get Member
// @Tags Members
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} models.MemberResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /members/{id} [get]
func (h *MemberHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	member, err := h.memberService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"member": member.ToResponse()})
}

// @Summary Create Member
// @Tags Members
// @Accept json
// @Produce json
// @Param member body createMemberRequest true "Member"
// @Success 201 {object} models.MemberResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /members [post]
func (h *MemberHandler) Create(c *gin.Context) {
	var req createMemberRequest
	if err := bindRequest(c, "member", &req); err != nil {
		badRequest(c, err)
		return
	}

	member := &models.Member{Name: req.Name, Phone: req.Phone}
	if req.JoinedDate != nil {
		member.JoinedDate = *req.JoinedDate
	}
	if err := h.memberService.Create(c.Request.Context(), middleware.Actor(c), member); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"member": member.ToResponse()})
}

// @Summary Update Member
// @Tags Members
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Param member body updateMemberRequest true "Fields to change"
// @Success 200 {object} models.MemberResponse
// @Security BearerAuth
// @Router /members/{id} [put]
func (h *MemberHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateMemberRequest
	if err := bindRequest(c, "member", &req); err != nil {
		badRequest(c, err)
		return
	}

	member, err := h.memberService.Update(c.Request.Context(), middleware.Actor(c), id, services.MemberUpdate{
		Name:       req.Name,
		Phone:      req.Phone,
		JoinedDate: req.JoinedDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"member": member.ToResponse()})
}

// @Summary Delete Member
// @Description Members with loans cannot be deleted
// @Tags Members
// @Param id path int true "Member ID"
// @Success 204
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /members/{id} [delete]
func (h *MemberHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.memberService.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Member Loans
// @Tags Members
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /members/{id}/loans [get]
func (h *MemberHandler) Loans(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	loans, err := h.memberService.Loans(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.LoanResponse, 0, len(loans))
	for i := range loans {
		responses = append(responses, loans[i].ToResponse())
	}
	respond(c, http.StatusOK, gin.H{"loans": responses})
}

// @Summary Member Transactions
// @Tags Members
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /members/{id}/transactions [get]
func (h *MemberHandler) Transactions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	txns, err := h.memberService.Transactions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.TransactionResponse, 0, len(txns))
	for i := range txns {
		responses = append(responses, txns[i].ToResponse())
	}
	respond(c, http.StatusOK, gin.H{"transactions": responses})
}

// @Summary Member Contributions
// @Tags Members
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /members/{id}/contributions [get]
func (h *MemberHandler) Contributions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := h.memberService.FindByID(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	query := listQuery(c)
	query.Filters["member_id"] = strconv.FormatUint(uint64(id), 10)
	contributions, total, err := h.contributionService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.ContributionResponse, 0, len(contributions))
	for i := range contributions {
		responses = append(responses, contributions[i].ToResponse())
	}
	respond(c, http.StatusOK, gin.H{
		"contributions": responses,
		"pagination":    pagination(query, total),
	})
}

// @Summary Member Messages
// @Tags Members
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /members/{id}/messages [get]
func (h *MemberHandler) Messages(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := h.memberService.FindByID(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	query := listQuery(c)
	query.Filters["member_id"] = strconv.FormatUint(uint64(id), 10)
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

// @Summary Member Summary
// @Description Savings balance, contributions and outstanding loans
// @Tags Members
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} models.MemberSummary
// @Security BearerAuth
// @Router /members/{id}/summary [get]
func (h *MemberHandler) Summary(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	summary, err := h.memberService.Summary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, summary)
}

// @Summary Message Member
// @Description Send a WhatsApp message to the member's phone
// @Tags Members
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Param body body sendTextRequest true "Message"
// @Success 200 {object} models.MessageResponse
// @Failure 503 {object} map[string]string
// @Security BearerAuth
// @Router /members/{id}/message [post]
func (h *MemberHandler) SendMessage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req sendTextRequest
	if err := bindRequest(c, "", &req); err != nil {
		badRequest(c, err)
		return
	}

	msg, err := h.messageService.SendToMember(c.Request.Context(), middleware.Actor(c), id, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"success": true, "message": msg.ToResponse()})
}
