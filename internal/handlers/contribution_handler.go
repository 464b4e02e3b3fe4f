package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/services"
)

type ContributionHandler struct {
	contributionService *services.ContributionService
}

func NewContributionHandler(contributionSvc *services.ContributionService) *ContributionHandler {
	return &ContributionHandler{contributionService: contributionSvc}
}

type createContributionRequest struct {
	MemberID  uint            `json:"member_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    *string         `json:"reason"`
	Timestamp *time.Time      `json:"timestamp"`
}

// @Summary List Contributions
// @Tags Contributions
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param member_id query int false "Member ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /contributions [get]
func (h *ContributionHandler) Index(c *gin.Context) {
	query := listQuery(c, "member_id")
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

// @Summary Get Contribution
// @Tags Contributions
// @Produce json
// @Param id path int true "Contribution ID"
// @Success 200 {object} models.ContributionResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /contributions/{id} [get]
func (h *ContributionHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	contribution, err := h.contributionService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"contribution": contribution.ToResponse()})
}

// @Summary Record Contribution
// @Tags Contributions
// @Accept json
// @Produce json
// @Param contribution body createContributionRequest true "Contribution"
// @Success 201 {object} models.ContributionResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /contributions [post]
func (h *ContributionHandler) Create(c *gin.Context) {
	var req createContributionRequest
	if err := bindRequest(c, "contribution", &req); err != nil {
		badRequest(c, err)
		return
	}

	contribution := &models.Contribution{
		MemberID: req.MemberID,
		Amount:   req.Amount,
		Reason:   req.Reason,
	}
	if req.Timestamp != nil {
		contribution.Timestamp = req.Timestamp.UTC()
	}
	if err := h.contributionService.Create(c.Request.Context(), contribution); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"contribution": contribution.ToResponse()})
}
