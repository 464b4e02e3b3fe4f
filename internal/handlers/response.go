package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/sacco-api/internal/messaging"
	"github.com/sjperalta/sacco-api/internal/repository"
	"github.com/sjperalta/sacco-api/internal/services"
	"github.com/sjperalta/sacco-api/pkg/logger"
)

var offered = []string{gin.MIMEJSON, gin.MIMEXML}

// respond writes data as JSON, or XML when the client asks for it
func respond(c *gin.Context, status int, data interface{}) {
	c.Negotiate(status, gin.Negotiate{
		Offered: offered,
		Data:    data,
	})
}

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	respond(c, status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrNoRecipients):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrDuplicate), errors.Is(err, services.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, messaging.ErrNotConnected):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// badRequest reports a malformed request body or parameter
func badRequest(c *gin.Context, err error) {
	respond(c, http.StatusBadRequest, gin.H{"error": err.Error()})
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		respond(c, http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// listQuery reads paging, search and sort ("field-direction") parameters
// plus the named filters
func listQuery(c *gin.Context, filters ...string) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = strings.TrimSpace(c.Query("search"))

	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}
	for _, f := range filters {
		if v := strings.TrimSpace(c.Query(f)); v != "" {
			query.Filters[f] = v
		}
	}
	return query
}

func pagination(query *repository.ListQuery, total int64) gin.H {
	perPage := int64(query.Limit())
	return gin.H{
		"page":        query.Page,
		"per_page":    perPage,
		"total":       total,
		"total_pages": (total + perPage - 1) / perPage,
	}
}

// attachment sends a generated document as a download
func attachment(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}
