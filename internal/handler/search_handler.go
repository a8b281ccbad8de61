package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scms-ph/attendance-api/internal/service"
	"github.com/scms-ph/attendance-api/pkg/response"
)

// SearchHandler wires the global search endpoint.
type SearchHandler struct {
	service *service.SearchService
}

// NewSearchHandler creates a new handler.
func NewSearchHandler(svc *service.SearchService) *SearchHandler {
	return &SearchHandler{service: svc}
}

// Search godoc
// @Summary Global search
// @Description Match students and teachers against a free-text query
// @Tags Search
// @Produce json
// @Param q query string true "Search query, minimum 2 characters"
// @Success 200 {object} response.Envelope
// @Router /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	res, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}
