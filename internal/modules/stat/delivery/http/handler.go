package handler

import (
	"net/http"

	"anoa.com/linkbio/internal/modules/stat/dto"
	statService "anoa.com/linkbio/internal/modules/stat/service"
	"anoa.com/linkbio/pkg/response"
	"github.com/gin-gonic/gin"
)

type StatHandler struct {
	statService statService.StatService
}

func NewStatHandler(statService statService.StatService) *StatHandler {
	return &StatHandler{statService: statService}
}

func (h *StatHandler) GetDashboard(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	stats, err := h.statService.Dashboard(c.Request.Context(), userID, response.IsAdmin(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *StatHandler) GetClicks(c *gin.Context) {
	var query dto.ClicksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	series, err := h.statService.ClicksByDay(c.Request.Context(), userID, response.IsAdmin(c), query.Days)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": series})
}

func (h *StatHandler) GetTopLinks(c *gin.Context) {
	var query dto.TopLinksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	top, err := h.statService.TopLinks(c.Request.Context(), userID, response.IsAdmin(c), query.Limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, top)
}
