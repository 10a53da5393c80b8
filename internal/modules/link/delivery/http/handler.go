package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	linkDto "anoa.com/linkbio/internal/modules/link/dto"
	link "anoa.com/linkbio/internal/modules/link/service"
	"anoa.com/linkbio/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LinkHandler struct {
	service link.LinkService
}

func NewLinkHandler(service link.LinkService) *LinkHandler {
	return &LinkHandler{service: service}
}

func (h *LinkHandler) ListLinks(c *gin.Context) {
	var query linkDto.ListLinksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	links, err := h.service.List(c.Request.Context(), userID, response.IsAdmin(c), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, links)
}

func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req linkDto.CreateLinkInput
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": created})
}

func (h *LinkHandler) GetLink(c *gin.Context) {
	linkID, ok := parseLinkID(c)
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	found, err := h.service.Get(c.Request.Context(), userID, response.IsAdmin(c), linkID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": found})
}

func (h *LinkHandler) UpdateLink(c *gin.Context) {
	linkID, ok := parseLinkID(c)
	if !ok {
		return
	}

	var req linkDto.UpdateLinkInput
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), userID, response.IsAdmin(c), linkID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (h *LinkHandler) DeleteLink(c *gin.Context) {
	linkID, ok := parseLinkID(c)
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, response.IsAdmin(c), linkID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "link excluído com sucesso"})
}

// ExportLinks buffers the workbook so a failure can still be answered
// with a JSON error.
func (h *LinkHandler) ExportLinks(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), userID, &buf); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"links_%s.xlsx\"", time.Now().Format("20060102")))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func parseLinkID(c *gin.Context) (uuid.UUID, bool) {
	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id de link inválido"})
		return uuid.Nil, false
	}
	return linkID, true
}
