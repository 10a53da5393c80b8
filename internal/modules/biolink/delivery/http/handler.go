package handler

import (
	"net/http"

	"anoa.com/linkbio/internal/entity"
	"anoa.com/linkbio/internal/modules/biolink/dto"
	bioLink "anoa.com/linkbio/internal/modules/biolink/service"
	"anoa.com/linkbio/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BioLinkHandler struct {
	service bioLink.BioLinkService
}

func NewBioLinkHandler(service bioLink.BioLinkService) *BioLinkHandler {
	return &BioLinkHandler{service: service}
}

func (h *BioLinkHandler) ListBioLinks(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	links, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": links})
}

func (h *BioLinkHandler) GetIcons(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": entity.BioIcons})
}

func (h *BioLinkHandler) CreateBioLink(c *gin.Context) {
	var req dto.CreateBioLinkInput
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	link, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": link})
}

func (h *BioLinkHandler) UpdateBioLink(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id de link inválido"})
		return
	}

	var req dto.UpdateBioLinkInput
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	link, err := h.service.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": link})
}

func (h *BioLinkHandler) DeleteBioLink(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id de link inválido"})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "link da bio excluído com sucesso"})
}

func (h *BioLinkHandler) ReorderBioLinks(c *gin.Context) {
	var req dto.ReorderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	links, err := h.service.Reorder(c.Request.Context(), userID, req.IDs)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": links})
}

func (h *BioLinkHandler) GetBioSlug(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	slug, err := h.service.GetSlug(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, slug)
}

func (h *BioLinkHandler) SetBioSlug(c *gin.Context) {
	var req dto.BioSlugInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	slug, err := h.service.SetSlug(c.Request.Context(), userID, req.Slug)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, slug)
}

// GetPublicPage serves /bio/:userId without authentication.
func (h *BioLinkHandler) GetPublicPage(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "página não encontrada"})
		return
	}

	page, err := h.service.PublicPage(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
