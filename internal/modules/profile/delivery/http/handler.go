package handler

import (
	"net/http"

	profileDto "anoa.com/linkbio/internal/modules/profile/dto"
	profile "anoa.com/linkbio/internal/modules/profile/service"
	commonDto "anoa.com/linkbio/pkg/dto"
	"anoa.com/linkbio/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService profile.ProfileService
}

func NewProfileHandler(profileService profile.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	res, err := h.profileService.GetCurrentProfile(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// UpdateProfile accepts JSON or multipart; the multipart form may carry
// "avatar" and "bio_avatar" files.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var input profileDto.UpdateProfileInput
	if err := c.ShouldBind(&input); err != nil {
		response.BindError(c, err)
		return
	}

	var images profile.Images
	for field, dst := range map[string]**commonDto.ImageFile{
		"avatar":     &images.Avatar,
		"bio_avatar": &images.BioAvatar,
	} {
		fileHeader, err := c.FormFile(field)
		if err != nil || fileHeader == nil {
			continue
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "falha ao carregar a imagem"})
			return
		}
		defer file.Close()

		*dst = &commonDto.ImageFile{
			Reader:   file,
			FileName: fileHeader.Filename,
		}
	}

	res, err := h.profileService.UpdateProfile(c.Request.Context(), userID, input, images)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
