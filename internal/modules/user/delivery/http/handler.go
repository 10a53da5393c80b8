package handler

import (
	"net/http"
	"time"

	"anoa.com/linkbio/internal/modules/user/dto"
	userService "anoa.com/linkbio/internal/modules/user/service"
	"anoa.com/linkbio/internal/session"
	"anoa.com/linkbio/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService userService.AuthService
	sessions    *session.Manager
}

func NewAuthHandler(authService userService.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBind(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), c.ClientIP(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	h.sessions.Set(c, res.AccessToken, time.Unix(res.ExpiresAt, 0))
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "sessão encerrada"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), userID.String())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
