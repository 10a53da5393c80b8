package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	redirect "anoa.com/linkbio/internal/modules/redirect/service"
	"anoa.com/linkbio/pkg/apperror"
	"anoa.com/linkbio/pkg/response"
	"github.com/gin-gonic/gin"
)

// FunctionPrefix is the legacy serverless path the redirect endpoint keeps
// answering on.
const FunctionPrefix = "/.netlify/functions/redirect"

const redirectCacheControl = "public, max-age=0, must-revalidate"

type RedirectHandler struct {
	resolver redirect.Resolver
}

func NewRedirectHandler(resolver redirect.Resolver) *RedirectHandler {
	return &RedirectHandler{resolver: resolver}
}

// SlugFromPath strips the function prefix and returns the first remaining
// path segment.
func SlugFromPath(path string) string {
	path = strings.TrimPrefix(path, FunctionPrefix)
	path = strings.TrimLeft(path, "/")
	slug, _, _ := strings.Cut(path, "/")
	return slug
}

// Redirect answers with a 301 to the slug's destination. Errors use the
// {"message": ...} body of the public redirect endpoint.
func (h *RedirectHandler) Redirect(c *gin.Context) {
	slug := SlugFromPath(c.Request.URL.Path)
	if slug == "" {
		c.JSON(http.StatusNotFound, gin.H{"message": "Slug não fornecido"})
		return
	}

	target, err := h.resolver.Resolve(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Link não encontrado"})
			return
		}
		log.Printf("[Redirect Error] slug=%s: %v", slug, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Erro interno do servidor"})
		return
	}

	c.Header("Cache-Control", redirectCacheControl)
	c.Redirect(http.StatusMovedPermanently, target.DestinationURL)
}

// Resolve returns the target as JSON for clients that navigate themselves.
func (h *RedirectHandler) Resolve(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Slug não fornecido"})
		return
	}

	target, err := h.resolver.Resolve(c.Request.Context(), slug)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, target)
}
