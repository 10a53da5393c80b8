package dto

import (
	"anoa.com/linkbio/internal/entity"
	commonDto "anoa.com/linkbio/pkg/dto"
)

type CreateLinkInput struct {
	// Slug is optional; a random one is generated when empty.
	Slug           string `json:"slug" form:"slug" binding:"omitempty,max=64"`
	Title          string `json:"title" form:"title" binding:"omitempty,max=200"`
	DestinationURL string `json:"destination_url" form:"destination_url" binding:"required"`
}

type UpdateLinkInput struct {
	Slug           string  `json:"slug" form:"slug" binding:"omitempty,max=64"`
	Title          *string `json:"title" form:"title" binding:"omitempty,max=200"`
	DestinationURL string  `json:"destination_url" form:"destination_url"`
}

type ListLinksQuery struct {
	commonDto.PageQuery
	Search string `form:"search"`
	// All lists every user's links; honoured for admins only.
	All bool `form:"all"`
}

type LinkListResponse struct {
	Data []*entity.Link           `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
