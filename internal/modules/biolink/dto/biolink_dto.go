package dto

import "github.com/google/uuid"

type CreateBioLinkInput struct {
	Title string `json:"title" form:"title" binding:"required,max=100"`
	URL   string `json:"url" form:"url" binding:"required"`
	Icon  string `json:"icon" form:"icon"`
}

type UpdateBioLinkInput struct {
	Title string `json:"title" form:"title" binding:"omitempty,max=100"`
	URL   string `json:"url" form:"url"`
	Icon  string `json:"icon" form:"icon"`
}

type ReorderInput struct {
	IDs []uuid.UUID `json:"ids" binding:"required"`
}

type BioSlugInput struct {
	Slug string `json:"slug" binding:"required,max=64"`
}

type BioSlugResponse struct {
	Slug           string `json:"slug"`
	DestinationURL string `json:"destination_url"`
}

type PublicBioLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Icon  string `json:"icon"`
}

type PublicBioPage struct {
	UserID       uuid.UUID       `json:"user_id"`
	BioName      string          `json:"bio_name"`
	BioAvatarURL string          `json:"bio_avatar_url,omitempty"`
	Links        []PublicBioLink `json:"links"`
}
