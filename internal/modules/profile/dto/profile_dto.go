package dto

import "anoa.com/linkbio/internal/entity"

// UpdateProfileInput changes only the fields that are set.
type UpdateProfileInput struct {
	FullName *string `json:"full_name" form:"full_name" binding:"omitempty,max=100"`
	Email    *string `json:"email" form:"email" binding:"omitempty,email"`
	Password *string `json:"password" form:"password" binding:"omitempty,min=6"`
	BioName  *string `json:"bio_name" form:"bio_name" binding:"omitempty,max=100"`
}

type ProfileResponse struct {
	User *entity.User `json:"user"`
}
