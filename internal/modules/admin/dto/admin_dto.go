package dto

import "anoa.com/linkbio/internal/entity"

type CreateUserInput struct {
	Username string `json:"username" form:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=6"`
	Role     string `json:"role" form:"role" binding:"required,oneof=admin user"`
	FullName string `json:"full_name" form:"full_name" binding:"required,max=100"`
}

// UpdateUserInput leaves a field untouched when it is empty. Role is not
// part of it: roles are fixed at creation.
type UpdateUserInput struct {
	Email    string `json:"email" form:"email" binding:"omitempty,email"`
	Password string `json:"password" form:"password" binding:"omitempty,min=6"`
	FullName string `json:"full_name" form:"full_name" binding:"omitempty,max=100"`
}

type AdminUserResponse struct {
	User      *entity.User `json:"user"`
	LinkCount int64        `json:"link_count"`
}
