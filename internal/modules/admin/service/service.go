package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"anoa.com/linkbio/internal/entity"
	"anoa.com/linkbio/internal/modules/admin/dto"
	linkRepo "anoa.com/linkbio/internal/modules/link/repository"
	"anoa.com/linkbio/internal/modules/user/repository"
	"anoa.com/linkbio/pkg/apperror"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errUsernameTaken = apperror.Conflict("nome de usuário já está em uso")
	errEmailTaken    = apperror.Conflict("email já cadastrado")
)

// LinkIndexCleaner drops a deleted user's links from the search index.
type LinkIndexCleaner interface {
	DeleteLinks(ids []string) error
}

type AdminService interface {
	CreateUser(ctx context.Context, input dto.CreateUserInput) (*dto.AdminUserResponse, error)
	GetAllUsers(ctx context.Context) ([]*dto.AdminUserResponse, error)
	UpdateUser(ctx context.Context, id string, input dto.UpdateUserInput) (*dto.AdminUserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type adminService struct {
	repo      repository.UserRepository
	links     linkRepo.LinkRepository
	index     LinkIndexCleaner
	sanitizer *bluemonday.Policy
}

func NewAdminService(repo repository.UserRepository, links linkRepo.LinkRepository, index LinkIndexCleaner) AdminService {
	return &adminService{
		repo:      repo,
		links:     links,
		index:     index,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *adminService) CreateUser(ctx context.Context, input dto.CreateUserInput) (*dto.AdminUserResponse, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, errUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal(err)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, errEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &entity.User{
		Username:     username,
		Email:        email,
		FullName:     s.sanitizer.Sanitize(strings.TrimSpace(input.FullName)),
		Role:         input.Role,
		PasswordHash: string(hashedPassword),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("nome de usuário ou email já cadastrado")
		}
		return nil, apperror.Internal(err)
	}

	return &dto.AdminUserResponse{User: user}, nil
}

func (s *adminService) GetAllUsers(ctx context.Context) ([]*dto.AdminUserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	counts, err := s.links.CountByUser(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	response := make([]*dto.AdminUserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, &dto.AdminUserResponse{
			User:      u,
			LinkCount: counts[u.ID],
		})
	}
	return response, nil
}

func (s *adminService) UpdateUser(ctx context.Context, id string, input dto.UpdateUserInput) (*dto.AdminUserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("usuário não encontrado")
		}
		return nil, apperror.Internal(err)
	}

	if email := strings.ToLower(strings.TrimSpace(input.Email)); email != "" && email != user.Email {
		if _, err := s.repo.FindByEmail(ctx, email); err == nil {
			return nil, errEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Internal(err)
		}
		user.Email = email
	}

	if fullName := strings.TrimSpace(input.FullName); fullName != "" {
		user.FullName = s.sanitizer.Sanitize(fullName)
	}

	if input.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperror.Internal(fmt.Errorf("failed to hash password: %w", err))
		}
		user.PasswordHash = string(hashedPassword)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errEmailTaken
		}
		return nil, apperror.Internal(err)
	}

	return &dto.AdminUserResponse{User: user}, nil
}

// DeleteUser removes a regular user together with their links and bio
// links. Admin accounts can not be deleted.
func (s *adminService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("usuário não encontrado")
		}
		return apperror.Internal(err)
	}
	if user.IsAdmin() {
		return apperror.Forbidden("administradores não podem ser excluídos")
	}

	linkIDs, err := s.links.IDsByUser(ctx, user.ID)
	if err != nil {
		return apperror.Internal(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.Internal(err)
	}

	if s.index != nil && len(linkIDs) > 0 {
		if err := s.index.DeleteLinks(linkIDs); err != nil {
			log.Printf("failed to drop links of user %s from search index: %v", id, err)
		}
	}
	return nil
}
