package profile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	profileDto "anoa.com/linkbio/internal/modules/profile/dto"
	userRepo "anoa.com/linkbio/internal/modules/user/repository"
	"anoa.com/linkbio/pkg/apperror"
	commonDto "anoa.com/linkbio/pkg/dto"
	"anoa.com/linkbio/pkg/storage"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Images holds the optional uploads of a profile update.
type Images struct {
	Avatar    *commonDto.ImageFile
	BioAvatar *commonDto.ImageFile
}

type ProfileService interface {
	GetCurrentProfile(ctx context.Context, userID string) (*profileDto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, input profileDto.UpdateProfileInput, images Images) (*profileDto.ProfileResponse, error)
}

type profileService struct {
	repo         userRepo.UserRepository
	imageStorage storage.ImageStorage
	sanitizer    *bluemonday.Policy
}

// NewProfileService builds the service; without imageStorage uploads are
// rejected.
func NewProfileService(repo userRepo.UserRepository, imageStorage storage.ImageStorage) ProfileService {
	return &profileService{
		repo:         repo,
		imageStorage: imageStorage,
		sanitizer:    bluemonday.StrictPolicy(),
	}
}

func (s *profileService) GetCurrentProfile(ctx context.Context, userID string) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("usuário não encontrado")
		}
		return nil, apperror.Internal(err)
	}
	return &profileDto.ProfileResponse{User: user}, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, input profileDto.UpdateProfileInput, images Images) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("usuário não encontrado")
		}
		return nil, apperror.Internal(err)
	}

	if input.FullName != nil {
		fullName := s.sanitizer.Sanitize(strings.TrimSpace(*input.FullName))
		if fullName == "" {
			return nil, apperror.Invalid("nome completo não pode ficar vazio")
		}
		user.FullName = fullName
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != "" && email != user.Email {
			if _, err := s.repo.FindByEmail(ctx, email); err == nil {
				return nil, apperror.Conflict("email já cadastrado")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.Internal(err)
			}
			user.Email = email
		}
	}

	if input.Password != nil && *input.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperror.Internal(fmt.Errorf("failed to hash password: %w", err))
		}
		user.PasswordHash = string(hashedPassword)
	}

	if input.BioName != nil {
		user.BioName = normalizeOptional(s.sanitizer.Sanitize(strings.TrimSpace(*input.BioName)))
	}

	var replaced, uploaded []string
	if images.Avatar != nil {
		url, err := s.upload(ctx, images.Avatar, storage.FolderAvatars)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, url)
		if user.AvatarURL != nil {
			replaced = append(replaced, *user.AvatarURL)
		}
		user.AvatarURL = &url
	}
	if images.BioAvatar != nil {
		url, err := s.upload(ctx, images.BioAvatar, storage.FolderBioAvatars)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, url)
		if user.BioAvatarURL != nil {
			replaced = append(replaced, *user.BioAvatarURL)
		}
		user.BioAvatarURL = &url
	}

	if err := s.repo.Update(ctx, user); err != nil {
		s.deleteImages(ctx, uploaded)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("email já cadastrado")
		}
		return nil, apperror.Internal(err)
	}

	s.deleteImages(ctx, replaced)

	return &profileDto.ProfileResponse{User: user}, nil
}

func (s *profileService) deleteImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.imageStorage.DeleteImage(ctx, url); err != nil {
			log.Printf("failed to delete image %s: %v", url, err)
		}
	}
}

func (s *profileService) upload(ctx context.Context, file *commonDto.ImageFile, folder string) (string, error) {
	if s.imageStorage == nil {
		return "", apperror.Invalid("envio de imagens não está configurado")
	}
	url, err := s.imageStorage.UploadImage(ctx, file.Reader, folder, file.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return "", apperror.Invalid("formato de imagem não suportado")
		}
		return "", apperror.Internal(err)
	}
	return url, nil
}

func normalizeOptional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
