package service

import (
	"context"
	"errors"
	"strings"

	"anoa.com/linkbio/internal/entity"
	"anoa.com/linkbio/internal/modules/biolink/dto"
	"anoa.com/linkbio/internal/modules/biolink/repository"
	linkRepo "anoa.com/linkbio/internal/modules/link/repository"
	userRepo "anoa.com/linkbio/internal/modules/user/repository"
	"anoa.com/linkbio/pkg/apperror"
	"anoa.com/linkbio/pkg/urlutil"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

const defaultIcon = "link"

type BioLinkService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*entity.BioLink, error)
	Create(ctx context.Context, userID uuid.UUID, input dto.CreateBioLinkInput) (*entity.BioLink, error)
	Update(ctx context.Context, userID, id uuid.UUID, input dto.UpdateBioLinkInput) (*entity.BioLink, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Reorder(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*entity.BioLink, error)

	GetSlug(ctx context.Context, userID uuid.UUID) (*dto.BioSlugResponse, error)
	SetSlug(ctx context.Context, userID uuid.UUID, slug string) (*dto.BioSlugResponse, error)

	PublicPage(ctx context.Context, userID uuid.UUID) (*dto.PublicBioPage, error)
}

type bioLinkService struct {
	repo          repository.BioLinkRepository
	links         linkRepo.LinkRepository
	users         userRepo.UserRepository
	publicBaseURL string
	sanitizer     *bluemonday.Policy
}

// NewBioLinkService builds the service. publicBaseURL prefixes the bio page
// address stored behind a user's bio slug.
func NewBioLinkService(repo repository.BioLinkRepository, links linkRepo.LinkRepository, users userRepo.UserRepository, publicBaseURL string) BioLinkService {
	return &bioLinkService{
		repo:          repo,
		links:         links,
		users:         users,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		sanitizer:     bluemonday.StrictPolicy(),
	}
}

func (s *bioLinkService) List(ctx context.Context, userID uuid.UUID) ([]*entity.BioLink, error) {
	links, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return links, nil
}

func validIcon(icon string) (string, error) {
	if icon == "" {
		return defaultIcon, nil
	}
	if !entity.IsBioIcon(icon) {
		return "", apperror.Invalid("ícone desconhecido: " + icon)
	}
	return icon, nil
}

func (s *bioLinkService) Create(ctx context.Context, userID uuid.UUID, input dto.CreateBioLinkInput) (*entity.BioLink, error) {
	title := s.sanitizer.Sanitize(strings.TrimSpace(input.Title))
	url := strings.TrimSpace(input.URL)
	if title == "" || url == "" {
		return nil, apperror.Invalid("título e URL são obrigatórios")
	}

	icon, err := validIcon(strings.TrimSpace(input.Icon))
	if err != nil {
		return nil, err
	}

	link := &entity.BioLink{UserID: userID, Title: title, URL: url, Icon: icon}
	if err := s.repo.Create(ctx, link); err != nil {
		return nil, apperror.Internal(err)
	}
	return link, nil
}

func (s *bioLinkService) owned(ctx context.Context, userID, id uuid.UUID) (*entity.BioLink, error) {
	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("link da bio não encontrado")
		}
		return nil, apperror.Internal(err)
	}
	if link.UserID != userID {
		return nil, apperror.Forbidden("você não tem permissão para alterar este link")
	}
	return link, nil
}

func (s *bioLinkService) Update(ctx context.Context, userID, id uuid.UUID, input dto.UpdateBioLinkInput) (*entity.BioLink, error) {
	link, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		link.Title = s.sanitizer.Sanitize(title)
	}
	if url := strings.TrimSpace(input.URL); url != "" {
		link.URL = url
	}
	if input.Icon != "" {
		if link.Icon, err = validIcon(strings.TrimSpace(input.Icon)); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, link); err != nil {
		return nil, apperror.Internal(err)
	}
	return link, nil
}

func (s *bioLinkService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	link, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, link); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// Reorder accepts only a permutation of the user's current bio link ids.
func (s *bioLinkService) Reorder(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*entity.BioLink, error) {
	current, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	if len(ids) != len(current) {
		return nil, apperror.Invalid("a nova ordem deve conter todos os links da bio")
	}
	owned := make(map[uuid.UUID]bool, len(current))
	for _, l := range current {
		owned[l.ID] = true
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !owned[id] || seen[id] {
			return nil, apperror.Invalid("a nova ordem deve conter cada link da bio exatamente uma vez")
		}
		seen[id] = true
	}

	if err := s.repo.Reorder(ctx, userID, ids); err != nil {
		return nil, apperror.Internal(err)
	}
	return s.List(ctx, userID)
}

func (s *bioLinkService) bioPageURL(userID uuid.UUID) string {
	return s.publicBaseURL + "/bio/" + userID.String()
}

func (s *bioLinkService) GetSlug(ctx context.Context, userID uuid.UUID) (*dto.BioSlugResponse, error) {
	link, err := s.links.FindBioLink(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("slug da bio ainda não definido")
		}
		return nil, apperror.Internal(err)
	}
	return &dto.BioSlugResponse{Slug: link.Slug, DestinationURL: link.DestinationURL}, nil
}

// SetSlug points slug at the user's bio page, replacing the previous bio
// slug. The slug shares the namespace of regular links.
func (s *bioLinkService) SetSlug(ctx context.Context, userID uuid.UUID, slug string) (*dto.BioSlugResponse, error) {
	slug = strings.TrimSpace(slug)
	if !urlutil.ValidSlug(slug) {
		return nil, apperror.Invalid("slug inválido: use apenas letras, números, - e _ (até 64 caracteres)")
	}
	if urlutil.IsReservedSlug(slug) {
		return nil, apperror.Invalid("slug reservado pelo sistema")
	}

	user, err := s.users.FindByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("usuário não encontrado")
		}
		return nil, apperror.Internal(err)
	}

	if existing, err := s.links.FindBySlug(ctx, slug); err == nil {
		if existing.UserID == userID && existing.IsBioLink {
			return &dto.BioSlugResponse{Slug: existing.Slug, DestinationURL: existing.DestinationURL}, nil
		}
		return nil, apperror.Conflict("slug já está em uso")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal(err)
	}

	title := "Bio"
	if user.BioName != nil && *user.BioName != "" {
		title = *user.BioName
	}

	link := &entity.Link{
		UserID:         userID,
		Slug:           slug,
		Title:          title,
		DestinationURL: s.bioPageURL(userID),
	}
	if err := s.links.ReplaceBioLink(ctx, link); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("slug já está em uso")
		}
		return nil, apperror.Internal(err)
	}

	return &dto.BioSlugResponse{Slug: link.Slug, DestinationURL: link.DestinationURL}, nil
}

func (s *bioLinkService) PublicPage(ctx context.Context, userID uuid.UUID) (*dto.PublicBioPage, error) {
	user, err := s.users.FindByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("página não encontrada")
		}
		return nil, apperror.Internal(err)
	}

	links, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	page := &dto.PublicBioPage{
		UserID:  user.ID,
		BioName: user.FullName,
		Links:   make([]dto.PublicBioLink, 0, len(links)),
	}
	if user.BioName != nil && *user.BioName != "" {
		page.BioName = *user.BioName
	}
	if user.BioAvatarURL != nil {
		page.BioAvatarURL = *user.BioAvatarURL
	} else if user.AvatarURL != nil {
		page.BioAvatarURL = *user.AvatarURL
	}

	for _, l := range links {
		page.Links = append(page.Links, dto.PublicBioLink{
			Title: l.Title,
			URL:   itemURL(l),
			Icon:  l.Icon,
		})
	}
	return page, nil
}

// itemURL is the address a bio link item opens. Email items become mailto
// links; everything else follows the usual destination rule.
func itemURL(l *entity.BioLink) string {
	url := strings.TrimSpace(l.URL)
	if l.Icon == "email" {
		if strings.HasPrefix(strings.ToLower(url), "mailto:") {
			return url
		}
		if strings.Contains(url, "@") && !strings.Contains(url, "/") {
			return "mailto:" + url
		}
	}
	return urlutil.NormalizeDestination(url)
}
