package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"time"

	"anoa.com/linkbio/internal/entity"
	"anoa.com/linkbio/internal/modules/link/dto"
	"anoa.com/linkbio/internal/modules/link/repository"
	searchService "anoa.com/linkbio/internal/modules/search/service"
	"anoa.com/linkbio/pkg/apperror"
	commonDto "anoa.com/linkbio/pkg/dto"
	"anoa.com/linkbio/pkg/ratelimiter"
	"anoa.com/linkbio/pkg/urlutil"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const maxSlugAttempts = 5

var errSlugTaken = apperror.Conflict("slug já está em uso")

type LinkService interface {
	List(ctx context.Context, userID uuid.UUID, isAdmin bool, query dto.ListLinksQuery) (*dto.LinkListResponse, error)
	Create(ctx context.Context, userID uuid.UUID, input dto.CreateLinkInput) (*entity.Link, error)
	Get(ctx context.Context, userID uuid.UUID, isAdmin bool, id uuid.UUID) (*entity.Link, error)
	Update(ctx context.Context, userID uuid.UUID, isAdmin bool, id uuid.UUID, input dto.UpdateLinkInput) (*entity.Link, error)
	Delete(ctx context.Context, userID uuid.UUID, isAdmin bool, id uuid.UUID) error
	Export(ctx context.Context, userID uuid.UUID, w io.Writer) error
}

type linkService struct {
	repo        repository.LinkRepository
	index       searchService.LinkIndex
	redisClient *redis.Client
	cooldown    time.Duration
	sanitizer   *bluemonday.Policy
}

// NewLinkService wires the link use cases. index and redisClient are
// optional: without an index search falls back to the database, without
// Redis creation is not throttled.
func NewLinkService(repo repository.LinkRepository, index searchService.LinkIndex, redisClient *redis.Client, cooldown time.Duration) LinkService {
	return &linkService{
		repo:        repo,
		index:       index,
		redisClient: redisClient,
		cooldown:    cooldown,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

func (s *linkService) List(ctx context.Context, userID uuid.UUID, isAdmin bool, query dto.ListLinksQuery) (*dto.LinkListResponse, error) {
	query.Normalize()

	filter := repository.ListFilter{
		Search: strings.TrimSpace(query.Search),
		Offset: query.Offset(),
		Limit:  query.Limit,
	}
	if !(isAdmin && query.All) {
		filter.UserID = &userID
	}

	if filter.Search != "" && s.index != nil {
		ids, err := s.index.SearchLinkIDs(filter.Search, filter.UserID, 1000)
		if err != nil {
			log.Printf("link search failed, falling back to database: %v", err)
		} else {
			filter.IDs = ids
		}
	}

	links, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &dto.LinkListResponse{
		Data: links,
		Meta: commonDto.NewPaginationMeta(query.Page, query.Limit, total),
	}, nil
}

func (s *linkService) Create(ctx context.Context, userID uuid.UUID, input dto.CreateLinkInput) (*entity.Link, error) {
	destination := strings.TrimSpace(input.DestinationURL)
	if destination == "" {
		return nil, apperror.Invalid("URL de destino é obrigatória")
	}

	slug := strings.TrimSpace(input.Slug)
	if slug != "" {
		if err := s.checkSlug(ctx, slug); err != nil {
			return nil, err
		}
	}

	allowed, err := ratelimiter.CheckAndSetCooldown(ctx, s.redisClient, userID, ratelimiter.ScopeCreateLink, s.cooldown)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !allowed {
		ttl, _ := ratelimiter.CooldownTTL(ctx, s.redisClient, userID, ratelimiter.ScopeCreateLink)
		return nil, &ratelimiter.RateLimitError{
			Message:    fmt.Sprintf("Aguarde %d segundo(s) antes de criar outro link.", int(math.Ceil(ttl.Seconds()))),
			RetryAfter: ttl,
		}
	}

	if slug == "" {
		if slug, err = s.generateSlug(ctx); err != nil {
			s.clearCooldown(ctx, userID)
			return nil, err
		}
	}

	link := &entity.Link{
		UserID:         userID,
		Slug:           slug,
		Title:          s.sanitizer.Sanitize(strings.TrimSpace(input.Title)),
		DestinationURL: destination,
	}
	if err := s.repo.Create(ctx, link); err != nil {
		s.clearCooldown(ctx, userID)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errSlugTaken
		}
		return nil, apperror.Internal(err)
	}

	s.reindex(link)
	return link, nil
}

// clearCooldown lifts the cooldown started by a creation that did not
// produce a link.
func (s *linkService) clearCooldown(ctx context.Context, userID uuid.UUID) {
	if err := ratelimiter.ClearCooldown(ctx, s.redisClient, userID, ratelimiter.ScopeCreateLink); err != nil {
		log.Printf("failed to clear link cooldown for %s: %v", userID, err)
	}
}

// checkSlug validates a caller-chosen slug and makes sure it is free.
func (s *linkService) checkSlug(ctx context.Context, slug string) error {
	if !urlutil.ValidSlug(slug) {
		return apperror.Invalid("slug inválido: use apenas letras, números, - e _ (até 64 caracteres)")
	}
	if urlutil.IsReservedSlug(slug) {
		return apperror.Invalid("slug reservado pelo sistema")
	}

	exists, err := s.repo.SlugExists(ctx, slug)
	if err != nil {
		return apperror.Internal(err)
	}
	if exists {
		return errSlugTaken
	}
	return nil
}

func (s *linkService) generateSlug(ctx context.Context) (string, error) {
	for i := 0; i < maxSlugAttempts; i++ {
		slug, err := urlutil.RandomSlug()
		if err != nil {
			return "", apperror.Internal(err)
		}
		if urlutil.IsReservedSlug(slug) {
			continue
		}
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", apperror.Internal(err)
		}
		if !exists {
			return slug, nil
		}
	}
	return "", apperror.Conflict("não foi possível gerar um slug único, tente novamente")
}

func (s *linkService) Get(ctx context.Context, userID uuid.UUID, isAdmin bool, id uuid.UUID) (*entity.Link, error) {
	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("link não encontrado")
		}
		return nil, apperror.Internal(err)
	}
	if link.UserID != userID && !isAdmin {
		return nil, apperror.Forbidden("você não tem permissão para acessar este link")
	}
	return link, nil
}

func (s *linkService) Update(ctx context.Context, userID uuid.UUID, isAdmin bool, id uuid.UUID, input dto.UpdateLinkInput) (*entity.Link, error) {
	link, err := s.Get(ctx, userID, isAdmin, id)
	if err != nil {
		return nil, err
	}
	if link.IsBioLink {
		return nil, apperror.Invalid("o link da página bio é alterado em /api/bio-links/slug")
	}

	if slug := strings.TrimSpace(input.Slug); slug != "" && slug != link.Slug {
		if err := s.checkSlug(ctx, slug); err != nil {
			return nil, err
		}
		link.Slug = slug
	}
	if input.Title != nil {
		link.Title = s.sanitizer.Sanitize(strings.TrimSpace(*input.Title))
	}
	if destination := strings.TrimSpace(input.DestinationURL); destination != "" {
		link.DestinationURL = destination
	}

	if err := s.repo.Update(ctx, link); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errSlugTaken
		}
		return nil, apperror.Internal(err)
	}

	s.reindex(link)
	return link, nil
}

func (s *linkService) Delete(ctx context.Context, userID uuid.UUID, isAdmin bool, id uuid.UUID) error {
	link, err := s.Get(ctx, userID, isAdmin, id)
	if err != nil {
		return err
	}
	if link.IsBioLink {
		return apperror.Invalid("o link da página bio é alterado em /api/bio-links/slug")
	}

	if err := s.repo.Delete(ctx, link.ID); err != nil {
		return apperror.Internal(err)
	}

	if s.index != nil {
		if err := s.index.DeleteLink(link.ID.String()); err != nil {
			log.Printf("failed to drop link %s from search index: %v", link.ID, err)
		}
	}
	return nil
}

func (s *linkService) reindex(link *entity.Link) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexLink(link); err != nil {
		log.Printf("failed to index link %s: %v", link.ID, err)
	}
}
