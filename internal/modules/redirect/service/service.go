package service

import (
	"context"
	"errors"
	"log"

	"anoa.com/linkbio/internal/entity"
	linkRepo "anoa.com/linkbio/internal/modules/link/repository"
	"anoa.com/linkbio/pkg/apperror"
	"anoa.com/linkbio/pkg/urlutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrLinkNotFound is returned when no link carries the requested slug.
var ErrLinkNotFound = apperror.NotFound("Link não encontrado")

// ClickRecorder counts a successful resolution.
type ClickRecorder interface {
	Track(ctx context.Context, link *entity.Link) error
}

// Target is where a slug leads. DestinationURL is already normalized.
type Target struct {
	LinkID         uuid.UUID `json:"-"`
	DestinationURL string    `json:"destination_url"`
	IsBioLink      bool      `json:"is_bio_link"`
	UserID         uuid.UUID `json:"user_id"`
}

type Resolver interface {
	Resolve(ctx context.Context, slug string) (*Target, error)
}

type resolver struct {
	links  linkRepo.LinkRepository
	clicks ClickRecorder
}

// NewResolver builds the slug resolver. clicks may be nil.
func NewResolver(links linkRepo.LinkRepository, clicks ClickRecorder) Resolver {
	return &resolver{links: links, clicks: clicks}
}

// Resolve looks slug up exactly as given. A failed click count never
// fails the resolution.
func (r *resolver) Resolve(ctx context.Context, slug string) (*Target, error) {
	link, err := r.links.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, apperror.Internal(err)
	}

	if r.clicks != nil {
		if err := r.clicks.Track(ctx, link); err != nil {
			log.Printf("failed to record click on %s: %v", link.Slug, err)
		}
	}

	return &Target{
		LinkID:         link.ID,
		DestinationURL: urlutil.NormalizeDestination(link.DestinationURL),
		IsBioLink:      link.IsBioLink,
		UserID:         link.UserID,
	}, nil
}
