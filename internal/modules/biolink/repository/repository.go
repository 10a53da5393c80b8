package repository

import (
	"context"

	"anoa.com/linkbio/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BioLinkRepository keeps each user's bio links densely ordered: after
// every write the sort orders are exactly 0..n-1.
type BioLinkRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.BioLink, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.BioLink, error)
	Create(ctx context.Context, link *entity.BioLink) error
	Update(ctx context.Context, link *entity.BioLink) error
	Delete(ctx context.Context, link *entity.BioLink) error
	Reorder(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
}

type bioLinkRepository struct {
	db *gorm.DB
}

func NewBioLinkRepository(db *gorm.DB) BioLinkRepository {
	return &bioLinkRepository{db: db}
}

func ordered(tx *gorm.DB, userID uuid.UUID) ([]*entity.BioLink, error) {
	var links []*entity.BioLink
	err := tx.Where("user_id = ?", userID).
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&links).Error
	return links, err
}

func (r *bioLinkRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.BioLink, error) {
	return ordered(r.db.WithContext(ctx), userID)
}

func (r *bioLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.BioLink, error) {
	var link entity.BioLink
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// Create appends link at the end of the owner's list.
func (r *bioLinkRepository) Create(ctx context.Context, link *entity.BioLink) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.BioLink{}).Where("user_id = ?", link.UserID).Count(&count).Error; err != nil {
			return err
		}
		link.SortOrder = int(count)
		return tx.Create(link).Error
	})
}

// Update saves the editable fields; the position only changes via Reorder.
func (r *bioLinkRepository) Update(ctx context.Context, link *entity.BioLink) error {
	return r.db.WithContext(ctx).Model(link).
		Select("title", "url", "icon").
		Updates(map[string]interface{}{"title": link.Title, "url": link.URL, "icon": link.Icon}).Error
}

// Delete removes link and closes the gap it leaves.
func (r *bioLinkRepository) Delete(ctx context.Context, link *entity.BioLink) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.BioLink{}, "id = ?", link.ID).Error; err != nil {
			return err
		}
		remaining, err := ordered(tx, link.UserID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(remaining))
		for i, l := range remaining {
			ids[i] = l.ID
		}
		return assignOrder(tx, remaining, ids)
	})
}

// Reorder sets the positions to follow ids. The caller guarantees ids is a
// permutation of the user's bio link ids.
func (r *bioLinkRepository) Reorder(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := ordered(tx, userID)
		if err != nil {
			return err
		}
		return assignOrder(tx, current, ids)
	})
}

func assignOrder(tx *gorm.DB, current []*entity.BioLink, ids []uuid.UUID) error {
	position := make(map[uuid.UUID]int, len(current))
	for _, l := range current {
		position[l.ID] = l.SortOrder
	}
	for i, id := range ids {
		if pos, ok := position[id]; ok && pos == i {
			continue
		}
		if err := tx.Model(&entity.BioLink{}).Where("id = ?", id).UpdateColumn("sort_order", i).Error; err != nil {
			return err
		}
	}
	return nil
}
