package repository

import (
	"context"
	"time"

	"anoa.com/linkbio/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows FindAll. A nil UserID lists every user's links; a
// non-nil IDs restricts the result to those ids (search hits).
type ListFilter struct {
	UserID *uuid.UUID
	Search string
	IDs    []uuid.UUID
	Offset int
	Limit  int
}

// DailyClicks is the click total of one UTC day.
type DailyClicks struct {
	Day   time.Time
	Count int64
}

type LinkRepository interface {
	Create(ctx context.Context, link *entity.Link) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Link, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Link, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	FindAll(ctx context.Context, filter ListFilter) ([]*entity.Link, int64, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Link, error)
	IDsByUser(ctx context.Context, userID uuid.UUID) ([]string, error)
	CountByUser(ctx context.Context) (map[uuid.UUID]int64, error)
	Update(ctx context.Context, link *entity.Link) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindBioLink(ctx context.Context, userID uuid.UUID) (*entity.Link, error)
	ReplaceBioLink(ctx context.Context, link *entity.Link) error

	AddClicks(ctx context.Context, id uuid.UUID, day time.Time, n int64) error
	AddTotalClicks(ctx context.Context, id uuid.UUID, n int64) error
	AddDailyClicks(ctx context.Context, id uuid.UUID, day time.Time, n int64) error
	DailyClicks(ctx context.Context, userID *uuid.UUID, since time.Time) ([]DailyClicks, error)
	TopLinks(ctx context.Context, userID *uuid.UUID, limit int) ([]*entity.Link, error)
	Totals(ctx context.Context, userID *uuid.UUID) (links, bioLinks, clicks int64, err error)
}

type linkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *entity.Link) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *linkRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Link, error) {
	var link entity.Link
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// FindBySlug matches the slug exactly (case-sensitive).
func (r *linkRepository) FindBySlug(ctx context.Context, slug string) (*entity.Link, error) {
	var link entity.Link
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Link{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll lists regular links, newest first. Bio page links are managed
// through the bio link endpoints and never listed here.
func (r *linkRepository) FindAll(ctx context.Context, filter ListFilter) ([]*entity.Link, int64, error) {
	var links []*entity.Link
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Link{}).Where("is_bio_link = ?", false)
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []*entity.Link{}, 0, nil
		}
		query = query.Where("id IN ?", filter.IDs)
	} else if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("(LOWER(slug) LIKE LOWER(?) OR LOWER(title) LIKE LOWER(?) OR LOWER(destination_url) LIKE LOWER(?))", pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&links).Error; err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

func (r *linkRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Link, error) {
	var links []*entity.Link
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *linkRepository) IDsByUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&entity.Link{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *linkRepository) CountByUser(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		UserID uuid.UUID
		Total  int64
	}
	if err := r.db.WithContext(ctx).Model(&entity.Link{}).
		Select("user_id, COUNT(*) AS total").
		Where("is_bio_link = ?", false).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.UserID] = row.Total
	}
	return counts, nil
}

func (r *linkRepository) Update(ctx context.Context, link *entity.Link) error {
	return r.db.WithContext(ctx).Save(link).Error
}

func (r *linkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", id).Delete(&entity.LinkClickDaily{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Link{}, "id = ?", id).Error
	})
}

func (r *linkRepository) FindBioLink(ctx context.Context, userID uuid.UUID) (*entity.Link, error) {
	var link entity.Link
	if err := r.db.WithContext(ctx).Where("user_id = ? AND is_bio_link = ?", userID, true).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// ReplaceBioLink drops the owner's current bio page link and inserts link
// in its place. Both happen in one transaction, so a slug collision on the
// insert leaves the previous link untouched.
func (r *linkRepository) ReplaceBioLink(ctx context.Context, link *entity.Link) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old []uuid.UUID
		if err := tx.Model(&entity.Link{}).
			Where("user_id = ? AND is_bio_link = ?", link.UserID, true).
			Pluck("id", &old).Error; err != nil {
			return err
		}
		if len(old) > 0 {
			if err := tx.Where("link_id IN ?", old).Delete(&entity.LinkClickDaily{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", old).Delete(&entity.Link{}).Error; err != nil {
				return err
			}
		}
		link.IsBioLink = true
		return tx.Create(link).Error
	})
}

// AddClicks bumps the running total and the day's aggregate together.
func (r *linkRepository) AddClicks(ctx context.Context, id uuid.UUID, day time.Time, n int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Link{}).Where("id = ?", id).
			UpdateColumn("clicks", gorm.Expr("clicks + ?", n)).Error; err != nil {
			return err
		}
		return upsertDaily(tx, id, day, n)
	})
}

func (r *linkRepository) AddTotalClicks(ctx context.Context, id uuid.UUID, n int64) error {
	return r.db.WithContext(ctx).Model(&entity.Link{}).Where("id = ?", id).
		UpdateColumn("clicks", gorm.Expr("clicks + ?", n)).Error
}

func (r *linkRepository) AddDailyClicks(ctx context.Context, id uuid.UUID, day time.Time, n int64) error {
	return upsertDaily(r.db.WithContext(ctx), id, day, n)
}

func upsertDaily(tx *gorm.DB, id uuid.UUID, day time.Time, n int64) error {
	row := entity.LinkClickDaily{LinkID: id, Day: TruncateDay(day), Count: n}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "link_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count": gorm.Expr("link_click_dailies.count + excluded.count"),
		}),
	}).Create(&row).Error
}

// DailyClicks sums the per-day aggregates since the given day, optionally
// restricted to one owner. Days without clicks are absent.
func (r *linkRepository) DailyClicks(ctx context.Context, userID *uuid.UUID, since time.Time) ([]DailyClicks, error) {
	var rows []entity.LinkClickDaily
	query := r.db.WithContext(ctx).Model(&entity.LinkClickDaily{}).Where("day >= ?", TruncateDay(since))
	if userID != nil {
		owned := r.db.Model(&entity.Link{}).Select("id").Where("user_id = ?", *userID)
		query = query.Where("link_id IN (?)", owned)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]int64)
	for _, row := range rows {
		byDay[TruncateDay(row.Day)] += row.Count
	}

	result := make([]DailyClicks, 0, len(byDay))
	for day, count := range byDay {
		result = append(result, DailyClicks{Day: day, Count: count})
	}
	return result, nil
}

func (r *linkRepository) TopLinks(ctx context.Context, userID *uuid.UUID, limit int) ([]*entity.Link, error) {
	var links []*entity.Link
	query := r.db.WithContext(ctx).Where("is_bio_link = ?", false)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if err := query.Order("clicks DESC").Order("created_at DESC").Limit(limit).Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *linkRepository) Totals(ctx context.Context, userID *uuid.UUID) (links, bioLinks, clicks int64, err error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&entity.Link{})
		if userID != nil {
			q = q.Where("user_id = ?", *userID)
		}
		return q
	}

	if err = scoped().Where("is_bio_link = ?", false).Count(&links).Error; err != nil {
		return
	}
	if err = scoped().Where("is_bio_link = ?", true).Count(&bioLinks).Error; err != nil {
		return
	}
	err = scoped().Select("COALESCE(SUM(clicks), 0)").Scan(&clicks).Error
	return
}

// TruncateDay returns the start of t's UTC day.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
