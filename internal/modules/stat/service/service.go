package service

import (
	"context"
	"time"

	linkRepo "anoa.com/linkbio/internal/modules/link/repository"
	"anoa.com/linkbio/internal/modules/stat/dto"
	"anoa.com/linkbio/internal/modules/user/repository"
	"anoa.com/linkbio/pkg/apperror"
	"github.com/google/uuid"
)

const (
	DefaultDays     = 30
	DefaultTopLinks = 5
)

// StatService answers dashboard queries. Admins see every user's data,
// everyone else only their own.
type StatService interface {
	Dashboard(ctx context.Context, userID uuid.UUID, isAdmin bool) (*dto.DashboardStats, error)
	ClicksByDay(ctx context.Context, userID uuid.UUID, isAdmin bool, days int) ([]dto.DayClicks, error)
	TopLinks(ctx context.Context, userID uuid.UUID, isAdmin bool, limit int) (*dto.TopLinksResponse, error)
}

type statService struct {
	userRepo repository.UserRepository
	linkRepo linkRepo.LinkRepository
	now      func() time.Time
}

func NewStatService(userRepo repository.UserRepository, linkRepo linkRepo.LinkRepository) StatService {
	return &statService{
		userRepo: userRepo,
		linkRepo: linkRepo,
		now:      time.Now,
	}
}

func scope(userID uuid.UUID, isAdmin bool) *uuid.UUID {
	if isAdmin {
		return nil
	}
	return &userID
}

func (s *statService) Dashboard(ctx context.Context, userID uuid.UUID, isAdmin bool) (*dto.DashboardStats, error) {
	links, bioLinks, clicks, err := s.linkRepo.Totals(ctx, scope(userID, isAdmin))
	if err != nil {
		return nil, apperror.Internal(err)
	}

	stats := &dto.DashboardStats{
		TotalLinks:    links,
		TotalClicks:   clicks,
		TotalBioLinks: bioLinks,
	}

	if isAdmin {
		users, err := s.userRepo.Count(ctx)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		stats.TotalUsers = &users
	}
	return stats, nil
}

// ClicksByDay returns one entry per day for the last days days, today
// included, oldest first. Days without clicks are zero.
func (s *statService) ClicksByDay(ctx context.Context, userID uuid.UUID, isAdmin bool, days int) ([]dto.DayClicks, error) {
	if days <= 0 {
		days = DefaultDays
	}

	today := linkRepo.TruncateDay(s.now())
	since := today.AddDate(0, 0, -(days - 1))

	rows, err := s.linkRepo.DailyClicks(ctx, scope(userID, isAdmin), since)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	byDay := make(map[string]int64, len(rows))
	for _, row := range rows {
		byDay[row.Day.Format("2006-01-02")] += row.Count
	}

	series := make([]dto.DayClicks, 0, days)
	for day := since; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		series = append(series, dto.DayClicks{Date: key, Clicks: byDay[key]})
	}
	return series, nil
}

func (s *statService) TopLinks(ctx context.Context, userID uuid.UUID, isAdmin bool, limit int) (*dto.TopLinksResponse, error) {
	if limit <= 0 {
		limit = DefaultTopLinks
	}

	links, err := s.linkRepo.TopLinks(ctx, scope(userID, isAdmin), limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &dto.TopLinksResponse{Data: links}, nil
}
