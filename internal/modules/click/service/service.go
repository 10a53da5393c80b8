package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"anoa.com/linkbio/internal/entity"
	linkRepo "anoa.com/linkbio/internal/modules/link/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	pendingKey = "pending:link_clicks"
	dayLayout  = "2006-01-02"
)

// Event is published on the owner's channel for every recorded click.
type Event struct {
	LinkID uuid.UUID `json:"link_id"`
	Slug   string    `json:"slug"`
	At     time.Time `json:"at"`
}

// EventsChannel is the pub/sub channel carrying a user's click events.
func EventsChannel(userID string) string {
	return fmt.Sprintf("link_events:%s", userID)
}

type ClickService interface {
	Track(ctx context.Context, link *entity.Link) error
	// SyncClicks moves buffered counters into the database and reports how
	// many link/day pairs were flushed.
	SyncClicks(ctx context.Context) (int, error)
}

type clickService struct {
	redisClient *redis.Client
	linkRepo    linkRepo.LinkRepository
	now         func() time.Time
}

// NewClickService buffers clicks in Redis when redisClient is set and
// writes straight to the database otherwise.
func NewClickService(redisClient *redis.Client, linkRepo linkRepo.LinkRepository) ClickService {
	return &clickService{
		redisClient: redisClient,
		linkRepo:    linkRepo,
		now:         time.Now,
	}
}

func totalKey(linkID string) string {
	return fmt.Sprintf("link:clicks:%s", linkID)
}

func dailyKey(linkID, day string) string {
	return fmt.Sprintf("link:clicks:%s:%s", linkID, day)
}

func (s *clickService) Track(ctx context.Context, link *entity.Link) error {
	now := s.now().UTC()

	if s.redisClient == nil {
		if err := s.linkRepo.AddClicks(ctx, link.ID, now, 1); err != nil {
			return fmt.Errorf("failed to record click: %w", err)
		}
		return nil
	}

	id := link.ID.String()
	day := now.Format(dayLayout)

	payload, err := json.Marshal(Event{LinkID: link.ID, Slug: link.Slug, At: now})
	if err != nil {
		return err
	}

	// The pending member is added after the counters so a concurrent sync
	// that already drained them leaves the member for the next run.
	_, err = s.redisClient.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, totalKey(id))
		pipe.Incr(ctx, dailyKey(id, day))
		pipe.SAdd(ctx, pendingKey, id+"|"+day)
		pipe.Publish(ctx, EventsChannel(link.UserID.String()), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to buffer click: %w", err)
	}
	return nil
}

func (s *clickService) SyncClicks(ctx context.Context) (int, error) {
	if s.redisClient == nil {
		return 0, nil
	}

	members, err := s.redisClient.SMembers(ctx, pendingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read pending clicks: %w", err)
	}

	drainedTotals := make(map[string]bool)
	synced := 0
	for _, member := range members {
		id, dayStr, ok := strings.Cut(member, "|")
		if !ok {
			s.redisClient.SRem(ctx, pendingKey, member)
			continue
		}
		linkID, err := uuid.Parse(id)
		if err != nil {
			log.Printf("Invalid link ID in pending clicks: %s: %v", id, err)
			s.redisClient.SRem(ctx, pendingKey, member)
			continue
		}
		day, err := time.Parse(dayLayout, dayStr)
		if err != nil {
			log.Printf("Invalid day in pending clicks: %s: %v", member, err)
			s.redisClient.SRem(ctx, pendingKey, member)
			continue
		}

		// Remove the member before draining, see Track.
		if err := s.redisClient.SRem(ctx, pendingKey, member).Err(); err != nil {
			return synced, fmt.Errorf("failed to update pending clicks: %w", err)
		}

		daily, err := s.drain(ctx, dailyKey(id, dayStr))
		if err != nil {
			log.Printf("Error getting daily clicks for link %s: %v", id, err)
			s.requeue(ctx, member)
			continue
		}
		if daily > 0 {
			if err := s.linkRepo.AddDailyClicks(ctx, linkID, day, daily); err != nil {
				log.Printf("Failed to store daily clicks for link %s: %v", id, err)
				s.restore(ctx, dailyKey(id, dayStr), member, daily)
				continue
			}
		}

		if drainedTotals[id] {
			synced++
			continue
		}
		drainedTotals[id] = true

		total, err := s.drain(ctx, totalKey(id))
		if err != nil {
			log.Printf("Error getting click count for link %s: %v", id, err)
			s.requeue(ctx, member)
			continue
		}
		if total > 0 {
			if err := s.linkRepo.AddTotalClicks(ctx, linkID, total); err != nil {
				log.Printf("Failed to store clicks for link %s: %v", id, err)
				s.restore(ctx, totalKey(id), member, total)
				continue
			}
		}
		synced++
	}

	return synced, nil
}

// drain atomically reads and deletes a counter. A missing key is zero.
func (s *clickService) drain(ctx context.Context, key string) (int64, error) {
	n, err := s.redisClient.GetDel(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// restore puts a drained count back so the next run retries it.
func (s *clickService) restore(ctx context.Context, key, member string, n int64) {
	if err := s.redisClient.IncrBy(ctx, key, n).Err(); err != nil {
		log.Printf("Failed to restore %d clicks on %s: %v", n, key, err)
		return
	}
	s.requeue(ctx, member)
}

// requeue marks member pending again so the next run retries it.
func (s *clickService) requeue(ctx context.Context, member string) {
	if err := s.redisClient.SAdd(ctx, pendingKey, member).Err(); err != nil {
		log.Printf("Failed to requeue pending clicks %s: %v", member, err)
	}
}
