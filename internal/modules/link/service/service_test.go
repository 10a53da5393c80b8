package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"anoa.com/linkbio/internal/entity"
	"anoa.com/linkbio/internal/modules/link/dto"
	"anoa.com/linkbio/internal/modules/link/repository"
	"anoa.com/linkbio/internal/testutil"
	"anoa.com/linkbio/pkg/apperror"
	"anoa.com/linkbio/pkg/ratelimiter"
	"anoa.com/linkbio/pkg/urlutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type fakeIndex struct {
	indexed map[string]string
	hits    []uuid.UUID
	owner   *uuid.UUID
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[string]string{}}
}

func (f *fakeIndex) IndexLink(link *entity.Link) error {
	f.indexed[link.ID.String()] = link.Slug
	return nil
}

func (f *fakeIndex) DeleteLink(id string) error {
	delete(f.indexed, id)
	return nil
}

func (f *fakeIndex) DeleteLinks(ids []string) error {
	for _, id := range ids {
		delete(f.indexed, id)
	}
	return nil
}

func (f *fakeIndex) SearchLinkIDs(_ string, owner *uuid.UUID, _ int64) ([]uuid.UUID, error) {
	f.owner = owner
	return f.hits, nil
}

// racingRepo reports the slug as taken on insert, as when another request
// claims it between the existence check and the insert.
type racingRepo struct {
	repository.LinkRepository
	failures int
}

func (r *racingRepo) Create(ctx context.Context, link *entity.Link) error {
	if r.failures > 0 {
		r.failures--
		return gorm.ErrDuplicatedKey
	}
	return r.LinkRepository.Create(ctx, link)
}

func setup(t *testing.T) (*gorm.DB, *entity.User, *entity.User, *entity.User) {
	t.Helper()
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "admin", entity.RoleAdmin, "secret1")
	ana := testutil.CreateUser(t, db, "ana", entity.RoleUser, "secret1")
	bia := testutil.CreateUser(t, db, "bia", entity.RoleUser, "secret1")
	return db, admin, ana, bia
}

func statusOf(err error) int {
	return apperror.MapErrorToStatus(err)
}

func TestCreate_SlugRules(t *testing.T) {
	db, _, ana, _ := setup(t)
	svc := NewLinkService(repository.NewLinkRepository(db), nil, nil, 0)
	ctx := context.Background()

	created, err := svc.Create(ctx, ana.ID, dto.CreateLinkInput{Slug: "promo", Title: "<b>Promo</b>", DestinationURL: "example.com/x"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Title != "Promo" {
		t.Errorf("Title = %q, want sanitized Promo", created.Title)
	}
	if created.DestinationURL != "example.com/x" {
		t.Errorf("DestinationURL = %q, want stored as typed", created.DestinationURL)
	}

	tests := []struct {
		name   string
		slug   string
		status int
	}{
		{"duplicate", "promo", http.StatusConflict},
		{"invalid characters", "pro mo!", http.StatusBadRequest},
		{"reserved", "dashboard", http.StatusBadRequest},
		{"too long", string(bytes.Repeat([]byte("a"), 65)), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, ana.ID, dto.CreateLinkInput{Slug: tt.slug, DestinationURL: "https://example.com"})
			if statusOf(err) != tt.status {
				t.Errorf("status = %d (%v), want %d", statusOf(err), err, tt.status)
			}
		})
	}

	_, err = svc.Create(ctx, ana.ID, dto.CreateLinkInput{Slug: "promo", DestinationURL: "https://example.com"})
	if err == nil || err.Error() != "slug já está em uso" {
		t.Errorf("duplicate error = %v", err)
	}
}

func TestCreate_GeneratesSlug(t *testing.T) {
	db, _, ana, _ := setup(t)
	index := newFakeIndex()
	svc := NewLinkService(repository.NewLinkRepository(db), index, nil, 0)

	created, err := svc.Create(context.Background(), ana.ID, dto.CreateLinkInput{DestinationURL: "https://example.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(created.Slug) != 6 || !urlutil.ValidSlug(created.Slug) {
		t.Errorf("generated slug = %q", created.Slug)
	}
	if index.indexed[created.ID.String()] != created.Slug {
		t.Error("created link was not indexed")
	}
}

func TestCreate_Cooldown(t *testing.T) {
	db, _, ana, _ := setup(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewLinkService(repository.NewLinkRepository(db), nil, rdb, 3*time.Second)
	ctx := context.Background()

	if _, err := svc.Create(ctx, ana.ID, dto.CreateLinkInput{DestinationURL: "https://a.example"}); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	_, err := svc.Create(ctx, ana.ID, dto.CreateLinkInput{DestinationURL: "https://b.example"})
	var rlErr *ratelimiter.RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("second Create() error = %v, want cooldown", err)
	}
	if rlErr.RetryAfter <= 0 || rlErr.RetryAfter > 3*time.Second {
		t.Errorf("RetryAfter = %v", rlErr.RetryAfter)
	}

	mr.FastForward(3 * time.Second)
	if _, err := svc.Create(ctx, ana.ID, dto.CreateLinkInput{DestinationURL: "https://b.example"}); err != nil {
		t.Errorf("Create() after cooldown error = %v", err)
	}
}

func TestCreate_InvalidInputDoesNotStartCooldown(t *testing.T) {
	db, _, ana, _ := setup(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewLinkService(repository.NewLinkRepository(db), nil, rdb, time.Minute)
	ctx := context.Background()

	if _, err := svc.Create(ctx, ana.ID, dto.CreateLinkInput{Slug: "api", DestinationURL: "https://a.example"}); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("reserved slug error = %v", err)
	}
	if _, err := svc.Create(ctx, ana.ID, dto.CreateLinkInput{Slug: "ok", DestinationURL: "https://a.example"}); err != nil {
		t.Errorf("Create() after rejected input error = %v", err)
	}
}

func TestCreate_FailedInsertLiftsCooldown(t *testing.T) {
	db, _, ana, _ := setup(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &racingRepo{LinkRepository: repository.NewLinkRepository(db), failures: 1}
	svc := NewLinkService(repo, nil, rdb, time.Minute)
	ctx := context.Background()

	_, err := svc.Create(ctx, ana.ID, dto.CreateLinkInput{Slug: "promo", DestinationURL: "https://a.example"})
	if statusOf(err) != http.StatusConflict {
		t.Fatalf("racing Create() error = %v, want conflict", err)
	}

	if _, err := svc.Create(ctx, ana.ID, dto.CreateLinkInput{Slug: "promo2", DestinationURL: "https://a.example"}); err != nil {
		t.Errorf("Create() right after a failed insert error = %v, want no cooldown", err)
	}
	if _, err := svc.Create(ctx, ana.ID, dto.CreateLinkInput{DestinationURL: "https://b.example"}); statusOf(err) != http.StatusTooManyRequests {
		t.Errorf("Create() after a stored link error = %v, want cooldown", err)
	}
}

func TestList_ScopesAndSearch(t *testing.T) {
	db, admin, ana, bia := setup(t)
	testutil.CreateLink(t, db, ana, "ana-shop", "https://shop.example")
	testutil.CreateLink(t, db, ana, "ana-blog", "https://blog.example")
	biaLink := testutil.CreateLink(t, db, bia, "bia-shop", "https://shop.example/bia")
	ctx := context.Background()

	svc := NewLinkService(repository.NewLinkRepository(db), nil, nil, 0)

	own, err := svc.List(ctx, ana.ID, false, dto.ListLinksQuery{All: true})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if own.Meta.TotalItems != 2 {
		t.Errorf("non-admin all=true total = %d, want own 2", own.Meta.TotalItems)
	}

	all, _ := svc.List(ctx, admin.ID, true, dto.ListLinksQuery{All: true})
	if all.Meta.TotalItems != 3 {
		t.Errorf("admin all=true total = %d, want 3", all.Meta.TotalItems)
	}

	found, _ := svc.List(ctx, ana.ID, false, dto.ListLinksQuery{Search: "SHOP"})
	if found.Meta.TotalItems != 1 || found.Data[0].Slug != "ana-shop" {
		t.Errorf("database search = %+v", found.Data)
	}

	index := newFakeIndex()
	index.hits = []uuid.UUID{biaLink.ID}
	svc = NewLinkService(repository.NewLinkRepository(db), index, nil, 0)
	found, _ = svc.List(ctx, ana.ID, false, dto.ListLinksQuery{Search: "shop"})
	if index.owner == nil || *index.owner != ana.ID {
		t.Errorf("index searched owner %v, want %s", index.owner, ana.ID)
	}
	if found.Meta.TotalItems != 0 {
		t.Errorf("foreign search hit leaked: %+v", found.Data)
	}
}

func TestUpdateDelete_Ownership(t *testing.T) {
	db, admin, ana, bia := setup(t)
	link := testutil.CreateLink(t, db, ana, "ana-link", "https://a.example")
	testutil.CreateLink(t, db, bia, "taken", "https://b.example")
	svc := NewLinkService(repository.NewLinkRepository(db), nil, nil, 0)
	ctx := context.Background()

	if _, err := svc.Update(ctx, bia.ID, false, link.ID, dto.UpdateLinkInput{DestinationURL: "https://evil.example"}); statusOf(err) != http.StatusForbidden {
		t.Errorf("foreign update status = %d, want 403", statusOf(err))
	}

	if _, err := svc.Update(ctx, ana.ID, false, link.ID, dto.UpdateLinkInput{Slug: "taken"}); statusOf(err) != http.StatusConflict {
		t.Errorf("update to taken slug status = %d, want 409", statusOf(err))
	}

	title := "Novo"
	updated, err := svc.Update(ctx, admin.ID, true, link.ID, dto.UpdateLinkInput{Slug: "renamed", Title: &title})
	if err != nil {
		t.Fatalf("admin Update() error = %v", err)
	}
	if updated.Slug != "renamed" || updated.Title != "Novo" || updated.DestinationURL != "https://a.example" {
		t.Errorf("updated = %+v", updated)
	}

	if err := svc.Delete(ctx, bia.ID, false, link.ID); statusOf(err) != http.StatusForbidden {
		t.Errorf("foreign delete status = %d, want 403", statusOf(err))
	}
	if err := svc.Delete(ctx, ana.ID, false, link.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, ana.ID, false, link.ID); statusOf(err) != http.StatusNotFound {
		t.Errorf("Get() after delete status = %d, want 404", statusOf(err))
	}
}

func TestBioPageLinkIsNotEditableHere(t *testing.T) {
	db, _, ana, _ := setup(t)
	repo := repository.NewLinkRepository(db)
	bio := &entity.Link{UserID: ana.ID, Slug: "ana", DestinationURL: "https://site.example/bio/" + ana.ID.String()}
	if err := repo.ReplaceBioLink(context.Background(), bio); err != nil {
		t.Fatalf("ReplaceBioLink() error = %v", err)
	}

	svc := NewLinkService(repo, nil, nil, 0)
	if err := svc.Delete(context.Background(), ana.ID, false, bio.ID); statusOf(err) != http.StatusBadRequest {
		t.Errorf("Delete(bio link) status = %d, want 400", statusOf(err))
	}
}

func TestExport(t *testing.T) {
	db, _, ana, _ := setup(t)
	link := testutil.CreateLink(t, db, ana, "promo", "https://example.com/x")
	db.Model(link).UpdateColumn("clicks", 7)
	svc := NewLinkService(repository.NewLinkRepository(db), nil, nil, 0)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), ana.ID, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[1][0] != "promo" || rows[1][2] != "https://example.com/x" || rows[1][4] != "7" {
		t.Errorf("row = %v", rows[1])
	}
}
