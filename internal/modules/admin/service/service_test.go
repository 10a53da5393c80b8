package service

import (
	"context"
	"net/http"
	"testing"

	"anoa.com/linkbio/internal/entity"
	"anoa.com/linkbio/internal/modules/admin/dto"
	linkRepo "anoa.com/linkbio/internal/modules/link/repository"
	"anoa.com/linkbio/internal/modules/user/repository"
	"anoa.com/linkbio/internal/testutil"
	"anoa.com/linkbio/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// blindRepo skips the pre-insert lookups, like a request that lost a race
// with a concurrent insert of the same user.
type blindRepo struct {
	repository.UserRepository
}

func (blindRepo) FindByUsername(context.Context, string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (blindRepo) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

type recordingIndex struct {
	deleted []string
}

func (r *recordingIndex) DeleteLinks(ids []string) error {
	r.deleted = append(r.deleted, ids...)
	return nil
}

func TestCreateUser(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ana", entity.RoleUser, "secret1")
	svc := NewAdminService(repository.NewUserRepository(db), linkRepo.NewLinkRepository(db), nil)
	ctx := context.Background()

	res, err := svc.CreateUser(ctx, dto.CreateUserInput{
		Username: "carla", Email: "Carla@Example.com", Password: "123456", Role: entity.RoleUser, FullName: "Carla",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if res.User.Email != "carla@example.com" {
		t.Errorf("Email = %q, want lowercased", res.User.Email)
	}
	if bcrypt.CompareHashAndPassword([]byte(res.User.PasswordHash), []byte("123456")) != nil {
		t.Error("password hash does not match")
	}

	for name, in := range map[string]dto.CreateUserInput{
		"username": {Username: "ana", Email: "new@example.com", Password: "123456", Role: entity.RoleUser, FullName: "X"},
		"email":    {Username: "novo", Email: "ana@example.com", Password: "123456", Role: entity.RoleUser, FullName: "X"},
	} {
		if _, err := svc.CreateUser(ctx, in); apperror.MapErrorToStatus(err) != http.StatusConflict {
			t.Errorf("duplicate %s error = %v, want conflict", name, err)
		}
	}
}

func TestUpdateUser_KeepsRole(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "admin", entity.RoleAdmin, "secret1")
	svc := NewAdminService(repository.NewUserRepository(db), linkRepo.NewLinkRepository(db), nil)

	res, err := svc.UpdateUser(context.Background(), admin.ID.String(), dto.UpdateUserInput{FullName: "Chefe", Password: "outra1"})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if res.User.FullName != "Chefe" || res.User.Role != entity.RoleAdmin {
		t.Errorf("user = %+v", res.User)
	}

	if _, err := svc.UpdateUser(context.Background(), "00000000-0000-0000-0000-000000000000", dto.UpdateUserInput{}); apperror.MapErrorToStatus(err) != http.StatusNotFound {
		t.Errorf("unknown user error = %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "admin", entity.RoleAdmin, "secret1")
	ana := testutil.CreateUser(t, db, "ana", entity.RoleUser, "secret1")
	link := testutil.CreateLink(t, db, ana, "promo", "https://example.com")
	db.Create(&entity.BioLink{UserID: ana.ID, Title: "Site", URL: "site.example", Icon: "website"})

	index := &recordingIndex{}
	svc := NewAdminService(repository.NewUserRepository(db), linkRepo.NewLinkRepository(db), index)
	ctx := context.Background()

	if err := svc.DeleteUser(ctx, admin.ID.String()); apperror.MapErrorToStatus(err) != http.StatusForbidden {
		t.Fatalf("deleting admin error = %v, want forbidden", err)
	}

	users, _ := svc.GetAllUsers(ctx)
	for _, u := range users {
		if u.User.ID == ana.ID && u.LinkCount != 1 {
			t.Errorf("ana link count = %d, want 1", u.LinkCount)
		}
	}

	if err := svc.DeleteUser(ctx, ana.ID.String()); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	var links, bioLinks int64
	db.Model(&entity.Link{}).Where("user_id = ?", ana.ID).Count(&links)
	db.Model(&entity.BioLink{}).Where("user_id = ?", ana.ID).Count(&bioLinks)
	if links != 0 || bioLinks != 0 {
		t.Errorf("left behind %d links and %d bio links", links, bioLinks)
	}
	if len(index.deleted) != 1 || index.deleted[0] != link.ID.String() {
		t.Errorf("index deletions = %v", index.deleted)
	}
}

func TestUniqueIndexViolationIsConflict(t *testing.T) {
	db := testutil.NewDB(t)
	ana := testutil.CreateUser(t, db, "ana", entity.RoleUser, "secret1")
	bia := testutil.CreateUser(t, db, "bia", entity.RoleUser, "secret1")
	svc := NewAdminService(blindRepo{repository.NewUserRepository(db)}, linkRepo.NewLinkRepository(db), nil)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, dto.CreateUserInput{
		Username: "ana", Email: "outra@example.com", Password: "123456", Role: entity.RoleUser, FullName: "Ana",
	})
	if apperror.MapErrorToStatus(err) != http.StatusConflict {
		t.Errorf("CreateUser() duplicate username error = %v, want conflict", err)
	}

	_, err = svc.UpdateUser(ctx, bia.ID.String(), dto.UpdateUserInput{Email: ana.Email})
	if apperror.MapErrorToStatus(err) != http.StatusConflict {
		t.Errorf("UpdateUser() duplicate email error = %v, want conflict", err)
	}
}
