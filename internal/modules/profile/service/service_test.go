package profile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"anoa.com/linkbio/internal/entity"
	profileDto "anoa.com/linkbio/internal/modules/profile/dto"
	userRepo "anoa.com/linkbio/internal/modules/user/repository"
	"anoa.com/linkbio/internal/testutil"
	"anoa.com/linkbio/pkg/apperror"
	commonDto "anoa.com/linkbio/pkg/dto"
	"anoa.com/linkbio/pkg/storage"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// blindEmailRepo skips the email lookup, like a request that lost a race
// with a concurrent update to the same address.
type blindEmailRepo struct {
	userRepo.UserRepository
}

func (blindEmailRepo) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

type memoryImages struct {
	uploads map[string]string
	deleted []string
}

func (m *memoryImages) UploadImage(_ context.Context, r io.Reader, folder, fileName string) (string, error) {
	if !strings.HasSuffix(fileName, ".png") {
		return "", fmt.Errorf("%w %q", storage.ErrUnsupportedImage, fileName)
	}
	body, _ := io.ReadAll(r)
	url := fmt.Sprintf("https://img.example/%s/%d-%s", folder, len(m.uploads), fileName)
	m.uploads[url] = string(body)
	return url, nil
}

func (m *memoryImages) DeleteImage(_ context.Context, fileURL string) error {
	m.deleted = append(m.deleted, fileURL)
	return nil
}

func ptr(s string) *string { return &s }

func png(name string) *commonDto.ImageFile {
	return &commonDto.ImageFile{Reader: strings.NewReader("PNG"), FileName: name}
}

func TestUpdateProfile(t *testing.T) {
	db := testutil.NewDB(t)
	ana := testutil.CreateUser(t, db, "ana", entity.RoleUser, "secret1")
	testutil.CreateUser(t, db, "bia", entity.RoleUser, "secret1")
	images := &memoryImages{uploads: map[string]string{}}
	svc := NewProfileService(userRepo.NewUserRepository(db), images)
	ctx := context.Background()

	res, err := svc.UpdateProfile(ctx, ana.ID.String(), profileDto.UpdateProfileInput{
		FullName: ptr("  Ana <script>x</script>Souza "),
		BioName:  ptr("<b>Ana</b>"),
		Password: ptr("novasenha"),
	}, Images{Avatar: png("me.png"), BioAvatar: png("bio.png")})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	u := res.User
	if u.FullName != "Ana Souza" || u.BioName == nil || *u.BioName != "Ana" {
		t.Errorf("sanitized fields = %q, %v", u.FullName, u.BioName)
	}
	if u.AvatarURL == nil || !strings.Contains(*u.AvatarURL, "/avatars/") {
		t.Errorf("AvatarURL = %v", u.AvatarURL)
	}
	if u.BioAvatarURL == nil || !strings.Contains(*u.BioAvatarURL, "/bio-avatars/") {
		t.Errorf("BioAvatarURL = %v", u.BioAvatarURL)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("novasenha")) != nil {
		t.Error("password was not changed")
	}
	if u.Role != entity.RoleUser {
		t.Errorf("Role = %q, profile update must not touch it", u.Role)
	}

	oldAvatar := *u.AvatarURL
	if _, err := svc.UpdateProfile(ctx, ana.ID.String(), profileDto.UpdateProfileInput{}, Images{Avatar: png("new.png")}); err != nil {
		t.Fatalf("second UpdateProfile() error = %v", err)
	}
	if len(images.deleted) != 1 || images.deleted[0] != oldAvatar {
		t.Errorf("deleted = %v, want old avatar", images.deleted)
	}
}

func TestUpdateProfile_Rejections(t *testing.T) {
	db := testutil.NewDB(t)
	ana := testutil.CreateUser(t, db, "ana", entity.RoleUser, "secret1")
	testutil.CreateUser(t, db, "bia", entity.RoleUser, "secret1")
	ctx := context.Background()

	svc := NewProfileService(userRepo.NewUserRepository(db), &memoryImages{uploads: map[string]string{}})

	_, err := svc.UpdateProfile(ctx, ana.ID.String(), profileDto.UpdateProfileInput{Email: ptr("BIA@example.com")}, Images{})
	if apperror.MapErrorToStatus(err) != http.StatusConflict {
		t.Errorf("taken email error = %v, want conflict", err)
	}

	_, err = svc.UpdateProfile(ctx, ana.ID.String(), profileDto.UpdateProfileInput{FullName: ptr("<i></i>")}, Images{})
	if apperror.MapErrorToStatus(err) != http.StatusBadRequest {
		t.Errorf("empty name error = %v, want invalid", err)
	}

	_, err = svc.UpdateProfile(ctx, ana.ID.String(), profileDto.UpdateProfileInput{}, Images{Avatar: &commonDto.ImageFile{Reader: strings.NewReader("x"), FileName: "doc.pdf"}})
	if apperror.MapErrorToStatus(err) != http.StatusBadRequest {
		t.Errorf("pdf upload error = %v, want invalid", err)
	}

	noStorage := NewProfileService(userRepo.NewUserRepository(db), nil)
	_, err = noStorage.UpdateProfile(ctx, ana.ID.String(), profileDto.UpdateProfileInput{}, Images{Avatar: png("me.png")})
	if apperror.MapErrorToStatus(err) != http.StatusBadRequest {
		t.Errorf("upload without storage error = %v, want invalid", err)
	}
}

func TestUpdateProfile_EmailTakenByConcurrentWrite(t *testing.T) {
	db := testutil.NewDB(t)
	ana := testutil.CreateUser(t, db, "ana", entity.RoleUser, "secret1")
	bia := testutil.CreateUser(t, db, "bia", entity.RoleUser, "secret1")
	images := &memoryImages{uploads: map[string]string{}}
	svc := NewProfileService(blindEmailRepo{userRepo.NewUserRepository(db)}, images)

	_, err := svc.UpdateProfile(context.Background(), ana.ID.String(), profileDto.UpdateProfileInput{
		Email: ptr(bia.Email),
	}, Images{Avatar: png("me.png")})
	if apperror.MapErrorToStatus(err) != http.StatusConflict {
		t.Fatalf("UpdateProfile() error = %v, want conflict", err)
	}
	if len(images.uploads) != 1 || len(images.deleted) != 1 {
		t.Errorf("uploads = %v, deleted = %v; want the new avatar removed again", images.uploads, images.deleted)
	}
}
