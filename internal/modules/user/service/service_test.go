package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"anoa.com/linkbio/internal/entity"
	"anoa.com/linkbio/internal/modules/user/dto"
	"anoa.com/linkbio/internal/modules/user/repository"
	"anoa.com/linkbio/internal/session"
	"anoa.com/linkbio/internal/testutil"
	"anoa.com/linkbio/pkg/apperror"
	"anoa.com/linkbio/pkg/ratelimiter"
)

type countingRepo struct {
	repository.UserRepository
	lookups int
}

func (r *countingRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.lookups++
	return r.UserRepository.FindByUsername(ctx, username)
}

type failingChecker struct{}

func (failingChecker) CheckPassword(context.Context, *entity.User, string) (bool, error) {
	return false, errors.New("rpc unavailable")
}

type fixture struct {
	svc      AuthService
	repo     *countingRepo
	throttle *ratelimiter.LoginThrottle
	clock    *time.Time
	sessions *session.Manager
}

func newFixture(t *testing.T, checker PasswordChecker) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "admin", entity.RoleAdmin, "correct-horse")

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	repo := &countingRepo{UserRepository: repository.NewUserRepository(db)}
	throttle := ratelimiter.NewLoginThrottle(ratelimiter.NewMemoryStore(), ratelimiter.DefaultConfig()).
		WithClock(func() time.Time { return *clock })
	sessions := session.NewManager("test-secret", time.Hour, false, repo)

	if checker == nil {
		checker = NewBcryptChecker()
	}

	return &fixture{
		svc:      NewAuthService(repo, checker, throttle, sessions),
		repo:     repo,
		throttle: throttle,
		clock:    clock,
		sessions: sessions,
	}
}

func (f *fixture) login(username, password string) (*dto.AuthResponse, error) {
	return f.svc.Login(context.Background(), "198.51.100.7", dto.LoginInput{Username: username, Password: password})
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.login("admin", "wrong"); err == nil {
		t.Fatal("login with wrong password succeeded")
	}

	res, err := f.login("  admin ", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.User.Username != "admin" {
		t.Errorf("User.Username = %q, want admin", res.User.Username)
	}

	userID, err := f.sessions.Parse(res.AccessToken)
	if err != nil || userID != res.User.ID.String() {
		t.Errorf("session token carries %q (%v), want %s", userID, err, res.User.ID)
	}

	status, err := f.throttle.Check(context.Background(), "198.51.100.7")
	if err != nil || status.State != ratelimiter.StateClear {
		t.Errorf("throttle after success = %+v, %v; want clear", status, err)
	}
}

func TestLogin_EmptyFieldsDoNotConsumeAttempts(t *testing.T) {
	f := newFixture(t, nil)

	for _, in := range [][2]string{{"", "x"}, {"admin", "   "}, {" ", ""}} {
		_, err := f.login(in[0], in[1])
		if apperror.MapErrorToStatus(err) != http.StatusBadRequest {
			t.Errorf("Login(%q, %q) status = %d, want 400", in[0], in[1], apperror.MapErrorToStatus(err))
		}
	}

	if f.repo.lookups != 0 {
		t.Errorf("lookups = %d, want 0", f.repo.lookups)
	}
	status, _ := f.throttle.Check(context.Background(), "198.51.100.7")
	if status.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", status.Attempts)
	}
}

func TestLogin_UnknownUserCountsAttempt(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.login("nobody", "whatever")
	if apperror.MapErrorToStatus(err) != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", apperror.MapErrorToStatus(err))
	}
	if !strings.Contains(err.Error(), "Usuário ou senha inválidos") || !strings.Contains(err.Error(), "4 tentativa") {
		t.Errorf("message = %q, want generic invalid credentials with 4 remaining", err.Error())
	}

	status, _ := f.throttle.Check(context.Background(), "198.51.100.7")
	if status.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", status.Attempts)
	}
}

func TestLogin_WrongPasswordMessageDoesNotRevealField(t *testing.T) {
	f := newFixture(t, nil)

	_, errUnknown := f.login("nobody", "whatever")
	_, errWrong := f.login("admin", "whatever")

	strip := func(s string) string { return s[:strings.Index(s, ".")] }
	if strip(errUnknown.Error()) != strip(errWrong.Error()) {
		t.Errorf("messages differ: %q vs %q", errUnknown, errWrong)
	}
}

func TestLogin_LockoutAfterFiveFailures(t *testing.T) {
	f := newFixture(t, nil)

	var err error
	for i := 0; i < 5; i++ {
		_, err = f.login("admin", "wrongpass")
		*f.clock = f.clock.Add(10 * time.Second)
	}

	var rlErr *ratelimiter.RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("5th failure error = %v, want lockout", err)
	}

	lookupsBefore := f.repo.lookups
	_, err = f.login("admin", "correct-horse")
	if !errors.As(err, &rlErr) {
		t.Fatalf("6th attempt error = %v, want lockout", err)
	}
	if !strings.Contains(rlErr.Message, "15") {
		t.Errorf("lockout message = %q, want 15 minutes", rlErr.Message)
	}
	if f.repo.lookups != lookupsBefore {
		t.Error("blocked attempt performed a user lookup")
	}

	*f.clock = f.clock.Add(15*time.Minute + time.Second)
	if _, err := f.login("admin", "correct-horse"); err != nil {
		t.Errorf("login after block expiry error = %v, want success", err)
	}
}

func TestLogin_CheckerErrorCountsAttempt(t *testing.T) {
	f := newFixture(t, failingChecker{})

	_, err := f.login("admin", "correct-horse")
	if err == nil {
		t.Fatal("Login() error = nil, want failure")
	}
	if strings.Contains(err.Error(), "rpc unavailable") {
		t.Errorf("message %q leaks backend error", err.Error())
	}

	status, _ := f.throttle.Check(context.Background(), "198.51.100.7")
	if status.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", status.Attempts)
	}
}
