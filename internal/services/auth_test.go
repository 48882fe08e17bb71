package services

import (
	"errors"
	"testing"

	"github.com/huangang/coachflow/backend/internal/config"
	"github.com/huangang/coachflow/backend/internal/models"
	"github.com/huangang/coachflow/backend/internal/utils"
)

func init() {
	utils.SetJWTSecret("services-test-secret")
}

func newAuthService(t *testing.T) (*AuthService, *fixture) {
	t.Helper()
	f := newFixture(t)
	return NewAuthService(f.db, &config.JWTConfig{ExpireHour: 1}), f
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := newAuthService(t)

	user, err := svc.Register(&RegisterRequest{Name: "Grace", Email: "  Grace@Example.com ", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "grace@example.com" {
		t.Errorf("Email = %q, expected normalized address", user.Email)
	}
	if user.Password == "correct-horse" {
		t.Error("password must be stored hashed")
	}

	got, err := svc.Authenticate("GRACE@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Authenticate() user = %d, expected %d", got.ID, user.ID)
	}
}

func TestAuthenticate_SameErrorForUnknownEmailAndBadPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	if _, err := svc.Register(&RegisterRequest{Name: "Grace", Email: "grace@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, errUnknown := svc.Authenticate("nobody@example.com", "correct-horse")
	_, errWrong := svc.Authenticate("grace@example.com", "wrong-password")

	if !errors.Is(errUnknown, ErrInvalidCredentials) || !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Fatalf("errors = %v / %v, expected ErrInvalidCredentials for both", errUnknown, errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("messages differ: %q vs %q", errUnknown.Error(), errWrong.Error())
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, f := newAuthService(t)

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"short password", RegisterRequest{Name: "A", Email: "a@example.com", Password: "short"}, ErrValidation},
		{"bad email", RegisterRequest{Name: "A", Email: "not-an-email", Password: "long-enough"}, ErrValidation},
		{"blank name", RegisterRequest{Name: "  ", Email: "b@example.com", Password: "long-enough"}, ErrValidation},
		{"taken email", RegisterRequest{Name: "A", Email: f.coach.Email, Password: "long-enough"}, ErrEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(&tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Register() error = %v, expected %v", err, tt.want)
			}
		})
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	svc, _ := newAuthService(t)

	token, expireAt, err := svc.IssueToken(42)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if expireAt.IsZero() {
		t.Error("expiry should be set")
	}

	id, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if id != 42 {
		t.Errorf("VerifyToken() id = %d, expected 42", id)
	}

	if _, err := svc.VerifyToken("garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("VerifyToken(garbage) error = %v, expected ErrTokenInvalid", err)
	}

	expired := NewAuthService(svc.db, &config.JWTConfig{ExpireHour: -1})
	old, _, _ := expired.IssueToken(42)
	if _, err := svc.VerifyToken(old); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("VerifyToken(expired) error = %v, expected ErrTokenExpired", err)
	}
}

func TestLogin_SelectsMembershipWhenNoneSelected(t *testing.T) {
	svc, f := newAuthService(t)

	user, err := svc.Register(&RegisterRequest{Name: "Linus", Email: "linus@example.com", Password: "long-enough"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	addMember(t, f.db, user.ID, f.org.ID, models.RoleCoach, false)

	res, err := svc.Login(&LoginRequest{Email: "linus@example.com", Password: "long-enough"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.Token == "" {
		t.Error("Login() should issue a token")
	}
	if res.Selected == nil || res.Selected.OrganizationID != f.org.ID {
		t.Errorf("Selected = %+v, expected org %d", res.Selected, f.org.ID)
	}
	if len(res.Organizations) != 1 {
		t.Errorf("Organizations = %d, expected 1", len(res.Organizations))
	}
	if res.User.LastLogin == nil {
		t.Error("LastLogin should be recorded")
	}
	if n := countSelected(t, f.db, user.ID); n != 1 {
		t.Errorf("selected memberships = %d, expected 1", n)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, f := newAuthService(t)

	user, err := svc.UpdateProfile(f.e1.ID, &UpdateProfileRequest{Name: "Eve One", Email: "eve@example.com"})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.Name != "Eve One" || user.Email != "eve@example.com" {
		t.Errorf("user = %+v, expected updated name and email", user)
	}

	if _, err := svc.UpdateProfile(f.e1.ID, &UpdateProfileRequest{Email: f.coach.Email}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("UpdateProfile() taken email error = %v, expected ErrEmailTaken", err)
	}
	if _, err := svc.UpdateProfile(9999, &UpdateProfileRequest{Name: "x"}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdateProfile() unknown user error = %v, expected ErrUserNotFound", err)
	}
}
