package users

import (
	"context"
	"testing"
	"time"

	"github.com/curbshare/curbshare/internal/models"
	"github.com/curbshare/curbshare/internal/oidc"
	"github.com/curbshare/curbshare/internal/tokens"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fake repo backed by a slice, enforcing the same uniqueness rules as the
// Mongo indexes
type fakeRepo struct {
	users []*models.User
}

func (f *fakeRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	for _, e := range f.users {
		if e.Email == u.Email {
			return nil, ErrDuplicate
		}
		if u.GoogleID != "" && e.GoogleID == u.GoogleID {
			return nil, ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, e := range f.users {
		if e.ID.Hex() == id {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, e := range f.users {
		if e.Email == email {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, e := range f.users {
		if e.Username == username {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	for _, e := range f.users {
		if e.GoogleID != "" && e.GoogleID == googleID {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) UpdateProfile(ctx context.Context, id string, p ProfilePatch) error {
	for _, e := range f.users {
		if e.ID.Hex() == id {
			if p.Username != nil {
				e.Username = *p.Username
			}
			if p.Firstname != nil {
				e.Firstname = *p.Firstname
			}
			if p.Lastname != nil {
				e.Lastname = *p.Lastname
			}
			if p.ProfileImage != nil {
				e.ProfileImage = *p.ProfileImage
			}
			e.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

func newTestService() (*Service, *fakeRepo) {
	repo := &fakeRepo{}
	issuer := tokens.NewIssuer("service-test-secret-32-bytes-xxx", time.Hour)
	return NewService(repo, issuer), repo
}

func validInput() RegisterInput {
	return RegisterInput{
		Email:     "a@x.com",
		Password:  "pw1",
		Username:  "u1",
		Firstname: "A",
		Lastname:  "B",
	}
}

func TestRegister_SucceedsOncePerEmail(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	u, token, err := svc.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected access token")
	}
	if u.LoginMethod != models.LoginMethodLocal {
		t.Fatalf("unexpected login method: %s", u.LoginMethod)
	}
	if u.PasswordHash == "" || u.PasswordHash == "pw1" {
		t.Fatalf("password must be stored hashed")
	}

	// second registration with the same email must conflict
	in := validInput()
	in.Username = "someone-else"
	if _, _, err := svc.Register(ctx, in); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(repo.users))
	}
}

func TestRegister_MissingFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, mutate := range []func(*RegisterInput){
		func(in *RegisterInput) { in.Email = "" },
		func(in *RegisterInput) { in.Password = "" },
		func(in *RegisterInput) { in.Username = " " },
		func(in *RegisterInput) { in.Firstname = "" },
		func(in *RegisterInput) { in.Lastname = "" },
	} {
		in := validInput()
		mutate(&in)
		if _, _, err := svc.Register(ctx, in); err != ErrMissingFields {
			t.Fatalf("expected ErrMissingFields for %+v, got %v", in, err)
		}
	}
}

func TestRegister_EmailNormalized(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := validInput()
	in.Email = "  A@X.com "
	u, _, err := svc.Register(ctx, in)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if u.Email != "a@x.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
}

func TestLogin_AfterRegister(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, validInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := svc.Login(ctx, "a@x.com", "pw1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected access token")
	}

	if _, err := svc.Login(ctx, "a@x.com", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@x.com", "pw1"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, err := svc.Login(ctx, "", "pw1"); err != ErrMissingFields {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestGoogleSignIn_AutoRegistersOnce(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	issuer := tokens.NewIssuer("service-test-secret-32-bytes-xxx", time.Hour)

	claims := &oidc.Claims{Subject: "g1", Email: "b@x.com", Name: "B"}

	tok1, err := svc.GoogleSignIn(ctx, claims)
	if err != nil {
		t.Fatalf("first google sign-in failed: %v", err)
	}
	tok2, err := svc.GoogleSignIn(ctx, claims)
	if err != nil {
		t.Fatalf("second google sign-in failed: %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected a single user, got %d", len(repo.users))
	}
	u := repo.users[0]
	if u.LoginMethod != models.LoginMethodGoogle || u.GoogleID != "g1" {
		t.Fatalf("unexpected user record: %+v", u)
	}
	if u.PasswordHash != "" {
		t.Fatalf("federated user must not have a password hash")
	}

	// both tokens must resolve to the same user id
	sub1, err := issuer.Verify(tok1)
	if err != nil {
		t.Fatalf("verify token 1: %v", err)
	}
	sub2, err := issuer.Verify(tok2)
	if err != nil {
		t.Fatalf("verify token 2: %v", err)
	}
	if sub1 != sub2 || sub1 != u.ID.Hex() {
		t.Fatalf("token subjects differ: %q vs %q (want %q)", sub1, sub2, u.ID.Hex())
	}
}

func TestGoogleUser_CanNeverLoginWithPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.GoogleSignIn(ctx, &oidc.Claims{Subject: "g2", Email: "g@x.com", Name: "G"}); err != nil {
		t.Fatalf("google sign-in failed: %v", err)
	}

	for _, pw := range []string{"", "anything", "g2"} {
		_, err := svc.Login(ctx, "g@x.com", pw)
		if pw == "" {
			if err != ErrMissingFields {
				t.Fatalf("expected ErrMissingFields for empty password, got %v", err)
			}
			continue
		}
		if err != ErrNoPasswordSet {
			t.Fatalf("expected ErrNoPasswordSet for password %q, got %v", pw, err)
		}
	}
}

func TestUpdateProfile_PartialMerge(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	u, _, err := svc.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	first := "X"
	if err := svc.UpdateProfile(ctx, u.ID.Hex(), ProfilePatch{Firstname: &first}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got := repo.users[0]
	if got.Firstname != "X" {
		t.Fatalf("firstname not updated: %q", got.Firstname)
	}
	if got.Username != "u1" || got.Lastname != "B" || got.ProfileImage != "" {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if got.Email != "a@x.com" || got.LoginMethod != models.LoginMethodLocal {
		t.Fatalf("immutable fields changed: %+v", got)
	}
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	svc, _ := newTestService()
	name := "nobody"
	err := svc.UpdateProfile(context.Background(), primitive.NewObjectID().Hex(), ProfilePatch{Username: &name})
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
