package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/curbshare/curbshare/internal/models"
	"github.com/curbshare/curbshare/internal/oidc"
	"github.com/curbshare/curbshare/internal/passwords"
	"github.com/curbshare/curbshare/internal/tokens"
)

// Validation failures callers are expected to branch on. Anything else coming
// out of the service is an infrastructure error and maps to a generic 500.
var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrNoPasswordSet      = errors.New("no password set for this account")
	ErrNotFound           = errors.New("user not found")
)

// Service owns registration, login, Google sign-in and profile updates.
// It enforces the one-account-per-identity invariant: local accounts are keyed
// by email, Google accounts by the token's subject id, and the login method
// never changes after creation.
type Service struct {
	repo   Repository
	issuer *tokens.Issuer
}

func NewService(repo Repository, issuer *tokens.Issuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// RegisterInput carries the fields of a local account registration.
// ProfileImage is the only optional field.
type RegisterInput struct {
	Email        string
	Password     string
	Username     string
	Firstname    string
	Lastname     string
	ProfileImage string
}

// Register creates a local (password) account and returns it with a fresh
// access token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" || strings.TrimSpace(in.Username) == "" ||
		strings.TrimSpace(in.Firstname) == "" || strings.TrimSpace(in.Lastname) == "" {
		return nil, "", ErrMissingFields
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup user by email: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := passwords.Hash(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Email:        email,
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hash,
		LoginMethod:  models.LoginMethodLocal,
		Firstname:    strings.TrimSpace(in.Firstname),
		Lastname:     strings.TrimSpace(in.Lastname),
		ProfileImage: in.ProfileImage,
	}
	created, err := s.repo.Create(ctx, u)
	if err != nil {
		// the existence check above races with concurrent registrations;
		// the unique index has the final word
		if errors.Is(err, ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issuer.Generate(created.ID.Hex())
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return created, token, nil
}

// Login authenticates a local account by email and password and returns an
// access token. Unknown email and wrong password are indistinguishable to the
// caller; a Google account is reported separately since telling the user to
// use Google sign-in is self-help, not an oracle.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", ErrMissingFields
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("lookup user by email: %w", err)
	}
	if u == nil {
		return "", ErrInvalidCredentials
	}
	if u.LoginMethod == models.LoginMethodGoogle {
		return "", ErrNoPasswordSet
	}
	if !passwords.Verify(password, u.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.issuer.Generate(u.ID.Hex())
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// GoogleSignIn resolves verified Google claims to an account, auto-registering
// on first sight, and returns an access token. Resolution is by subject id
// only — matching by email would let whoever controls an email address (but
// not the Google account) take over an existing user.
func (s *Service) GoogleSignIn(ctx context.Context, claims *oidc.Claims) (string, error) {
	if claims == nil || claims.Subject == "" {
		return "", errors.New("claims missing subject")
	}

	u, err := s.repo.GetByGoogleID(ctx, claims.Subject)
	if err != nil {
		return "", fmt.Errorf("lookup user by google id: %w", err)
	}
	if u == nil {
		u, err = s.repo.Create(ctx, &models.User{
			Email:       normalizeEmail(claims.Email),
			Username:    claims.Name,
			GoogleID:    claims.Subject,
			LoginMethod: models.LoginMethodGoogle,
		})
		if err != nil {
			// never issue a token for a user that was not persisted
			return "", fmt.Errorf("register federated user: %w", err)
		}
	}

	token, err := s.issuer.Generate(u.ID.Hex())
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// UpdateProfile merges the patch into the user's profile. Email, login method
// and credentials are not reachable through this operation.
func (s *Service) UpdateProfile(ctx context.Context, id string, p ProfilePatch) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return ErrNotFound
	}
	if err := s.repo.UpdateProfile(ctx, id, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// GetByID returns the user for the verified id, or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
