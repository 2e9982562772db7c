package services

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/example/licenseportal/internal/metrics"
	"github.com/example/licenseportal/internal/models"
	"github.com/example/licenseportal/internal/utils"
)

const invalidCredentials = "invalid email or password"

// SessionService issues session tokens and resolves them back to accounts.
type SessionService struct {
	db        *gorm.DB
	hasher    PasswordHasher
	signer    TokenSigner
	log       zerolog.Logger
	dummyHash string
}

// NewSessionService constructs a SessionService.
func NewSessionService(db *gorm.DB, hasher PasswordHasher, signer TokenSigner, log zerolog.Logger) (*SessionService, error) {
	// Compared against when the email is unknown so both failure paths cost
	// one hash comparison.
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &SessionService{
		db:        db,
		hasher:    hasher,
		signer:    signer,
		log:       log.With().Str("component", "sessions").Logger(),
		dummyHash: dummy,
	}, nil
}

// LoginInput is the login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserSummary is the public projection of a User.
type UserSummary struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       string    `json:"role"`
	CustomerID uuid.UUID `json:"customer_id"`
}

// LoginResult carries the issued token and the user it was issued for.
type LoginResult struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// Login checks credentials, then account state, and issues a token.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	result, err := s.login(ctx, in)
	metrics.Logins.WithLabelValues(metrics.Result(err)).Inc()
	return result, err
}

func (s *SessionService) login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = utils.NormalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, NewError(KindValidation, "invalid email or password format")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.hasher.Compare(s.dummyHash, in.Password)
			return nil, NewError(KindUnauthorized, invalidCredentials)
		}
		s.log.Error().Err(err).Str("email", in.Email).Msg("login lookup failed")
		return nil, Internal("login failed", err)
	}

	if !s.hasher.Compare(user.PasswordHash, in.Password) {
		return nil, NewError(KindUnauthorized, invalidCredentials)
	}
	if !user.IsVerified {
		return nil, NewError(KindForbidden, "please verify your email first")
	}
	if !user.IsActive {
		return nil, NewError(KindForbidden, "account is deactivated")
	}

	token, err := s.signer.Sign(utils.SessionClaims{
		UserID:     user.ID,
		Role:       user.Role,
		Email:      user.Email,
		CustomerID: user.CustomerID,
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("token signing failed")
		return nil, Internal("login failed", err)
	}

	return &LoginResult{Token: token, User: summarize(&user)}, nil
}

// Authenticate resolves a bearer token to an active account.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		s.log.Debug().Err(err).Msg("token rejected")
		return nil, NewError(KindUnauthorized, "invalid token")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError(KindUnauthorized, "user not found")
		}
		s.log.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("identity lookup failed")
		return nil, Internal("authentication failed", err)
	}

	if !user.IsActive {
		return nil, NewError(KindUnauthorized, "user is inactive")
	}

	return &Identity{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		CustomerID: user.CustomerID,
	}, nil
}

// Authorize fails with KindForbidden when roles is non-empty and does not
// contain the identity's role.
func Authorize(identity *Identity, roles []string) error {
	if len(roles) == 0 || slices.Contains(roles, identity.Role) {
		return nil
	}
	return NewError(KindForbidden, "insufficient permissions")
}

// CurrentUser returns the public projection of the user with id.
func (s *SessionService) CurrentUser(ctx context.Context, id uuid.UUID) (*UserSummary, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError(KindNotFound, "user not found")
		}
		s.log.Error().Err(err).Str("user_id", id.String()).Msg("profile lookup failed")
		return nil, Internal("failed to load user", err)
	}
	summary := summarize(&user)
	return &summary, nil
}

func summarize(u *models.User) UserSummary {
	return UserSummary{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		CustomerID: u.CustomerID,
	}
}
