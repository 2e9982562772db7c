package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/example/licenseportal/internal/metrics"
	"github.com/example/licenseportal/internal/models"
	"github.com/example/licenseportal/internal/utils"
)

// NextStepVerification tells clients to continue with email verification.
const NextStepVerification = "verification"

// AccountConfig tunes verification code issuance.
type AccountConfig struct {
	CodeTTL        time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
}

// AccountService owns customer/user registration and email verification.
type AccountService struct {
	db       *gorm.DB
	hasher   PasswordHasher
	notifier Notifier
	cfg      AccountConfig
	log      zerolog.Logger
	now      func() time.Time
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *gorm.DB, hasher PasswordHasher, notifier Notifier, cfg AccountConfig, log zerolog.Logger) *AccountService {
	return &AccountService{
		db:       db,
		hasher:   hasher,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With().Str("component", "accounts").Logger(),
		now:      time.Now,
	}
}

// RegisterInput is the registration request.
type RegisterInput struct {
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	CustomerType string `json:"customer_type" validate:"required,oneof=individual company"`
	Role         string `json:"role" validate:"oneof=admin user owner"`
	CompanyName  string `json:"company_name" validate:"omitempty,max=255"`
}

// RegisterResult reports the created account. CodeSent is false when the
// account was committed but the verification email could not be delivered.
type RegisterResult struct {
	Email    string `json:"email"`
	NextStep string `json:"next_step"`
	CodeSent bool   `json:"code_sent"`
}

// Register creates a Customer and its first User in one transaction, then
// sends the verification code.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.Email = utils.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if err := validateInput(in); err != nil {
		metrics.Registrations.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, err
	}

	var code string
	// The transaction is detached from request cancellation: it commits or
	// rolls back as a whole.
	err := s.db.WithContext(context.WithoutCancel(ctx)).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return NewError(KindConflict, "user already exists")
		}

		now := s.now()
		customer := models.Customer{
			Email:            in.Email,
			FirstName:        in.FirstName,
			LastName:         in.LastName,
			CustomerType:     in.CustomerType,
			RegistrationDate: now,
		}
		if in.Phone != "" {
			customer.Phone = &in.Phone
		}
		if in.CustomerType == models.CustomerCompany && in.CompanyName != "" {
			customer.CompanyName = &in.CompanyName
		}
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}

		passwordHash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return Internal("registration failed", err)
		}

		code, err = GenerateCode()
		if err != nil {
			return Internal("registration failed", err)
		}
		expires := now.Add(s.cfg.CodeTTL)

		user := models.User{
			CustomerID:              customer.ID,
			Email:                   in.Email,
			PasswordHash:            passwordHash,
			FirstName:               in.FirstName,
			LastName:                in.LastName,
			Role:                    in.Role,
			IsVerified:              false,
			IsActive:                true,
			VerificationCode:        &code,
			VerificationCodeExpires: &expires,
		}
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return NewError(KindConflict, "user already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		metrics.Registrations.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, s.surface(err, "registration failed", in.Email)
	}
	metrics.Registrations.WithLabelValues(metrics.ResultSuccess).Inc()

	result := &RegisterResult{Email: in.Email, NextStep: NextStepVerification, CodeSent: true}
	if err := s.send(ctx, in.Email, code); err != nil {
		s.log.Error().Err(err).Str("email", in.Email).Msg("verification code not delivered after registration")
		result.CodeSent = false
	}

	return result, nil
}

// VerifyInput is the email verification request.
type VerifyInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=4,numeric"`
}

// VerifyCode marks the account verified when code matches the stored,
// unexpired code.
func (s *AccountService) VerifyCode(ctx context.Context, in VerifyInput) error {
	in.Email = utils.NormalizeEmail(in.Email)
	in.Code = strings.TrimSpace(in.Code)
	if err := validateInput(in); err != nil {
		return err
	}

	user, err := s.findUser(ctx, in.Email)
	if err != nil {
		return err
	}

	if user.IsVerified {
		return NewError(KindConflict, "account is already verified")
	}
	if user.VerificationCode == nil || user.VerificationCodeExpires == nil {
		return NewError(KindValidation, "no verification code found, please request a new one")
	}
	if user.VerificationAttempts >= s.cfg.MaxAttempts {
		return NewError(KindRateLimited, "too many failed attempts, please request a new code")
	}

	if !ValidateCode(in.Code, *user.VerificationCode, *user.VerificationCodeExpires, s.now()) {
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).
			UpdateColumn("verification_attempts", gorm.Expr("verification_attempts + ?", 1)).Error
		if err != nil {
			return s.surface(err, "verification failed", in.Email)
		}
		return NewError(KindValidation, "invalid or expired verification code")
	}

	res := s.db.WithContext(context.WithoutCancel(ctx)).Model(&models.User{}).
		Where("id = ? AND is_verified = ?", user.ID, false).
		Updates(map[string]interface{}{
			"is_verified":               true,
			"verification_code":         nil,
			"verification_code_expires": nil,
			"verification_attempts":     0,
		})
	if res.Error != nil {
		return s.surface(res.Error, "verification failed", in.Email)
	}
	if res.RowsAffected == 0 {
		return NewError(KindConflict, "account is already verified")
	}

	s.log.Info().Str("email", in.Email).Msg("account verified")
	return nil
}

// ResendInput is the resend-code request.
type ResendInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResendVerificationCode rotates the verification code and sends it again,
// at most once per cooldown window.
func (s *AccountService) ResendVerificationCode(ctx context.Context, in ResendInput) error {
	in.Email = utils.NormalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return err
	}

	user, err := s.findUser(ctx, in.Email)
	if err != nil {
		return err
	}

	if user.IsVerified {
		return NewError(KindConflict, "account is already verified")
	}

	now := s.now()
	if user.LastVerificationSent != nil && now.Sub(*user.LastVerificationSent) < s.cfg.ResendCooldown {
		return NewError(KindRateLimited, "please wait before requesting a new code")
	}

	code, err := GenerateCode()
	if err != nil {
		return Internal("failed to resend verification code", err)
	}
	expires := now.Add(s.cfg.CodeTTL)

	err = s.db.WithContext(context.WithoutCancel(ctx)).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"verification_code":         code,
			"verification_code_expires": expires,
			"last_verification_sent":    now,
			"verification_attempts":     0,
		}).Error
	if err != nil {
		return s.surface(err, "failed to resend verification code", in.Email)
	}

	if err := s.send(ctx, in.Email, code); err != nil {
		return s.surface(err, "failed to send verification code", in.Email)
	}
	return nil
}

// ListCustomers returns customers newest first, with the total count.
func (s *AccountService) ListCustomers(ctx context.Context, pg utils.Pagination) ([]models.Customer, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Customer{}).Count(&total).Error; err != nil {
		return nil, 0, s.surface(err, "failed to fetch customers", "")
	}

	query := s.db.WithContext(ctx).Order("created_at desc")
	if pg.Paged() {
		query = query.Limit(pg.Limit).Offset(pg.Offset)
	}

	var customers []models.Customer
	if err := query.Find(&customers).Error; err != nil {
		return nil, 0, s.surface(err, "failed to fetch customers", "")
	}
	return customers, total, nil
}

func (s *AccountService) findUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError(KindNotFound, "user not found")
		}
		return nil, s.surface(err, "failed to load user", email)
	}
	return &user, nil
}

func (s *AccountService) send(ctx context.Context, email, code string) error {
	err := s.notifier.SendVerificationCode(ctx, email, code)
	metrics.VerificationCodesSent.WithLabelValues(metrics.Result(err)).Inc()
	return err
}

// surface passes service errors through and hides everything else behind
// an internal error, logging the cause.
func (s *AccountService) surface(err error, message, email string) error {
	var svcErr *Error
	if errors.As(err, &svcErr) && svcErr.Kind != KindInternal {
		return svcErr
	}
	s.log.Error().Err(err).Str("email", email).Msg(message)
	if svcErr != nil {
		return svcErr
	}
	return Internal(message, err)
}
