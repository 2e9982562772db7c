package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/example/licenseportal/internal/metrics"
	"github.com/example/licenseportal/internal/models"
	"github.com/example/licenseportal/internal/utils"
)

const floatingLicenseYears = 100

// LicenseService issues license seat batches and reports on them.
type LicenseService struct {
	db       *gorm.DB
	admin    AdminNotifier
	maxSeats int
	log      zerolog.Logger
	now      func() time.Time

	notifications sync.WaitGroup
}

// NewLicenseService constructs a LicenseService. admin may be nil.
func NewLicenseService(db *gorm.DB, admin AdminNotifier, maxSeats int, log zerolog.Logger) *LicenseService {
	return &LicenseService{
		db:       db,
		admin:    admin,
		maxSeats: maxSeats,
		log:      log.With().Str("component", "licenses").Logger(),
		now:      time.Now,
	}
}

// CreateLicenseInput describes one batch of seats for a customer.
type CreateLicenseInput struct {
	CustomerID    string `json:"customer_id" validate:"required,uuid"`
	LicenseType   string `json:"license_type" validate:"required,max=32"`
	SeatCount     int    `json:"seat_count" validate:"required,min=1"`
	DurationYears *int   `json:"duration_years" validate:"omitempty,min=1,max=100"`
	Username      string `json:"username" validate:"omitempty,max=255"`
	PCUUID        string `json:"pc_uuid" validate:"omitempty,max=255"`
}

// ExpirationYears resolves how many years a license of licenseType lasts.
func ExpirationYears(licenseType string, durationYears *int) int {
	switch licenseType {
	case models.LicenseYearly:
		if durationYears != nil && *durationYears > 0 {
			return *durationYears
		}
		return 1
	case models.LicenseThreeYrs:
		return 3
	case models.LicenseFloating:
		return floatingLicenseYears
	default:
		return 1
	}
}

// CreateLicense inserts SeatCount licenses for the customer in a single
// transaction and returns them.
func (s *LicenseService) CreateLicense(ctx context.Context, in CreateLicenseInput) ([]models.License, error) {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.LicenseType = strings.TrimSpace(in.LicenseType)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.SeatCount > s.maxSeats {
		return nil, NewError(KindValidation, fmt.Sprintf("invalid input: seat_count: must be at most %d", s.maxSeats))
	}
	customerID := uuid.MustParse(in.CustomerID)

	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, "id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError(KindNotFound, fmt.Sprintf("customer with id %s not found", in.CustomerID))
		}
		s.log.Error().Err(err).Str("customer_id", in.CustomerID).Msg("customer lookup failed")
		return nil, Internal("failed to create licenses", err)
	}

	now := s.now().UTC()
	issueDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	expirationDate := issueDate.AddDate(ExpirationYears(in.LicenseType, in.DurationYears), 0, 0)
	stamp := now.UnixMilli()

	licenses := make([]models.License, 0, in.SeatCount)
	for seat := 1; seat <= in.SeatCount; seat++ {
		username := in.Username
		if username == "" {
			username = fmt.Sprintf("user_%d", seat)
		}
		pcUUID := in.PCUUID
		if pcUUID == "" {
			pcUUID = fmt.Sprintf("pc_%d_%d", stamp, seat)
		}

		licenses = append(licenses, models.License{
			CustomerID:     customer.ID,
			LicenseHash:    newLicenseHash(),
			SeatNumber:     seat,
			IssueDate:      issueDate,
			ExpirationDate: expirationDate,
			LicenseType:    in.LicenseType,
			Username:       username,
			PCUUID:         pcUUID,
			IsFree:         true,
			LastActivity:   now,
		})
	}

	err := s.db.WithContext(context.WithoutCancel(ctx)).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&licenses, 100).Error
	})
	if err != nil {
		s.log.Error().Err(err).Str("customer_id", in.CustomerID).Int("seat_count", in.SeatCount).Msg("license batch insert failed")
		return nil, Internal("failed to create licenses", err)
	}

	metrics.LicensesIssued.WithLabelValues(in.LicenseType).Add(float64(len(licenses)))
	s.log.Info().
		Str("customer_id", in.CustomerID).
		Str("license_type", in.LicenseType).
		Int("seat_count", len(licenses)).
		Msg("license batch issued")

	if s.admin != nil {
		s.notifications.Add(1)
		go func() {
			defer s.notifications.Done()
			s.notifyAdmin(context.WithoutCancel(ctx), &customer, licenses)
		}()
	}

	return licenses, nil
}

// Wait blocks until admin notifications already started have finished.
func (s *LicenseService) Wait() {
	s.notifications.Wait()
}

// LicenseView is a license joined with its owning customer's display fields.
type LicenseView struct {
	models.License
	CustomerFirstName string `json:"customer_first_name"`
	CustomerLastName  string `json:"customer_last_name"`
	CustomerEmail     string `json:"customer_email"`
	CustomerType      string `json:"customer_type"`
}

// ListLicenses returns licenses newest first with customer details, and the total count.
func (s *LicenseService) ListLicenses(ctx context.Context, pg utils.Pagination) ([]LicenseView, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.License{}).Count(&total).Error; err != nil {
		s.log.Error().Err(err).Msg("license count failed")
		return nil, 0, Internal("failed to fetch licenses", err)
	}

	query := s.db.WithContext(ctx).Model(&models.License{}).
		Select(`licenses.*,
			COALESCE(customers.first_name, '') AS customer_first_name,
			COALESCE(customers.last_name, '') AS customer_last_name,
			COALESCE(customers.email, '') AS customer_email,
			COALESCE(customers.customer_type, '') AS customer_type`).
		Joins("LEFT JOIN customers ON customers.id = licenses.customer_id").
		Order("licenses.created_at desc, licenses.seat_number asc")
	if pg.Paged() {
		query = query.Limit(pg.Limit).Offset(pg.Offset)
	}

	views := []LicenseView{}
	if err := query.Scan(&views).Error; err != nil {
		s.log.Error().Err(err).Msg("license listing failed")
		return nil, 0, Internal("failed to fetch licenses", err)
	}
	return views, total, nil
}

// LicenseStats summarizes issued licenses for the admin dashboard.
type LicenseStats struct {
	TotalLicenses  int64 `json:"total_licenses"`
	ActiveLicenses int64 `json:"active_licenses"`
	TotalCustomers int64 `json:"total_customers"`
	IssuedLastWeek int64 `json:"issued_last_week"`
	FreeSeats      int64 `json:"free_seats"`
}

// Stats counts licenses. Active means expiring after today; the weekly count
// covers issue dates within the last seven days.
func (s *LicenseService) Stats(ctx context.Context) (*LicenseStats, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	db := s.db.WithContext(ctx)

	var stats LicenseStats
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.TotalLicenses, db.Model(&models.License{})},
		{&stats.ActiveLicenses, db.Model(&models.License{}).Where("expiration_date > ?", today)},
		{&stats.TotalCustomers, db.Model(&models.License{}).Distinct("customer_id")},
		{&stats.IssuedLastWeek, db.Model(&models.License{}).Where("issue_date > ?", today.AddDate(0, 0, -7))},
		{&stats.FreeSeats, db.Model(&models.License{}).Where("is_free = ?", true)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			s.log.Error().Err(err).Msg("license stats failed")
			return nil, Internal("failed to compute license stats", err)
		}
	}
	return &stats, nil
}

func (s *LicenseService) notifyAdmin(ctx context.Context, customer *models.Customer, licenses []models.License) {
	first := licenses[0]
	batch := LicenseBatchNotification{
		CustomerName:   strings.TrimSpace(customer.FirstName + " " + customer.LastName),
		CustomerEmail:  customer.Email,
		LicenseType:    first.LicenseType,
		SeatCount:      len(licenses),
		ExpirationDate: first.ExpirationDate,
	}
	if err := s.admin.NotifyLicensesIssued(ctx, batch); err != nil {
		s.log.Warn().Err(err).Str("customer_id", customer.ID.String()).Msg("admin notification failed")
	}
}

// newLicenseHash returns an opaque seat identifier backed by a random UUID.
func newLicenseHash() string {
	id := uuid.New()
	return "LIC-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
}
