package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/licenseportal/internal/models"
	"github.com/example/licenseportal/internal/testutil"
	"github.com/example/licenseportal/internal/utils"
)

type recordingAdmin struct {
	mu      sync.Mutex
	batches []LicenseBatchNotification
}

func (a *recordingAdmin) NotifyLicensesIssued(_ context.Context, batch LicenseBatchNotification) error {
	a.mu.Lock()
	a.batches = append(a.batches, batch)
	a.mu.Unlock()
	return nil
}

func newLicenseFixture(t *testing.T, admin AdminNotifier) (*gorm.DB, *LicenseService) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewLicenseService(db, admin, 50, zerolog.Nop())
	svc.now = newClock().Now
	return db, svc
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) models.Customer {
	t.Helper()
	customer := models.Customer{
		Email:            email,
		FirstName:        "Grace",
		LastName:         "Hopper",
		CustomerType:     models.CustomerCompany,
		RegistrationDate: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

func intPtr(v int) *int { return &v }

func TestExpirationYears(t *testing.T) {
	assert.Equal(t, 1, ExpirationYears(models.LicenseYearly, nil))
	assert.Equal(t, 2, ExpirationYears(models.LicenseYearly, intPtr(2)))
	assert.Equal(t, 3, ExpirationYears(models.LicenseThreeYrs, intPtr(7)))
	assert.Equal(t, 100, ExpirationYears(models.LicenseFloating, nil))
	assert.Equal(t, 1, ExpirationYears("trial", intPtr(5)))
}

func TestCreateLicense_IssuesOneRowPerSeat(t *testing.T) {
	db, svc := newLicenseFixture(t, nil)
	customer := seedCustomer(t, db, "grace@navy.test")

	licenses, err := svc.CreateLicense(context.Background(), CreateLicenseInput{
		CustomerID:  customer.ID.String(),
		LicenseType: models.LicenseThreeYrs,
		SeatCount:   3,
	})
	require.NoError(t, err)
	require.Len(t, licenses, 3)

	issue := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	hashes := map[string]struct{}{}
	for i, lic := range licenses {
		assert.Equal(t, i+1, lic.SeatNumber)
		assert.Equal(t, customer.ID, lic.CustomerID)
		assert.True(t, lic.IsFree)
		assert.Equal(t, models.LicenseThreeYrs, lic.LicenseType)
		assert.True(t, issue.Equal(lic.IssueDate))
		assert.True(t, issue.AddDate(3, 0, 0).Equal(lic.ExpirationDate))
		assert.True(t, strings.HasPrefix(lic.LicenseHash, "LIC-"))
		assert.Equal(t, fmt.Sprintf("user_%d", i+1), lic.Username)
		assert.True(t, strings.HasPrefix(lic.PCUUID, "pc_"))
		hashes[lic.LicenseHash] = struct{}{}
	}
	assert.Len(t, hashes, 3, "license hashes must be unique")

	var stored int64
	require.NoError(t, db.Model(&models.License{}).Where("customer_id = ?", customer.ID).Count(&stored).Error)
	assert.EqualValues(t, 3, stored)
}

func TestCreateLicense_ExpirationByType(t *testing.T) {
	db, svc := newLicenseFixture(t, nil)
	customer := seedCustomer(t, db, "grace@navy.test")
	issue := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		typ      string
		duration *int
		years    int
	}{
		{"yearly default", models.LicenseYearly, nil, 1},
		{"yearly with duration", models.LicenseYearly, intPtr(2), 2},
		{"floating", models.LicenseFloating, nil, 100},
		{"unknown type", "evaluation", nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			licenses, err := svc.CreateLicense(context.Background(), CreateLicenseInput{
				CustomerID:    customer.ID.String(),
				LicenseType:   tt.typ,
				SeatCount:     1,
				DurationYears: tt.duration,
				Username:      "alice",
				PCUUID:        "pc-01",
			})
			require.NoError(t, err)
			require.Len(t, licenses, 1)
			assert.True(t, issue.AddDate(tt.years, 0, 0).Equal(licenses[0].ExpirationDate))
			assert.Equal(t, "alice", licenses[0].Username)
			assert.Equal(t, "pc-01", licenses[0].PCUUID)
		})
	}
}

func TestCreateLicense_RejectsBadInput(t *testing.T) {
	db, svc := newLicenseFixture(t, nil)
	customer := seedCustomer(t, db, "grace@navy.test")
	ctx := context.Background()

	for _, seats := range []int{0, -2, 51} {
		_, err := svc.CreateLicense(ctx, CreateLicenseInput{
			CustomerID:  customer.ID.String(),
			LicenseType: models.LicenseYearly,
			SeatCount:   seats,
		})
		requireKind(t, err, KindValidation)
	}

	_, err := svc.CreateLicense(ctx, CreateLicenseInput{CustomerID: "not-a-uuid", LicenseType: models.LicenseYearly, SeatCount: 1})
	requireKind(t, err, KindValidation)

	_, err = svc.CreateLicense(ctx, CreateLicenseInput{CustomerID: customer.ID.String(), SeatCount: 1})
	requireKind(t, err, KindValidation)

	_, err = svc.CreateLicense(ctx, CreateLicenseInput{CustomerID: uuid.NewString(), LicenseType: models.LicenseYearly, SeatCount: 2})
	requireKind(t, err, KindNotFound)

	var count int64
	require.NoError(t, db.Model(&models.License{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateLicense_NotifiesAdmin(t *testing.T) {
	admin := &recordingAdmin{}
	db, svc := newLicenseFixture(t, admin)
	customer := seedCustomer(t, db, "grace@navy.test")

	_, err := svc.CreateLicense(context.Background(), CreateLicenseInput{
		CustomerID:  customer.ID.String(),
		LicenseType: models.LicenseFloating,
		SeatCount:   4,
	})
	require.NoError(t, err)

	svc.Wait()

	admin.mu.Lock()
	defer admin.mu.Unlock()
	require.Len(t, admin.batches, 1)
	assert.Equal(t, "Grace Hopper", admin.batches[0].CustomerName)
	assert.Equal(t, 4, admin.batches[0].SeatCount)
	assert.Equal(t, models.LicenseFloating, admin.batches[0].LicenseType)
}

func TestCreateLicense_FailedSeatRollsBackBatch(t *testing.T) {
	db, svc := newLicenseFixture(t, nil)
	customer := seedCustomer(t, db, "grace@navy.test")

	require.NoError(t, db.Exec(`CREATE TRIGGER reject_third_seat BEFORE INSERT ON licenses
		WHEN NEW.seat_number = 3
		BEGIN SELECT RAISE(ABORT, 'seat 3 rejected'); END`).Error)

	_, err := svc.CreateLicense(context.Background(), CreateLicenseInput{
		CustomerID:  customer.ID.String(),
		LicenseType: models.LicenseYearly,
		SeatCount:   5,
	})
	requireKind(t, err, KindInternal)

	var count int64
	require.NoError(t, db.Model(&models.License{}).Count(&count).Error)
	assert.Zero(t, count, "no seat of a failed batch may be stored")
}

func TestListLicensesAndStats(t *testing.T) {
	db, svc := newLicenseFixture(t, nil)
	ctx := context.Background()
	grace := seedCustomer(t, db, "grace@navy.test")
	alan := seedCustomer(t, db, "alan@bletchley.test")

	_, err := svc.CreateLicense(ctx, CreateLicenseInput{CustomerID: grace.ID.String(), LicenseType: models.LicenseYearly, SeatCount: 2})
	require.NoError(t, err)
	_, err = svc.CreateLicense(ctx, CreateLicenseInput{CustomerID: alan.ID.String(), LicenseType: models.LicenseThreeYrs, SeatCount: 3})
	require.NoError(t, err)

	views, total, err := svc.ListLicenses(ctx, utils.Pagination{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, views, 5)
	for _, v := range views {
		switch v.CustomerID {
		case grace.ID:
			assert.Equal(t, "grace@navy.test", v.CustomerEmail)
		case alan.ID:
			assert.Equal(t, "alan@bletchley.test", v.CustomerEmail)
		default:
			t.Fatalf("unexpected customer %s", v.CustomerID)
		}
		assert.Equal(t, "Grace", v.CustomerFirstName)
		assert.Equal(t, models.CustomerCompany, v.CustomerType)
		assert.NotEmpty(t, v.LicenseHash)
	}

	page, total, err := svc.ListLicenses(ctx, utils.Pagination{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 2)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.TotalLicenses)
	assert.EqualValues(t, 5, stats.ActiveLicenses)
	assert.EqualValues(t, 2, stats.TotalCustomers)
	assert.EqualValues(t, 5, stats.FreeSeats)
}
