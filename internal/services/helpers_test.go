package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/example/licenseportal/internal/testutil"
	"github.com/example/licenseportal/internal/utils"
)

type sentCode struct {
	email string
	code  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (n *fakeNotifier) SendVerificationCode(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentCode{email: email, code: code})
	return nil
}

func (n *fakeNotifier) last(t *testing.T) sentCode {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent, "no code was sent")
	return n.sent[len(n.sent)-1]
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("hasher unavailable") }

func (failingHasher) Compare(string, string) bool { return false }

type clock struct {
	t time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testHasher() *utils.BcryptHasher {
	return utils.NewBcryptHasher(bcrypt.MinCost)
}

func testAccountConfig() AccountConfig {
	return AccountConfig{CodeTTL: 15 * time.Minute, ResendCooldown: 60 * time.Second, MaxAttempts: 5}
}

type accountFixture struct {
	db       *gorm.DB
	notifier *fakeNotifier
	clock    *clock
	svc      *AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	db := testutil.NewDB(t)
	notifier := &fakeNotifier{}
	clk := newClock()
	svc := NewAccountService(db, testHasher(), notifier, testAccountConfig(), zerolog.Nop())
	svc.now = clk.Now
	return &accountFixture{db: db, notifier: notifier, clock: clk, svc: svc}
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		Email:        email,
		Password:     "s3cret-pass",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		CustomerType: "individual",
	}
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}
