package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ledgerly/internal/billing/domain"
	"github.com/smallbiznis/ledgerly/internal/clock"
	orgdomain "github.com/smallbiznis/ledgerly/internal/organization/domain"
	"github.com/smallbiznis/ledgerly/internal/providers/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubPayment struct {
	link  string
	err   error
	calls int
}

func (s *stubPayment) CreatePaymentLink(ctx context.Context, req payment.LinkRequest) (string, error) {
	s.calls++
	return s.link, s.err
}

type sentEmail struct {
	To       string
	Template string
	Data     map[string]interface{}
}

type stubEmail struct {
	sent    []sentEmail
	failFor map[string]error
}

func (s *stubEmail) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

func (s *stubEmail) SendTemplate(ctx context.Context, to []string, templateName string, data interface{}) error {
	if err, ok := s.failFor[to[0]]; ok {
		return err
	}
	dataMap, _ := data.(map[string]interface{})
	s.sent = append(s.sent, sentEmail{To: to[0], Template: templateName, Data: dataMap})
	return nil
}

type testHarness struct {
	engine  *Engine
	db      *gorm.DB
	genID   *snowflake.Node
	clk     *clock.FakeClock
	payment *stubPayment
	email   *stubEmail
}

func newHarness(t *testing.T, now time.Time) *testHarness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&orgdomain.User{},
		&orgdomain.Organization{},
		&orgdomain.OrganizationMember{},
		&domain.Subscription{},
		&domain.Invoice{},
		&domain.InvoiceItem{},
	))

	genID, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(now)
	pay := &stubPayment{link: "https://pay.example/abc"}
	mail := &stubEmail{}

	engine, err := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   genID,
		Clock:   clk,
		Payment: pay,
		Email:   mail,
	})
	require.NoError(t, err)

	return &testHarness{engine: engine, db: db, genID: genID, clk: clk, payment: pay, email: mail}
}

type seedOpts struct {
	Plan           domain.Plan
	Status         string
	PricePerMember decimal.Decimal
	CreatedAt      time.Time
	Email          string
	MemberJoins    []time.Time
}

// seedSubscription creates an owner, one organization, its members, and a
// subscription. The owner is always the first member; extra joins add one
// additional user each.
func (h *testHarness) seedSubscription(t *testing.T, opts seedOpts) *domain.Subscription {
	t.Helper()

	if opts.Status == "" {
		opts.Status = domain.SubscriptionStatusActive
	}
	if opts.PricePerMember.IsZero() {
		opts.PricePerMember = decimal.NewFromInt(10)
	}
	if opts.Email == "" {
		opts.Email = "owner@example.com"
	}

	owner := orgdomain.User{ID: h.genID.Generate(), Email: opts.Email, Name: "Owner", CreatedAt: opts.CreatedAt}
	require.NoError(t, h.db.Create(&owner).Error)

	org := orgdomain.Organization{
		ID:        h.genID.Generate(),
		OwnerID:   owner.ID,
		Name:      "Acme",
		CreatedAt: opts.CreatedAt,
	}
	require.NoError(t, h.db.Create(&org).Error)

	require.NoError(t, h.db.Create(&orgdomain.OrganizationMember{
		ID:        h.genID.Generate(),
		OrgID:     org.ID,
		UserID:    owner.ID,
		Role:      orgdomain.RoleOwner,
		CreatedAt: opts.CreatedAt,
	}).Error)

	for i, joinedAt := range opts.MemberJoins {
		member := orgdomain.User{
			ID:        h.genID.Generate(),
			Email:     opts.Email + ".member" + string(rune('a'+i)),
			Name:      "Member",
			CreatedAt: joinedAt,
		}
		require.NoError(t, h.db.Create(&member).Error)
		require.NoError(t, h.db.Create(&orgdomain.OrganizationMember{
			ID:        h.genID.Generate(),
			OrgID:     org.ID,
			UserID:    member.ID,
			Role:      orgdomain.RoleMember,
			CreatedAt: joinedAt,
		}).Error)
	}

	sub := domain.Subscription{
		ID:             h.genID.Generate(),
		UserID:         owner.ID,
		Plan:           opts.Plan,
		Status:         opts.Status,
		Currency:       "USD",
		PricePerMember: opts.PricePerMember,
		CreatedAt:      opts.CreatedAt,
	}
	require.NoError(t, h.db.Create(&sub).Error)
	return &sub
}

func TestRunBilling_GeneratesInvoiceOnAnniversary(t *testing.T) {
	now := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	sub := h.seedSubscription(t, seedOpts{
		Plan:      domain.PlanPro,
		CreatedAt: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})

	summary, err := h.engine.RunBilling(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunSummary{Processed: 1, Total: 1}, summary)

	var invoice domain.Invoice
	require.NoError(t, h.db.Where("subscription_id = ?", sub.ID).First(&invoice).Error)
	assert.Equal(t, domain.InvoiceStatusOpen, invoice.Status)
	assert.Equal(t, "10.00", invoice.Amount.StringFixed(2))
	assert.Equal(t, "https://pay.example/abc", invoice.PaymentLink)
	assert.Equal(t, invoice.BillingPeriodEnd.AddDate(0, 0, 3), invoice.DueDate)

	var items []domain.InvoiceItem
	require.NoError(t, h.db.Where("invoice_id = ?", invoice.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.False(t, items[0].Prorated)
	assert.Contains(t, items[0].Description, "Pro Plan")

	var updated domain.Subscription
	require.NoError(t, h.db.First(&updated, "id = ?", sub.ID).Error)
	require.NotNil(t, updated.LastInvoicedAt)
	require.NotNil(t, updated.BillingAnniversaryDay)
	assert.Equal(t, 15, *updated.BillingAnniversaryDay)

	require.Len(t, h.email.sent, 1)
	assert.Equal(t, "invoice_new", h.email.sent[0].Template)
	assert.Equal(t, "10.00", h.email.sent[0].Data["amount"])
	assert.Equal(t, "https://pay.example/abc", h.email.sent[0].Data["payment_link"])
}

func TestRunBilling_SecondRunSameDayIsIdempotent(t *testing.T) {
	now := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	sub := h.seedSubscription(t, seedOpts{
		Plan:      domain.PlanPro,
		CreatedAt: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})

	first, err := h.engine.RunBilling(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	h.clk.Advance(4 * time.Hour)
	second, err := h.engine.RunBilling(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunSummary{Skipped: 1, Total: 1}, second)

	var count int64
	require.NoError(t, h.db.Model(&domain.Invoice{}).Where("subscription_id = ?", sub.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunBilling_SkipsOffAnniversaryDays(t *testing.T) {
	now := time.Date(2024, 3, 14, 6, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	h.seedSubscription(t, seedOpts{
		Plan:      domain.PlanPro,
		CreatedAt: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})

	summary, err := h.engine.RunBilling(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunSummary{Skipped: 1, Total: 1}, summary)
	assert.Zero(t, h.payment.calls)
}

func TestRunBilling_IgnoresFreeAndInactiveSubscriptions(t *testing.T) {
	now := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	h.seedSubscription(t, seedOpts{
		Plan:      domain.PlanFree,
		Email:     "free@example.com",
		CreatedAt: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})
	h.seedSubscription(t, seedOpts{
		Plan:      domain.PlanPro,
		Status:    domain.SubscriptionStatusCanceled,
		Email:     "canceled@example.com",
		CreatedAt: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})

	summary, err := h.engine.RunBilling(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunSummary{}, summary)
}

func TestRunBilling_PaymentLinkFailureDegradesGracefully(t *testing.T) {
	now := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	h.payment.err = assert.AnError
	h.payment.link = ""
	sub := h.seedSubscription(t, seedOpts{
		Plan:      domain.PlanPro,
		CreatedAt: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})

	summary, err := h.engine.RunBilling(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Zero(t, summary.Errors)

	var invoice domain.Invoice
	require.NoError(t, h.db.Where("subscription_id = ?", sub.ID).First(&invoice).Error)
	assert.Empty(t, invoice.PaymentLink)

	// The notification still goes out, with an empty link.
	require.Len(t, h.email.sent, 1)
	assert.Equal(t, "", h.email.sent[0].Data["payment_link"])
}

func TestRunBilling_PerSubscriptionFailureIsIsolated(t *testing.T) {
	now := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	h.email.failFor = map[string]error{"broken@example.com": assert.AnError}

	h.seedSubscription(t, seedOpts{
		Plan:      domain.PlanPro,
		Email:     "broken@example.com",
		CreatedAt: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})
	healthy := h.seedSubscription(t, seedOpts{
		Plan:      domain.PlanPremium,
		Email:     "fine@example.com",
		CreatedAt: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})

	summary, err := h.engine.RunBilling(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 2, summary.Total)

	var count int64
	require.NoError(t, h.db.Model(&domain.Invoice{}).Where("subscription_id = ?", healthy.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunBilling_SkipsOwnersWithoutOrganizations(t *testing.T) {
	now := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	h := newHarness(t, now)

	owner := orgdomain.User{ID: h.genID.Generate(), Email: "lonely@example.com", Name: "Lonely"}
	require.NoError(t, h.db.Create(&owner).Error)
	require.NoError(t, h.db.Create(&domain.Subscription{
		ID:             h.genID.Generate(),
		UserID:         owner.ID,
		Plan:           domain.PlanPro,
		Status:         domain.SubscriptionStatusActive,
		Currency:       "USD",
		PricePerMember: decimal.NewFromInt(10),
		CreatedAt:      time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	}).Error)

	summary, err := h.engine.RunBilling(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunSummary{Skipped: 1, Total: 1}, summary)
}

func TestRunBilling_ProratesMidPeriodJoiner(t *testing.T) {
	now := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	created := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	sub := h.seedSubscription(t, seedOpts{
		Plan:           domain.PlanPro,
		PricePerMember: decimal.NewFromInt(29),
		CreatedAt:      created,
		// Joined exactly mid-period of 2024-02-15 -> 2024-03-15.
		MemberJoins: []time.Time{time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)},
	})

	summary, err := h.engine.RunBilling(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Processed)

	var invoice domain.Invoice
	require.NoError(t, h.db.Where("subscription_id = ?", sub.ID).First(&invoice).Error)

	var items []domain.InvoiceItem
	require.NoError(t, h.db.Where("invoice_id = ?", invoice.ID).Order("created_at ASC").Find(&items).Error)
	require.Len(t, items, 2)

	var prorated *domain.InvoiceItem
	for i := range items {
		if items[i].Prorated {
			prorated = &items[i]
		}
	}
	require.NotNil(t, prorated)
	assert.Contains(t, prorated.Description, "[Prorated: ")

	// Roughly half a seat for the mid-period joiner.
	half := decimal.NewFromFloat(14.5)
	diff := prorated.Amount.Sub(half).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromInt(1)), "amount %s not within 1 of %s", prorated.Amount, half)

	expectedTotal := decimal.NewFromInt(29).Add(prorated.Amount).Round(2)
	assert.True(t, invoice.Amount.Equal(expectedTotal), "invoice %s want %s", invoice.Amount, expectedTotal)
}

func TestRunBilling_SelfHealsFromLastInvoice(t *testing.T) {
	now := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	created := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	sub := h.seedSubscription(t, seedOpts{
		Plan:      domain.PlanPro,
		CreatedAt: created,
	})

	// A historical invoice covering Jan 15 - Feb 15 exists; the engine must
	// continue from its period end even though the subscription record
	// carries no current period.
	prior := domain.Invoice{
		ID:                 h.genID.Generate(),
		SubscriptionID:     sub.ID,
		UserID:             sub.UserID,
		Status:             domain.InvoiceStatusPaid,
		Currency:           "USD",
		Amount:             decimal.NewFromInt(10),
		BillingPeriodStart: created,
		BillingPeriodEnd:   time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		DueDate:            time.Date(2024, 2, 18, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, h.db.Create(&prior).Error)

	summary, err := h.engine.RunBilling(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Processed)

	var latest domain.Invoice
	require.NoError(t, h.db.Where("subscription_id = ? AND id <> ?", sub.ID, prior.ID).First(&latest).Error)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), latest.BillingPeriodStart.UTC())
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), latest.BillingPeriodEnd.UTC())
}
