package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ledgerly/internal/billing/domain"
	"github.com/smallbiznis/ledgerly/internal/clock"
	obsmetrics "github.com/smallbiznis/ledgerly/internal/observability/metrics"
	"github.com/smallbiznis/ledgerly/internal/providers/email"
	"github.com/smallbiznis/ledgerly/internal/providers/payment"
	"github.com/smallbiznis/ledgerly/internal/runlock"
	"github.com/smallbiznis/ledgerly/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const billingRunLockKey = "billing:run"
const billingRunLockTTL = 10 * time.Minute

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Payment payment.Provider
	Email   email.Provider
	Locker  *runlock.Locker `optional:"true"`
	Config  Config          `optional:"true"`
}

// Engine walks every active paid subscription once per invocation and
// produces at most one invoice per subscription per billing period.
type Engine struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     Config
	genID   *snowflake.Node
	clock   clock.Clock
	payment payment.Provider
	email   email.Provider
	locker  *runlock.Locker
}

func New(p Params) (*Engine, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.Payment == nil || p.Email == nil {
		return nil, domain.ErrInvalidConfig
	}
	return &Engine{
		db:      p.DB,
		log:     p.Log.Named("billing").With(zap.String("component", "billing")),
		cfg:     p.Config.withDefaults(),
		genID:   p.GenID,
		clock:   p.Clock,
		payment: p.Payment,
		email:   p.Email,
		locker:  p.Locker,
	}, nil
}

// workSubscription is the raw batch row joined with its owner.
type workSubscription struct {
	ID                    snowflake.ID
	UserID                snowflake.ID
	Plan                  domain.Plan
	Status                string
	Currency              string
	PricePerMember        decimal.Decimal
	BillingAnniversaryDay *int
	CurrentPeriodStart    *time.Time
	CurrentPeriodEnd      *time.Time
	LastInvoicedAt        *time.Time
	CreatedAt             time.Time
	Email                 string
	Name                  string
}

func (e *Engine) RunBilling(ctx context.Context) (domain.RunSummary, error) {
	start := e.clock.Now()
	metrics := obsmetrics.Billing()
	metrics.IncRun()
	defer func() { metrics.ObserveRunDuration(time.Since(start)) }()

	var summary domain.RunSummary

	if e.locker != nil {
		token, ok, err := e.locker.TryLock(ctx, billingRunLockKey, billingRunLockTTL)
		if err != nil {
			// Redis being down must not stop invoicing; the unique period
			// index still prevents duplicates.
			e.log.Warn("billing run lock unavailable, continuing without it", zap.Error(err))
		} else if !ok {
			return summary, domain.ErrRunInProgress
		} else {
			defer func() {
				if err := e.locker.Release(context.WithoutCancel(ctx), billingRunLockKey, token); err != nil {
					e.log.Warn("failed to release billing run lock", zap.Error(err))
				}
			}()
		}
	}

	subs, err := e.fetchActiveSubscriptions(ctx)
	if err != nil {
		return summary, fmt.Errorf("fetch subscriptions: %w", err)
	}
	summary.Total = len(subs)

	for _, sub := range subs {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		outcome, err := e.processSubscription(ctx, sub)
		if err != nil {
			summary.Errors++
			metrics.IncSubscription(obsmetrics.OutcomeError)
			e.log.Error("subscription billing failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if outcome == "" {
			summary.Processed++
			metrics.IncSubscription(obsmetrics.OutcomeProcessed)
			continue
		}
		summary.Skipped++
		metrics.IncSkip(outcome)
	}

	e.log.Info("billing run finished",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
		zap.Int("total", summary.Total),
		zap.Duration("duration", time.Since(start)),
	)

	return summary, nil
}

// processSubscription returns an empty outcome when an invoice was produced,
// or a skip reason when one of the gates fired.
func (e *Engine) processSubscription(ctx context.Context, sub workSubscription) (string, error) {
	now := e.clock.Now()

	anniversaryDay, err := e.resolveAnniversaryDay(ctx, sub)
	if err != nil {
		return "", err
	}

	if !IsBillingAnniversary(now, anniversaryDay) {
		return obsmetrics.SkipReasonNoAnniversary, nil
	}
	if WasInvoicedToday(now, sub.LastInvoicedAt) {
		return obsmetrics.SkipReasonInvoicedToday, nil
	}

	periodStart, periodEnd, err := e.resolveBillingPeriod(ctx, sub, anniversaryDay)
	if err != nil {
		return "", err
	}

	exists, err := e.invoiceExistsForPeriod(ctx, sub.ID, periodStart, periodEnd)
	if err != nil {
		return "", err
	}
	if exists {
		return obsmetrics.SkipReasonPeriodExists, nil
	}

	orgIDs, err := e.fetchOwnedOrgIDs(ctx, sub.UserID)
	if err != nil {
		return "", err
	}
	if len(orgIDs) == 0 {
		return obsmetrics.SkipReasonNoOrganizations, nil
	}

	rows, err := e.fetchMemberRows(ctx, orgIDs, periodStart)
	if err != nil {
		return "", err
	}
	members := dedupMembers(rows)
	if len(members) == 0 {
		return obsmetrics.SkipReasonNoMembers, nil
	}

	currency := sub.Currency
	if currency == "" {
		currency = e.cfg.Currency
	}
	dueDate := periodEnd.AddDate(0, 0, e.cfg.DueInDays)

	invoice := domain.Invoice{
		ID:                 e.genID.Generate(),
		SubscriptionID:     sub.ID,
		UserID:             sub.UserID,
		Status:             domain.InvoiceStatusOpen,
		Currency:           currency,
		Amount:             decimal.Zero,
		BillingPeriodStart: periodStart,
		BillingPeriodEnd:   periodEnd,
		DueDate:            dueDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	items := make([]domain.InvoiceItem, 0, len(members))
	total := decimal.Zero
	lines := make([]string, 0, len(members))
	for _, member := range members {
		result := prorateMember(member, sub.Plan, sub.PricePerMember, periodStart, periodEnd)
		total = total.Add(result.Amount)
		lines = append(lines, result.Description)
		items = append(items, domain.InvoiceItem{
			ID:               e.genID.Generate(),
			InvoiceID:        invoice.ID,
			OrgID:            member.OrgID,
			MemberUserID:     member.UserID,
			Description:      result.Description,
			Amount:           result.Amount,
			Prorated:         result.Prorated,
			WasMemberRemoved: result.WasMemberRemoved,
			PeriodStart:      result.PeriodStart,
			PeriodEnd:        result.PeriodEnd,
			CreatedAt:        now,
		})
	}
	// Round once at the boundary, never per member.
	invoice.Amount = total.Round(2)

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(items, 100).Error
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost the race against a concurrent run. Someone invoiced the
			// period; nothing to do.
			return obsmetrics.SkipReasonPeriodExists, nil
		}
		return "", fmt.Errorf("persist invoice: %w", err)
	}

	obsmetrics.Billing().ObserveInvoiceAmount(invoice.Amount.InexactFloat64())

	paymentLink := e.requestPaymentLink(ctx, sub, invoice)
	if paymentLink != "" {
		if err := e.db.WithContext(ctx).Model(&domain.Invoice{}).
			Where("id = ?", invoice.ID).
			Update("payment_link", paymentLink).Error; err != nil {
			return "", fmt.Errorf("store payment link: %w", err)
		}
	}

	if err := e.notifySubscriber(ctx, sub, invoice, lines, paymentLink); err != nil {
		return "", fmt.Errorf("notify subscriber: %w", err)
	}

	if err := e.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]any{
			"last_invoiced_at": now,
			"updated_at":       now,
		}).Error; err != nil {
		return "", fmt.Errorf("stamp last invoiced: %w", err)
	}

	e.log.Info("invoice generated",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("amount", invoice.Amount.StringFixed(2)),
		zap.Time("period_start", periodStart),
		zap.Time("period_end", periodEnd),
		zap.Int("items", len(items)),
	)

	return "", nil
}

// resolveAnniversaryDay returns the memoized anniversary day, deriving and
// persisting it on first use.
func (e *Engine) resolveAnniversaryDay(ctx context.Context, sub workSubscription) (int, error) {
	if sub.BillingAnniversaryDay != nil {
		return *sub.BillingAnniversaryDay, nil
	}

	base := sub.CreatedAt
	if sub.CurrentPeriodStart != nil {
		base = *sub.CurrentPeriodStart
	}
	day := CalculateAnniversaryDay(base)

	if err := e.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("id = ?", sub.ID).
		Update("billing_anniversary_day", day).Error; err != nil {
		return 0, fmt.Errorf("memoize anniversary day: %w", err)
	}
	return day, nil
}

// resolveBillingPeriod applies the three-tier fallback: last invoice's period
// end, then the subscription's own current period, then its creation date.
// The first tier is what lets billing self-heal across gaps in history.
func (e *Engine) resolveBillingPeriod(ctx context.Context, sub workSubscription, anniversaryDay int) (time.Time, time.Time, error) {
	var last domain.Invoice
	err := e.db.WithContext(ctx).
		Where("subscription_id = ?", sub.ID).
		Order("billing_period_end DESC").
		First(&last).Error
	if err == nil {
		start := last.BillingPeriodEnd
		return start, CalculateNextPeriodEnd(start, anniversaryDay), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, time.Time{}, err
	}

	if sub.CurrentPeriodStart != nil && sub.CurrentPeriodEnd != nil {
		return *sub.CurrentPeriodStart, *sub.CurrentPeriodEnd, nil
	}

	start := sub.CreatedAt
	return start, CalculateNextPeriodEnd(start, anniversaryDay), nil
}

func (e *Engine) invoiceExistsForPeriod(ctx context.Context, subscriptionID snowflake.ID, periodStart, periodEnd time.Time) (bool, error) {
	var count int64
	err := e.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("subscription_id = ? AND billing_period_start = ? AND billing_period_end = ?",
			subscriptionID, periodStart, periodEnd).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (e *Engine) fetchActiveSubscriptions(ctx context.Context) ([]workSubscription, error) {
	var subs []workSubscription
	err := e.db.WithContext(ctx).Raw(
		`SELECT s.id, s.user_id, s.plan, s.status, s.currency, s.price_per_member,
		        s.billing_anniversary_day, s.current_period_start, s.current_period_end,
		        s.last_invoiced_at, s.created_at, u.email, u.name
		 FROM subscriptions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.status = ? AND s.plan <> ?
		 ORDER BY s.id ASC`,
		domain.SubscriptionStatusActive,
		domain.PlanFree,
	).Scan(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (e *Engine) fetchOwnedOrgIDs(ctx context.Context, ownerID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := e.db.WithContext(ctx).
		Table("organizations").
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// fetchMemberRows returns membership rows across the owned orgs, excluding
// members who were already gone before the period began.
func (e *Engine) fetchMemberRows(ctx context.Context, orgIDs []snowflake.ID, periodStart time.Time) ([]memberRow, error) {
	var rows []memberRow
	err := e.db.WithContext(ctx).Raw(
		`SELECT m.user_id, u.email, m.org_id, o.name AS org_name, m.created_at, m.deleted_at
		 FROM organization_members m
		 JOIN organizations o ON o.id = m.org_id
		 JOIN users u ON u.id = m.user_id
		 WHERE m.org_id IN ? AND (m.deleted_at IS NULL OR m.deleted_at > ?)
		 ORDER BY m.created_at ASC, m.id ASC`,
		orgIDs,
		periodStart,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// requestPaymentLink asks the gateway for a hosted checkout URL. A failure is
// logged and degrades to an empty link; the invoice still goes out. One
// attempt, no retry.
func (e *Engine) requestPaymentLink(ctx context.Context, sub workSubscription, invoice domain.Invoice) string {
	metrics := obsmetrics.Billing()
	link, err := e.payment.CreatePaymentLink(ctx, payment.LinkRequest{
		Email:    sub.Email,
		Amount:   invoice.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency: invoice.Currency,
		Metadata: map[string]string{
			"invoice_id": invoice.ID.String(),
			"user_id":    sub.UserID.String(),
		},
	})
	if err != nil {
		metrics.IncPaymentLink("error")
		e.log.Warn("payment link request failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
		return ""
	}
	if link == "" {
		metrics.IncPaymentLink("empty")
		return ""
	}
	metrics.IncPaymentLink("ok")
	return link
}

func (e *Engine) notifySubscriber(ctx context.Context, sub workSubscription, invoice domain.Invoice, lines []string, paymentLink string) error {
	return e.email.SendTemplate(ctx, []string{sub.Email}, "invoice_new", map[string]interface{}{
		"invoice_id":   invoice.ID.String(),
		"name":         sub.Name,
		"amount":       invoice.Amount.StringFixed(2),
		"currency":     invoice.Currency,
		"due_date":     invoice.DueDate.Format("Jan 2, 2006"),
		"lines":        lines,
		"payment_link": paymentLink,
	})
}
