// Package domain defines the subscription and invoice records the recurring
// billing engine operates on.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Plan identifies a subscription tier.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanStandard Plan = "standard"
	PlanPro      Plan = "pro"
	PlanPremium  Plan = "premium"
)

// DisplayName returns the marketing name used on invoice lines.
func (p Plan) DisplayName() string {
	switch p {
	case PlanFree:
		return "Free Plan"
	case PlanStandard:
		return "Standard Plan"
	case PlanPro:
		return "Pro Plan"
	case PlanPremium:
		return "Premium Plan"
	default:
		return string(p) + " Plan"
	}
}

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusPastDue  = "past_due"
)

// Subscription is one owner's seat-based subscription covering every
// organization they own.
type Subscription struct {
	ID                    snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID                snowflake.ID    `gorm:"column:user_id;not null;index" json:"user_id"`
	Plan                  Plan            `gorm:"type:text;not null" json:"plan"`
	Status                string          `gorm:"type:text;not null;index" json:"status"`
	Currency              string          `gorm:"type:text;not null" json:"currency"`
	PricePerMember        decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"price_per_member"`
	BillingAnniversaryDay *int            `gorm:"column:billing_anniversary_day" json:"billing_anniversary_day,omitempty"`
	CurrentPeriodStart    *time.Time      `gorm:"column:current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd      *time.Time      `gorm:"column:current_period_end" json:"current_period_end,omitempty"`
	LastInvoicedAt        *time.Time      `gorm:"column:last_invoiced_at" json:"last_invoiced_at,omitempty"`
	CreatedAt             time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

const (
	InvoiceStatusOpen = "open"
	InvoiceStatusPaid = "paid"
	InvoiceStatusVoid = "void"
)

// Invoice is one billing period's charge for a subscription. The unique index
// over (subscription_id, billing_period_start, billing_period_end) is the
// engine's last line of defense against double invoicing.
type Invoice struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id"`
	SubscriptionID     snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_invoices_sub_period,priority:1" json:"subscription_id"`
	UserID             snowflake.ID    `gorm:"column:user_id;not null;index" json:"user_id"`
	Status             string          `gorm:"type:text;not null" json:"status"`
	Currency           string          `gorm:"type:text;not null" json:"currency"`
	Amount             decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount"`
	BillingPeriodStart time.Time       `gorm:"column:billing_period_start;not null;uniqueIndex:ux_invoices_sub_period,priority:2" json:"billing_period_start"`
	BillingPeriodEnd   time.Time       `gorm:"column:billing_period_end;not null;uniqueIndex:ux_invoices_sub_period,priority:3" json:"billing_period_end"`
	DueDate            time.Time       `gorm:"column:due_date;not null" json:"due_date"`
	PaymentLink        string          `gorm:"type:text" json:"payment_link"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is one member's (possibly prorated) seat charge.
type InvoiceItem struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID        snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	OrgID            snowflake.ID    `gorm:"column:org_id;not null" json:"org_id"`
	MemberUserID     snowflake.ID    `gorm:"column:member_user_id;not null" json:"member_user_id"`
	Description      string          `gorm:"type:text;not null" json:"description"`
	Amount           decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount"`
	Prorated         bool            `gorm:"not null" json:"prorated"`
	WasMemberRemoved bool            `gorm:"column:was_member_removed;not null" json:"was_member_removed"`
	PeriodStart      time.Time       `gorm:"column:period_start;not null" json:"period_start"`
	PeriodEnd        time.Time       `gorm:"column:period_end;not null" json:"period_end"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// RunSummary aggregates one billing batch.
type RunSummary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	Total     int `json:"total"`
}
