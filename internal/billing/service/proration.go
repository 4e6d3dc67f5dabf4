package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ledgerly/internal/billing/domain"
)

// billableMember is one distinct person billed under a subscription. A person
// in several organizations under the same owner is collapsed to a single
// entry: the first membership row encountered supplies the primary org and
// join/removal dates, while org names accumulate from every row for the item
// description.
type billableMember struct {
	UserID    snowflake.ID
	Email     string
	OrgID     snowflake.ID
	OrgNames  []string
	JoinedAt  time.Time
	RemovedAt *time.Time
}

// memberRow is the raw membership join row the billing query produces.
type memberRow struct {
	UserID    snowflake.ID
	Email     string
	OrgID     snowflake.ID
	OrgName   string
	CreatedAt time.Time
	DeletedAt *time.Time
}

// dedupMembers collapses membership rows to distinct people, preserving
// first-seen order.
func dedupMembers(rows []memberRow) []billableMember {
	byUser := make(map[snowflake.ID]*billableMember, len(rows))
	order := make([]snowflake.ID, 0, len(rows))

	for _, row := range rows {
		if existing, ok := byUser[row.UserID]; ok {
			existing.OrgNames = append(existing.OrgNames, row.OrgName)
			continue
		}
		removedAt := row.DeletedAt
		byUser[row.UserID] = &billableMember{
			UserID:    row.UserID,
			Email:     row.Email,
			OrgID:     row.OrgID,
			OrgNames:  []string{row.OrgName},
			JoinedAt:  row.CreatedAt,
			RemovedAt: removedAt,
		}
		order = append(order, row.UserID)
	}

	members := make([]billableMember, 0, len(order))
	for _, id := range order {
		members = append(members, *byUser[id])
	}
	return members
}

// prorationResult is one member's computed seat charge.
type prorationResult struct {
	Amount           decimal.Decimal
	Description      string
	Prorated         bool
	WasMemberRemoved bool
	PeriodStart      time.Time
	PeriodEnd        time.Time
}

// prorateMember computes the (possibly partial) charge for one member over
// the billing period. Amounts stay unrounded here; rounding happens once when
// the invoice total is stored.
func prorateMember(m billableMember, plan domain.Plan, pricePerMember decimal.Decimal, periodStart, periodEnd time.Time) prorationResult {
	memberStart := m.JoinedAt
	if memberStart.Before(periodStart) {
		memberStart = periodStart
	}

	memberEnd := periodEnd
	removed := false
	if m.RemovedAt != nil && m.RemovedAt.After(periodStart) && m.RemovedAt.Before(periodEnd) {
		memberEnd = *m.RemovedAt
		removed = true
	}

	prorated := memberStart.After(periodStart) || removed

	amount := pricePerMember
	daysInPeriod := wholeDays(memberStart, memberEnd)
	totalDays := wholeDays(periodStart, periodEnd)
	if prorated && totalDays > 0 {
		fraction := decimal.NewFromInt(int64(daysInPeriod)).Div(decimal.NewFromInt(int64(totalDays)))
		amount = pricePerMember.Mul(fraction)
	}

	description := fmt.Sprintf("%s - %s (%s)", plan.DisplayName(), m.Email, strings.Join(m.OrgNames, ", "))
	if prorated {
		description += fmt.Sprintf(" [Prorated: %d/%d days", daysInPeriod, totalDays)
		if removed {
			description += ", removed mid-period"
		}
		description += "]"
	}

	return prorationResult{
		Amount:           amount,
		Description:      description,
		Prorated:         prorated,
		WasMemberRemoved: removed,
		PeriodStart:      memberStart,
		PeriodEnd:        memberEnd,
	}
}

func wholeDays(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
