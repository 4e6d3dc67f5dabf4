package service

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ledgerly/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProrateMember_FullPeriod(t *testing.T) {
	periodStart := date(2024, 3, 1)
	periodEnd := date(2024, 3, 31)
	price := decimal.NewFromInt(10)

	member := billableMember{
		Email:    "ada@example.com",
		OrgNames: []string{"Acme"},
		JoinedAt: date(2024, 1, 5),
	}

	got := prorateMember(member, domain.PlanPro, price, periodStart, periodEnd)

	assert.True(t, got.Amount.Equal(price))
	assert.False(t, got.Prorated)
	assert.False(t, got.WasMemberRemoved)
	assert.Equal(t, "Pro Plan - ada@example.com (Acme)", got.Description)
	assert.Equal(t, periodStart, got.PeriodStart)
	assert.Equal(t, periodEnd, got.PeriodEnd)
}

func TestProrateMember_JoinedAtMidpoint(t *testing.T) {
	periodStart := date(2024, 3, 1)
	periodEnd := date(2024, 3, 31)
	price := decimal.NewFromInt(10)

	member := billableMember{
		Email:    "grace@example.com",
		OrgNames: []string{"Acme"},
		JoinedAt: date(2024, 3, 16),
	}

	got := prorateMember(member, domain.PlanPremium, price, periodStart, periodEnd)

	require.True(t, got.Prorated)
	assert.Equal(t, "Premium Plan - grace@example.com (Acme) [Prorated: 15/30 days]", got.Description)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(5)), "got %s", got.Amount)
}

func TestProrateMember_RemovedMidPeriod(t *testing.T) {
	periodStart := date(2024, 3, 1)
	periodEnd := date(2024, 3, 31)
	price := decimal.NewFromInt(30)
	removedAt := date(2024, 3, 11)

	member := billableMember{
		Email:     "alan@example.com",
		OrgNames:  []string{"Acme", "Globex"},
		JoinedAt:  date(2024, 1, 1),
		RemovedAt: &removedAt,
	}

	got := prorateMember(member, domain.PlanStandard, price, periodStart, periodEnd)

	require.True(t, got.Prorated)
	assert.True(t, got.WasMemberRemoved)
	assert.Equal(t, "Standard Plan - alan@example.com (Acme, Globex) [Prorated: 10/30 days, removed mid-period]", got.Description)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(10)), "got %s", got.Amount)
	assert.Equal(t, removedAt, got.PeriodEnd)
}

func TestProrateMember_RemovedAtPeriodBoundaryIsNotProrated(t *testing.T) {
	periodStart := date(2024, 3, 1)
	periodEnd := date(2024, 3, 31)
	price := decimal.NewFromInt(10)
	removedAt := periodEnd

	member := billableMember{
		Email:     "bob@example.com",
		OrgNames:  []string{"Acme"},
		JoinedAt:  date(2024, 1, 1),
		RemovedAt: &removedAt,
	}

	got := prorateMember(member, domain.PlanPro, price, periodStart, periodEnd)

	assert.False(t, got.Prorated)
	assert.False(t, got.WasMemberRemoved)
	assert.True(t, got.Amount.Equal(price))
}

func TestDedupMembers(t *testing.T) {
	removed := date(2024, 3, 10)
	rows := []memberRow{
		{UserID: 1, Email: "ada@example.com", OrgID: 100, OrgName: "Acme", CreatedAt: date(2024, 1, 1)},
		{UserID: 2, Email: "grace@example.com", OrgID: 100, OrgName: "Acme", CreatedAt: date(2024, 1, 2), DeletedAt: &removed},
		{UserID: 1, Email: "ada@example.com", OrgID: 200, OrgName: "Globex", CreatedAt: date(2024, 2, 1)},
	}

	members := dedupMembers(rows)
	require.Len(t, members, 2)

	// First row wins as primary org; org names accumulate.
	assert.Equal(t, snowflake.ID(100), members[0].OrgID)
	assert.Equal(t, []string{"Acme", "Globex"}, members[0].OrgNames)
	assert.Equal(t, date(2024, 1, 1), members[0].JoinedAt)

	require.NotNil(t, members[1].RemovedAt)
	assert.Equal(t, removed, *members[1].RemovedAt)
}
