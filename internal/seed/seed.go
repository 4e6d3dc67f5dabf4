// Package seed bootstraps a demo owner, organization, and subscription so a
// fresh install can exercise the billing loop immediately.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/ledgerly/internal/billing/domain"
	orgdomain "github.com/smallbiznis/ledgerly/internal/organization/domain"
	"gorm.io/gorm"
)

const (
	demoOwnerEmail = "owner@ledgerly.local"
	demoOwnerName  = "Demo Owner"
	demoOrgName    = "Main"
)

var demoSeatPrice = decimal.NewFromInt(10)

// EnsureDemoData seeds the demo tenant. It is idempotent: an existing demo
// owner short-circuits the whole seed.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing orgdomain.User
		err := tx.Where("email = ?", demoOwnerEmail).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()

		owner := orgdomain.User{
			ID:        node.Generate(),
			Email:     demoOwnerEmail,
			Name:      demoOwnerName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}

		org := orgdomain.Organization{
			ID:        node.Generate(),
			OwnerID:   owner.ID,
			Name:      demoOrgName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}

		member := orgdomain.OrganizationMember{
			ID:        node.Generate(),
			OrgID:     org.ID,
			UserID:    owner.ID,
			Role:      orgdomain.RoleOwner,
			CreatedAt: now,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		sub := billingdomain.Subscription{
			ID:             node.Generate(),
			UserID:         owner.ID,
			Plan:           billingdomain.PlanPro,
			Status:         billingdomain.SubscriptionStatusActive,
			Currency:       "USD",
			PricePerMember: demoSeatPrice,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.Create(&sub).Error
	})
}
