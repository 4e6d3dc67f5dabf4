package migration

import (
	billingdomain "github.com/smallbiznis/ledgerly/internal/billing/domain"
	"github.com/smallbiznis/ledgerly/internal/config"
	orgdomain "github.com/smallbiznis/ledgerly/internal/organization/domain"
	orgevent "github.com/smallbiznis/ledgerly/internal/organization/event"
	"github.com/smallbiznis/ledgerly/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql dev setups lean on gorm's schema sync
			// instead of the versioned postgres migrations.
			if err := conn.AutoMigrate(
				&orgdomain.User{},
				&orgdomain.Organization{},
				&orgdomain.OrganizationMember{},
				&billingdomain.Subscription{},
				&billingdomain.Invoice{},
				&billingdomain.InvoiceItem{},
				&orgevent.BillingEvent{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemo {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
