// Command billingworker runs the recurring billing engine without the HTTP
// surface, for deployments that trigger invoicing on an interval instead of
// an external cron.
package main

import (
	"github.com/bwmarrin/snowflake"
	billingservice "github.com/smallbiznis/ledgerly/internal/billing/service"
	"github.com/smallbiznis/ledgerly/internal/clock"
	"github.com/smallbiznis/ledgerly/internal/config"
	"github.com/smallbiznis/ledgerly/internal/logger"
	"github.com/smallbiznis/ledgerly/internal/migration"
	"github.com/smallbiznis/ledgerly/internal/providers/email"
	"github.com/smallbiznis/ledgerly/internal/providers/payment"
	"github.com/smallbiznis/ledgerly/internal/runlock"
	"github.com/smallbiznis/ledgerly/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		email.Module,
		payment.Module,
		runlock.Module,
		billingservice.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
