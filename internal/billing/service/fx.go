package service

import (
	"context"

	billingdomain "github.com/smallbiznis/ledgerly/internal/billing/domain"
	"github.com/smallbiznis/ledgerly/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Provide(func(e *Engine) billingdomain.Service { return e }),
	fx.Invoke(StartRunner),
)

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: cfg.BillingRunInterval,
		Currency:    cfg.BillingCurrency,
	}.withDefaults()
}

func StartRunner(lc fx.Lifecycle, engine *Engine) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go engine.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
