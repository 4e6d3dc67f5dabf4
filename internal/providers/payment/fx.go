package payment

import (
	"github.com/smallbiznis/ledgerly/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.payment",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) Provider {
	if cfg.PaystackSecretKey == "" {
		return &NoOpProvider{}
	}
	return NewPaystack(cfg.PaystackSecretKey, cfg.PaystackBaseURL)
}
