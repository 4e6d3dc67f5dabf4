package runlock

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/ledgerly/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("runlock",
	fx.Provide(NewFromConfig),
)

// NewFromConfig returns a nil Locker when redis is not configured; callers
// treat nil as "no cross-replica locking".
func NewFromConfig(cfg config.Config) *Locker {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})
	return NewLocker(client)
}
