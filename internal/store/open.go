package store

import (
	"context"
	"fmt"

	"github.com/iwvelando/loan-simulator/pkg/constants"
	"go.uber.org/zap"
)

// Open creates the store for the given driver.
func Open(ctx context.Context, logger *zap.Logger, driver string, redisOpts RedisOptions) (Store, error) {
	switch driver {
	case "", constants.StoreDriverMemory:
		return NewMemoryStore(logger), nil
	case constants.StoreDriverRedis:
		return NewRedisStore(ctx, logger, redisOpts)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}
