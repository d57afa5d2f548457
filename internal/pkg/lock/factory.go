package lock

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewFromDriver returns the Locker for driver; client is only used by redis.
func NewFromDriver(driver string, client *redis.Client) (Locker, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverLocal:
		return NewLocal(), nil
	case DriverRedis:
		if client == nil {
			return nil, fmt.Errorf("lock: redis driver needs a client")
		}
		return NewRedis(client), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
