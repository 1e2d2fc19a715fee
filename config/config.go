package config

import (
	"fmt"
	"os"
	"time"
)

func GetSecret(key string) (string, error) {
	val, exist := os.LookupEnv(key)
	if exist {
		return val, nil
	}
	return "", fmt.Errorf("no env variable with key %v", key)
}

// Endpoint classes. Every rate-limited route belongs to exactly one class and
// shares that class's window with every other route in the same class.
const (
	ClassAuth    = "auth"
	ClassBooking = "booking"
	ClassAPI     = "api"
)

// RateLimitConfig is the fixed policy for one endpoint class. Policies are
// compiled in, not read from storage, so a corrupted record can never loosen
// a limit.
type RateLimitConfig struct {
	Window        time.Duration
	MaxRequests   int
	BlockDuration time.Duration
}

// RateLimits maps endpoint class to policy. Login attempts get few tries per
// long window with a long block, general API traffic many per short window.
var RateLimits = map[string]RateLimitConfig{
	ClassAuth:    {Window: 15 * time.Minute, MaxRequests: 5, BlockDuration: 30 * time.Minute},
	ClassBooking: {Window: time.Minute, MaxRequests: 10, BlockDuration: 5 * time.Minute},
	ClassAPI:     {Window: time.Minute, MaxRequests: 100, BlockDuration: time.Minute},
}
