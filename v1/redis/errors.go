package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// Nil is returned when a key does not exist.
var Nil = redis.Nil

// IsNilError checks if the error is a "key does not exist" error.
func IsNilError(err error) bool {
	return errors.Is(err, Nil)
}
