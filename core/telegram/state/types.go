package state

import "context"

// Store keeps one session per chat id. Reads of an unknown chat yield the
// zero session. Stores do not serialise concurrent read-modify-write cycles
// for the same chat; the last Save wins.
type Store[S any] interface {
	GetOrCreate(ctx context.Context, chatID int64) (S, error)
	Save(ctx context.Context, chatID int64, s S) error
	Clear(ctx context.Context, chatID int64) error
}

// Backend names accepted by configuration.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)
