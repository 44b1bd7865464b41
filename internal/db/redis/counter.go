package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/medagent/internal/db"
)

// Counter reads an integer counter. A missing key reads as 0.
func (s *Store) Counter(ctx context.Context, key string) (int64, error) {
	n, err := s.do(ctx, s.b().Get().Key(key).Build()).AsInt64()
	switch {
	case rueidis.IsRedisNil(err):
		return 0, nil
	case err != nil:
		return 0, &db.Error{Op: db.OpCounter, Key: key, Err: err}
	}
	return n, nil
}

// AddCounter sends INCRBY and EXPIRE NX in one round trip.
func (s *Store) AddCounter(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	res := s.client.DoMulti(ctx,
		s.b().Incrby().Key(key).Increment(delta).Build(),
		s.b().Expire().Key(key).Seconds(seconds(ttl)).Nx().Build(),
	)
	n, err := res[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpAddCounter, Key: key, Err: err}
	}
	if err := res[1].Error(); err != nil {
		return n, &db.Error{Op: db.OpExpire, Key: key, Err: err}
	}
	return n, nil
}

// seconds rounds ttl down to whole seconds, never below one.
func seconds(ttl time.Duration) int64 {
	if s := int64(ttl / time.Second); s > 0 {
		return s
	}
	return 1
}
