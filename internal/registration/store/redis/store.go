// Package redis stores the registry in Redis: one marker key per lowercased
// username and one list holding the JSON records in insertion order.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"regdesk/internal/registration/models"
	"regdesk/pkg/platform/sentinel"
)

const defaultPrefix = "regdesk:"

// appendScript claims the username key and pushes the record in one atomic
// step. Returns 0 when the key already exists.
var appendScript = redis.NewScript(`
if redis.call("SETNX", KEYS[1], "1") == 0 then
	return 0
end
redis.call("RPUSH", KEYS[2], ARGV[1])
return 1
`)

// Store is a Redis-backed registry.
type Store struct {
	client redis.UniversalClient
	prefix string
}

type Option func(*Store)

// WithPrefix namespaces every key. Defaults to "regdesk:".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) usernameKey(username string) string {
	return s.prefix + "username:" + models.UsernameKey(username)
}

func (s *Store) listKey() string {
	return s.prefix + "registrations"
}

func (s *Store) Lookup(ctx context.Context, username string) (bool, error) {
	n, err := s.client.Exists(ctx, s.usernameKey(username)).Result()
	if err != nil {
		return false, fmt.Errorf("lookup username: %w: %w", sentinel.ErrUnavailable, err)
	}
	return n == 1, nil
}

func (s *Store) Append(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	added, err := appendScript.Run(ctx, s.client,
		[]string{s.usernameKey(record.Username), s.listKey()},
		payload,
	).Int()
	if err != nil {
		return fmt.Errorf("append registration: %w: %w", sentinel.ErrUnavailable, err)
	}
	if added == 0 {
		return fmt.Errorf("append %q: %w", record.Username, sentinel.ErrAlreadyUsed)
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]*models.Record, error) {
	raw, err := s.client.LRange(ctx, s.listKey(), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list registrations: %w: %w", sentinel.ErrUnavailable, err)
	}
	records := make([]*models.Record, 0, len(raw))
	for i, item := range raw {
		var r models.Record
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode registration %d: %w: %w", i, sentinel.ErrCorrupt, err)
		}
		records = append(records, &r)
	}
	return records, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
