// Package snapshot mirrors the last good result per source into redis so a
// restarted process can serve listings before its first sync pass finishes.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/utils/clock"

	"github.com/nightfeed/horror-aggregator/internal/games"
)

const (
	// DefaultKeyPrefix namespaces snapshot keys
	DefaultKeyPrefix = "horror-agg:snapshot"

	// DefaultTTL bounds how old a snapshot may be when it is loaded
	DefaultTTL = 24 * time.Hour
)

// Entry is one stored result together with the time it was saved
type Entry struct {
	Result  *games.SourceResult `json:"result"`
	SavedAt time.Time           `json:"savedAt"`
}

// Store reads and writes snapshots in redis
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	clock  clock.PassiveClock
}

// Option configures a Store
type Option func(*Store)

// WithKeyPrefix sets the key prefix; keys are "<prefix>:<source>"
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL sets the redis expiry applied to each snapshot
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock sets the clock used for SavedAt
func WithClock(c clock.PassiveClock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// New creates a store on an existing client. The store owns the client from then on.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultKeyPrefix,
		ttl:    DefaultTTL,
		clock:  clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect creates a client for addr and verifies it answers PING
func Connect(ctx context.Context, addr, password string, db int, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return New(client, opts...), nil
}

func (s *Store) key(source string) string {
	return s.prefix + ":" + source
}

// Save writes result under its source key. Failed results are never stored.
func (s *Store) Save(ctx context.Context, result *games.SourceResult) error {
	if result.Failed() {
		return nil
	}

	data, err := json.Marshal(Entry{Result: result, SavedAt: s.clock.Now()})
	if err != nil {
		return fmt.Errorf("marshaling snapshot for %s: %w", result.SourceName, err)
	}

	if err := s.client.Set(ctx, s.key(result.SourceName), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing snapshot for %s: %w", result.SourceName, err)
	}
	return nil
}

// Load reads the snapshots for the given sources. Missing or unreadable keys are skipped.
func (s *Store) Load(ctx context.Context, sources []string) (map[string]Entry, error) {
	out := make(map[string]Entry, len(sources))
	if len(sources) == 0 {
		return out, nil
	}

	keys := make([]string, len(sources))
	for i, source := range sources {
		keys[i] = s.key(source)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading snapshots: %w", err)
	}

	var errs []error
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			errs = append(errs, fmt.Errorf("unmarshaling snapshot for %s: %w", sources[i], err))
			continue
		}
		if entry.Result.Failed() || entry.Result.SourceName != sources[i] {
			continue
		}
		out[sources[i]] = entry
	}

	return out, errors.Join(errs...)
}

// Ping checks the redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
