// Package redis provides Redis-backed adapters for GameUp sessions.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	"github.com/gameup/gameup-web/internal/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "gameup:session:"

const scanBatchSize = 100

// ErrExpired is returned by Save when the session has already lapsed.
var ErrExpired = errors.New("session is expired")

// SessionStore keeps sessions as JSON values whose Redis TTL tracks ExpiresAt.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, DefaultKeyPrefix)
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

func (s *SessionStore) key(id string) string { return s.prefix + id }

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	if !sess.Role.Valid() {
		return fmt.Errorf("session %s: unknown role %q", sess.ID, sess.Role)
	}

	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrExpired
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ErrNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}

	// Key TTL and ExpiresAt can drift by clock skew between writers.
	if !s.now().Before(sess.ExpiresAt) {
		if err := s.Delete(ctx, id); err != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", err)
		}
		return domainauth.Session{}, ErrNotFound
	}

	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(id)).Err()
}

// Revoke deletes a session and reports whether it existed.
func (s *SessionStore) Revoke(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

// ListFilter narrows the sessions returned by List.
type ListFilter struct {
	Role  domainauth.Role // empty matches every role
	Limit int             // <= 0 returns all matches
}

// List returns live sessions matching filter, soonest expiry first.
// The limit applies after filtering and sorting. Keys that vanish or lapse
// during the scan are skipped.
func (s *SessionStore) List(ctx context.Context, filter ListFilter) ([]domainauth.Session, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return nil, err
	}

	var sessions []domainauth.Session
	for _, key := range keys {
		sess, err := s.Get(ctx, strings.TrimPrefix(key, s.prefix))
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if filter.Role != "" && sess.Role != filter.Role {
			continue
		}
		sessions = append(sessions, sess)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ExpiresAt.Before(sessions[j].ExpiresAt)
	})
	if filter.Limit > 0 && len(sessions) > filter.Limit {
		sessions = sessions[:filter.Limit]
	}
	return sessions, nil
}

// scanKeys collects session keys. A cluster client is scanned master by master
// since SCAN only covers the node it is sent to.
func (s *SessionStore) scanKeys(ctx context.Context) ([]string, error) {
	match := s.prefix + "*"
	cluster, ok := s.client.(*redis.ClusterClient)
	if !ok {
		return scanNode(ctx, s.client, match)
	}

	var (
		mu   sync.Mutex
		keys []string
	)
	err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		found, err := scanNode(ctx, node, match)
		if err != nil {
			return err
		}
		mu.Lock()
		keys = append(keys, found...)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func scanNode(ctx context.Context, node redis.Cmdable, match string) ([]string, error) {
	var keys []string
	iter := node.Scan(ctx, 0, match, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// Ping checks connectivity to Redis.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// ErrNotFound is returned when a session is not found.
var ErrNotFound = ports.ErrSessionNotFound

// IsNotFound reports whether err denotes a missing session.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
