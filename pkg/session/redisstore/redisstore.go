// Package redisstore keeps sessions in Redis.
//
// Each session is a JSON value under "session:<id>" with a TTL matching its expiry, and
// each user has a set "user_sessions:<user-id>" indexing their session ids. Index entries
// whose session key has expired are pruned on read.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"orderdesk/pkg/session"
)

const (
	sessionPrefix = "session:"
	userPrefix    = "user_sessions:"
	minTTL        = time.Second
)

// Store implements session.Store on Redis.
type Store struct {
	rdb redis.UniversalClient
}

// New returns a Store using rdb.
func New(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

func sessionKey(id string) string { return sessionPrefix + id }
func userKey(userID string) string { return userPrefix + userID }

// Get loads a session by id.
func (s *Store) Get(ctx context.Context, id string) (session.Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Session{}, session.ErrNotFound
	}
	if err != nil {
		return session.Session{}, err
	}
	var sess session.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return session.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Put writes the session and indexes it under its user.
func (s *Store) Put(ctx context.Context, sess session.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl < minTTL {
		ttl = minTTL
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, sessionKey(sess.ID), raw, ttl)
		p.SAdd(ctx, userKey(sess.UserID), sess.ID)
		return nil
	})
	return err
}

// Delete removes a session and its index entry.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	sess, err := s.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var del *redis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, sessionKey(id))
		p.SRem(ctx, userKey(sess.UserID), id)
		return nil
	})
	if err != nil {
		return false, err
	}
	return del.Val() > 0, nil
}

// ListByUser returns the user's sessions still present in Redis.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]session.Session, error) {
	ids, err := s.rdb.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var out []session.Session
	var stale []any
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var sess session.Session
		if err := json.Unmarshal([]byte(str), &sess); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		out = append(out, sess)
	}
	if len(stale) > 0 {
		if err := s.rdb.SRem(ctx, userKey(userID), stale...).Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Scan iterates over all session keys.
func (s *Store) Scan(ctx context.Context, fn func(session.Session) bool) error {
	iter := s.rdb.Scan(ctx, 0, sessionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(sessionPrefix):]
		sess, err := s.Get(ctx, id)
		if errors.Is(err, session.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if !fn(sess) {
			return nil
		}
	}
	return iter.Err()
}
