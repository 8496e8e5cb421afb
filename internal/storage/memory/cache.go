// Package memory provides in-memory implementations of the storage
// interfaces for tests and local experiments. The cache store reproduces
// the ranked-set and hash semantics the pipeline relies on, so behavioral
// tests (recency trimming, additive counters) run without a server.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/repobox/repobox/internal/storage"
)

// CacheStore is an in-memory CacheStore implementation.
type CacheStore struct {
	mu      sync.Mutex
	zsets   map[string]map[string]float64
	hashes  map[string]map[string]string
	strings map[string]stringEntry
	expiry  map[string]time.Time
}

type stringEntry struct {
	value     string
	expiresAt time.Time
}

// NewCacheStore creates an empty in-memory cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		zsets:   make(map[string]map[string]float64),
		hashes:  make(map[string]map[string]string),
		strings: make(map[string]stringEntry),
		expiry:  make(map[string]time.Time),
	}
}

func (s *CacheStore) ZAdd(ctx context.Context, key, member string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zsets[key] == nil {
		s.zsets[key] = make(map[string]float64)
	}
	s.zsets[key][member] = score
	return nil
}

func (s *CacheStore) ZIncrBy(ctx context.Context, key string, increment float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zsets[key] == nil {
		s.zsets[key] = make(map[string]float64)
	}
	s.zsets[key][member] += increment
	return nil
}

// ranked returns the members of a set ordered ascending by score, ties
// ordered lexicographically, matching server behavior.
func (s *CacheStore) ranked(key string) []storage.ScoredMember {
	members := make([]storage.ScoredMember, 0, len(s.zsets[key]))
	for member, score := range s.zsets[key] {
		members = append(members, storage.ScoredMember{Member: member, Score: score})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score < members[j].Score
		}
		return members[i].Member < members[j].Member
	})
	return members
}

func (s *CacheStore) ZRemRangeByRank(ctx context.Context, key string, start, stop int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ranked := s.ranked(key)
	n := int64(len(ranked))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	for i := start; i <= stop && i < n; i++ {
		delete(s.zsets[key], ranked[i].Member)
	}
	return nil
}

func (s *CacheStore) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]storage.ScoredMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ranked := s.ranked(key)
	// Reverse for descending order
	for i, j := 0, len(ranked)-1; i < j; i, j = i+1, j-1 {
		ranked[i], ranked[j] = ranked[j], ranked[i]
	}
	n := int64(len(ranked))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return nil, nil
	}
	return ranked[start : stop+1], nil
}

func (s *CacheStore) ZCard(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.zsets[key])), nil
}

func (s *CacheStore) HIncrBy(ctx context.Context, key, field string, increment int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hashes[key] == nil {
		s.hashes[key] = make(map[string]string)
	}
	current := parseInt(s.hashes[key][field])
	s.hashes[key][field] = strconv.FormatInt(current+increment, 10)
	return nil
}

func (s *CacheStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hashes[key] == nil {
		s.hashes[key] = make(map[string]string)
	}
	for k, v := range fields {
		s.hashes[key][k] = v
	}
	return nil
}

func (s *CacheStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (s *CacheStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.strings[key]
	if !ok || (!entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)) {
		return "", storage.ErrCacheMiss
	}
	return entry.value, nil
}

func (s *CacheStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strings[key] = stringEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *CacheStore) Del(ctx context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for _, key := range keys {
		if _, ok := s.strings[key]; ok {
			delete(s.strings, key)
			deleted++
		}
		if _, ok := s.zsets[key]; ok {
			delete(s.zsets, key)
			deleted++
		}
		if _, ok := s.hashes[key]; ok {
			delete(s.hashes, key)
			deleted++
		}
	}
	return deleted, nil
}

func (s *CacheStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	match := func(key string) {
		if globMatch(pattern, key) {
			keys = append(keys, key)
		}
	}
	for key := range s.strings {
		match(key)
	}
	for key := range s.zsets {
		match(key)
	}
	for key := range s.hashes {
		match(key)
	}
	sort.Strings(keys)
	return keys, nil
}

// globMatch follows Redis KEYS semantics: '*' matches any run of
// characters, '/' included, and '?' matches exactly one.
func globMatch(pattern, s string) bool {
	p, str := []rune(pattern), []rune(s)
	pi, si := 0, 0
	star, mark := -1, 0
	for si < len(str) {
		switch {
		case pi < len(p) && (p[pi] == '?' || p[pi] == str[si]):
			pi++
			si++
		case pi < len(p) && p[pi] == '*':
			star = pi
			mark = si
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}

func (s *CacheStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.strings[key]; ok && !entry.expiresAt.IsZero() {
		return time.Until(entry.expiresAt), nil
	}
	if t, ok := s.expiry[key]; ok {
		return time.Until(t), nil
	}
	return -1, nil
}

func (s *CacheStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiry[key] = time.Now().Add(ttl)
	return nil
}

func (s *CacheStore) DBSize(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.strings) + len(s.zsets) + len(s.hashes)), nil
}

func (s *CacheStore) Ping(ctx context.Context) error { return nil }

func (s *CacheStore) Close() error { return nil }

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
