package cache

import (
	"sync"
	"time"
)

// Tier is one of the independent cache namespaces.
type Tier string

const (
	TierDemo   Tier = "demo"   // pre-seeded answers, no expiry
	TierAnswer Tier = "answer" // generated answer text
	TierAudio  Tier = "audio"  // synthesized speech bytes
)

// Entry is an immutable cache value. A refresh is a new Entry replacing the
// key atomically; entries are never mutated in place.
type Entry struct {
	Value     []byte
	CreatedAt time.Time
	TTL       time.Duration // 0 means no expiry
}

func (e Entry) expired(now time.Time) bool {
	return e.TTL > 0 && now.After(e.CreatedAt.Add(e.TTL))
}

// TierStats reports usage counters for one tier.
type TierStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Store is the three-tier in-memory cache. TTLs are enforced lazily: an
// expired entry is evicted and counted as a miss on the read that finds it,
// trading read-time cost for the absence of a background timer.
type Store struct {
	mu      sync.Mutex
	tiers   map[Tier]map[string]Entry
	stats   map[Tier]*TierStats
	answers time.Duration // default TTL for the answer tier
	audio   time.Duration // default TTL for the audio tier
	now     func() time.Time
}

func NewStore(answerTTL, audioTTL time.Duration) *Store {
	s := &Store{
		tiers: map[Tier]map[string]Entry{
			TierDemo:   {},
			TierAnswer: {},
			TierAudio:  {},
		},
		stats: map[Tier]*TierStats{
			TierDemo:   {},
			TierAnswer: {},
			TierAudio:  {},
		},
		answers: answerTTL,
		audio:   audioTTL,
		now:     time.Now,
	}
	return s
}

// Get returns the live value under key in tier. Expired entries are evicted
// here and reported as misses.
func (s *Store) Get(tier Tier, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.tiers[tier]
	if !ok {
		return nil, false
	}

	entry, ok := entries[key]
	if !ok {
		s.stats[tier].Misses++
		return nil, false
	}
	if entry.expired(s.now()) {
		delete(entries, key)
		s.stats[tier].Misses++
		return nil, false
	}

	s.stats[tier].Hits++
	return entry.Value, true
}

// Put replaces the value under key atomically. The demo tier never expires
// regardless of the ttl passed.
func (s *Store) Put(tier Tier, key string, value []byte, ttl time.Duration) {
	if key == "" {
		return
	}
	if tier == TierDemo {
		ttl = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.tiers[tier]
	if !ok {
		return
	}
	entries[key] = Entry{Value: value, CreatedAt: s.now(), TTL: ttl}
}

// GetAnswer probes demo then answer tier for key, short-circuiting on the
// first hit. Returns the answer text and the tier that served it.
func (s *Store) GetAnswer(key string) (string, Tier, bool) {
	if v, ok := s.Get(TierDemo, key); ok {
		return string(v), TierDemo, true
	}
	if v, ok := s.Get(TierAnswer, key); ok {
		return string(v), TierAnswer, true
	}
	return "", "", false
}

// PutAnswer stores generated answer text under the answer tier's default TTL.
func (s *Store) PutAnswer(key, text string) {
	s.Put(TierAnswer, key, []byte(text), s.answers)
}

// GetAudio probes the audio tier only.
func (s *Store) GetAudio(key string) ([]byte, bool) {
	return s.Get(TierAudio, key)
}

// PutAudio stores synthesized audio under the audio tier's default TTL.
func (s *Store) PutAudio(key string, audio []byte) {
	s.Put(TierAudio, key, audio, s.audio)
}

// Stats snapshots per-tier counters.
func (s *Store) Stats() map[Tier]TierStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[Tier]TierStats, len(s.stats))
	for tier, st := range s.stats {
		snapshot := *st
		snapshot.Entries = len(s.tiers[tier])
		out[tier] = snapshot
	}
	return out
}
