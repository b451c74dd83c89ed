package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/google/uuid"
)

type pairKey struct {
	vacancyID   uuid.UUID
	candidateID uuid.UUID
}

type entry struct {
	analysis *model.MatchAnalysis
	storedAt time.Time
}

// AnalysisCache keeps recent analyses in memory for a short TTL. It only
// saves database reads; callers still compare fingerprints.
type AnalysisCache struct {
	mu      sync.RWMutex
	entries map[pairKey]*entry
	ttl     time.Duration
	now     func() time.Time
}

func NewAnalysisCache(ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{
		entries: make(map[pairKey]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached analysis if present and not expired.
func (c *AnalysisCache) Get(vacancyID, candidateID uuid.UUID) (*model.MatchAnalysis, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[pairKey{vacancyID, candidateID}]
	if !ok || c.expired(e) {
		return nil, false
	}
	a := *e.analysis
	return &a, true
}

func (c *AnalysisCache) Set(a *model.MatchAnalysis) {
	if a == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *a
	c.entries[pairKey{a.VacancyID, a.CandidateID}] = &entry{analysis: &stored, storedAt: c.now()}
}

func (c *AnalysisCache) Delete(vacancyID, candidateID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, pairKey{vacancyID, candidateID})
}

// EvictCandidate drops every cached analysis of the candidate.
func (c *AnalysisCache) EvictCandidate(candidateID uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k := range c.entries {
		if k.candidateID == candidateID {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *AnalysisCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *AnalysisCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RunJanitor cleans expired entries every interval until ctx is done.
func (c *AnalysisCache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CleanExpired()
		}
	}
}

func (c *AnalysisCache) expired(e *entry) bool {
	return c.now().Sub(e.storedAt) > c.ttl
}
