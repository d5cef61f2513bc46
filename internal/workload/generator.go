// Package workload drives sustained churn through an LRU cache: bursts
// of random puts separated by idle intervals.
package workload

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	lru "github.com/bpowers/lruchurn"
	"github.com/bpowers/lruchurn/internal/readstate"
	"github.com/bpowers/lruchurn/simplelru"
)

const (
	// progressEvery is how many bursts pass between info-level progress logs.
	progressEvery = 100
	// checkEvery is how many puts a worker issues between context checks.
	checkEvery = 1024
	// maxMentions bounds the random mention count of a read state.
	maxMentions = 100
)

// Recorder receives one observation per burst.
type Recorder interface {
	ObserveBurst(puts, evictions, resident int, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveBurst(int, int, int, time.Duration) {}

type sizer interface {
	Len() int
}

// putFunc inserts one random entry and reports whether it evicted.
type putFunc func(rng *rand.Rand) bool

// Summary totals a generator's work so far.
type Summary struct {
	Bursts    int
	Puts      int64
	Evictions int64
	Resident  int
}

// Generator owns a cache and fills it with random entries.
type Generator struct {
	cfg   Config
	log   *zap.SugaredLogger
	rec   Recorder
	cache sizer
	put   putFunc
	rngs  []*rand.Rand

	mu      sync.Mutex
	summary Summary
}

// New validates cfg and builds the cache. log and rec may be nil.
func New(cfg Config, log *zap.SugaredLogger, rec Recorder) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if rec == nil {
		rec = nopRecorder{}
	}

	cache, put, err := newCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("workload: building cache: %w", err)
	}

	rngs := make([]*rand.Rand, cfg.Workers)
	for i := range rngs {
		rngs[i] = newRand(cfg.Seed, i)
	}

	return &Generator{
		cfg:   cfg,
		log:   log,
		rec:   rec,
		cache: cache,
		put:   put,
		rngs:  rngs,
	}, nil
}

// newCache picks the cache for the key mode. A single uint64 worker
// owns an unsynchronized cache; everything else shares a locked one.
func newCache(cfg Config) (sizer, putFunc, error) {
	switch {
	case cfg.Keys == KeysReadState:
		c, err := lru.New[string, readstate.ReadState](cfg.Capacity)
		if err != nil {
			return nil, nil, err
		}
		return c, func(rng *rand.Rand) bool {
			rs := readstate.NewFromReader(rng)
			rs.Mentions = rng.Intn(maxMentions)
			return c.Put(rs.Key(), rs)
		}, nil
	case cfg.Workers == 1:
		c, err := simplelru.NewLRU[uint64, uint64](cfg.Capacity, nil)
		if err != nil {
			return nil, nil, err
		}
		return c, func(rng *rand.Rand) bool {
			return c.Put(uint64(rng.Int63()), uint64(rng.Int63()))
		}, nil
	default:
		c, err := lru.New[uint64, uint64](cfg.Capacity)
		if err != nil {
			return nil, nil, err
		}
		return c, func(rng *rand.Rand) bool {
			return c.Put(uint64(rng.Int63()), uint64(rng.Int63()))
		}, nil
	}
}

func newRand(seed int64, worker int) *rand.Rand {
	if seed == 0 {
		seedBytes := make([]byte, 8)
		if _, err := crand.Read(seedBytes); err != nil {
			panic(err)
		}
		return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seedBytes))))
	}
	return rand.New(rand.NewSource(seed + int64(worker)))
}

// Run issues bursts until ctx is cancelled or MaxBursts is reached. It
// returns nil in both cases. A burst cut short by cancellation is still
// recorded with the puts it managed.
func (g *Generator) Run(ctx context.Context) error {
	g.log.Infow("starting churn",
		"capacity", g.cfg.Capacity,
		"burst", g.cfg.BurstSize,
		"interval", g.cfg.Interval,
		"workers", g.cfg.Workers,
		"keys", g.cfg.Keys,
	)

	idle := time.NewTimer(0)
	defer idle.Stop()
	<-idle.C

	for {
		if err := ctx.Err(); err != nil {
			g.stopped("context done")
			return nil
		}

		start := time.Now()
		puts, evictions, err := g.burst(ctx)
		elapsed := time.Since(start)
		resident := g.cache.Len()

		if puts > 0 {
			s := g.record(puts, evictions, resident)
			g.rec.ObserveBurst(puts, evictions, resident, elapsed)
			g.log.Debugw("burst complete",
				"burst", s.Bursts,
				"puts", puts,
				"evictions", evictions,
				"resident", resident,
				"elapsed", elapsed,
			)
			if s.Bursts%progressEvery == 0 {
				g.log.Infow("churn progress",
					"bursts", s.Bursts,
					"puts", s.Puts,
					"evictions", s.Evictions,
					"resident", resident,
				)
			}
		}
		if err != nil {
			g.stopped("context done")
			return nil
		}

		if g.cfg.MaxBursts > 0 && g.Stats().Bursts >= g.cfg.MaxBursts {
			g.stopped("max bursts reached")
			return nil
		}

		idle.Reset(g.cfg.Interval)
		select {
		case <-ctx.Done():
			g.stopped("context done")
			return nil
		case <-idle.C:
		}
	}
}

func (g *Generator) stopped(reason string) {
	s := g.Stats()
	g.log.Infow("churn stopped",
		"reason", reason,
		"bursts", s.Bursts,
		"puts", s.Puts,
		"evictions", s.Evictions,
		"resident", s.Resident,
	)
}

// burst issues one burst of puts. It stops early, returning ctx's error,
// once ctx is done.
func (g *Generator) burst(ctx context.Context) (puts, evictions int, err error) {
	if len(g.rngs) == 1 {
		return g.fill(ctx, g.rngs[0], g.cfg.BurstSize)
	}

	putCounts := make([]int, len(g.rngs))
	evictCounts := make([]int, len(g.rngs))
	share, extra := g.cfg.BurstSize/len(g.rngs), g.cfg.BurstSize%len(g.rngs)
	eg, ctx := errgroup.WithContext(ctx)
	for i, rng := range g.rngs {
		i, rng := i, rng
		n := share
		if i < extra {
			n++
		}
		eg.Go(func() error {
			var err error
			putCounts[i], evictCounts[i], err = g.fill(ctx, rng, n)
			return err
		})
	}
	err = eg.Wait()

	for i := range putCounts {
		puts += putCounts[i]
		evictions += evictCounts[i]
	}
	return puts, evictions, err
}

func (g *Generator) fill(ctx context.Context, rng *rand.Rand, n int) (puts, evictions int, err error) {
	for ; puts < n; puts++ {
		if puts%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return puts, evictions, err
			}
		}
		if g.put(rng) {
			evictions++
		}
	}
	return puts, evictions, nil
}

func (g *Generator) record(puts, evictions, resident int) Summary {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.summary.Bursts++
	g.summary.Puts += int64(puts)
	g.summary.Evictions += int64(evictions)
	g.summary.Resident = resident
	return g.summary
}

// Stats returns the totals recorded so far. Safe to call while Run is
// in progress.
func (g *Generator) Stats() Summary {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.summary
}
