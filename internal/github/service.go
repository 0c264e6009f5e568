package github

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"bytesite/internal/cache"
	"bytesite/internal/metrics"
)

// Source is the subset of the REST API the service reads.
type Source interface {
	ListRepos(ctx context.Context) ([]Repo, error)
	Contributors(ctx context.Context, repo string) ([]Contributor, error)
}

type Stats struct {
	TotalStars   int `json:"total_stars"`
	Contributors int `json:"contributors"`
}

// Snapshot is what the home page shows. Err is set when the latest fetch
// failed; Stale marks data served from an expired cache entry.
type Snapshot struct {
	Repos     []Repo    `json:"repos"`
	Stats     Stats     `json:"stats"`
	FetchedAt time.Time `json:"fetched_at"`
	Stale     bool      `json:"-"`
	Err       error     `json:"-"`
}

type Service struct {
	src     Source
	cache   *cache.Store
	key     string
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

type ServiceOptions struct {
	Org string
	// Cache may be nil, in which case every call fetches.
	Cache   *cache.Store
	TTL     time.Duration
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func NewService(src Source, opt ServiceOptions) *Service {
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		src:     src,
		cache:   opt.Cache,
		key:     "github:" + strings.ToLower(opt.Org),
		ttl:     opt.TTL,
		logger:  logger,
		metrics: opt.Metrics,
	}
}

// Snapshot serves a fresh cache entry when there is one and fetches
// otherwise. A failed fetch falls back to the expired entry. Repos are
// ordered by stars plus forks, highest first, then by name.
//
// Concurrent callers share one fetch, which runs detached from any single
// caller's cancellation and is bounded by the client timeout.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	cached, hit := s.load()
	if hit && s.fresh(cached) {
		s.metrics.GitHubCacheLookup(true)
		return cached
	}
	s.metrics.GitHubCacheLookup(false)

	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(s.key, func() (any, error) {
		return s.fetch(flightCtx)
	})
	if err != nil {
		s.logger.Warn("github fetch failed", zap.String("key", s.key), zap.Error(err))
		if hit {
			s.metrics.GitHubFetch(metrics.FetchStale)
			cached.Stale = true
			cached.Err = err
			return cached
		}
		s.metrics.GitHubFetch(metrics.FetchError)
		return Snapshot{Err: err}
	}
	s.metrics.GitHubFetch(metrics.FetchOK)

	snap := v.(Snapshot)
	if s.cache != nil {
		if err := s.cache.Put(s.key, snap); err != nil {
			s.logger.Warn("github cache write failed", zap.Error(err))
		}
	}
	return snap
}

func (s *Service) load() (Snapshot, bool) {
	if s.cache == nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if _, err := s.cache.Get(s.key, &snap); err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("github cache read failed", zap.Error(err))
		}
		return Snapshot{}, false
	}
	return snap, true
}

func (s *Service) fresh(snap Snapshot) bool {
	e := cache.Entry{StoredAt: snap.FetchedAt}
	return e.Fresh(s.ttl, s.now())
}

func (s *Service) now() time.Time {
	if s.cache != nil {
		return s.cache.Now()
	}
	return time.Now()
}

func (s *Service) fetch(ctx context.Context) (Snapshot, error) {
	repos, err := s.src.ListRepos(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	SortRepos(repos)

	stats, err := ComputeStats(ctx, s.src, repos)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Repos:     repos,
		Stats:     stats,
		FetchedAt: s.now().UTC(),
	}, nil
}

func SortRepos(repos []Repo) {
	slices.SortStableFunc(repos, func(a, b Repo) int {
		if d := b.Score() - a.Score(); d != 0 {
			return d
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// ComputeStats sums stars and counts contributors by id across repos.
func ComputeStats(ctx context.Context, src Source, repos []Repo) (Stats, error) {
	lists := make([][]Contributor, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, r := range repos {
		g.Go(func() error {
			cs, err := src.Contributors(gctx, r.Name)
			if err != nil {
				return err
			}
			lists[i] = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	var st Stats
	seen := make(map[int64]struct{})
	for i, r := range repos {
		st.TotalStars += r.Stars
		for _, c := range lists[i] {
			seen[c.ID] = struct{}{}
		}
	}
	st.Contributors = len(seen)
	return st, nil
}
