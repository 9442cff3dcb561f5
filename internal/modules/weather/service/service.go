package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Christian-SuMePa/hausserver/internal/config"
	"github.com/Christian-SuMePa/hausserver/internal/modules/weather/dwd"
	"github.com/Christian-SuMePa/hausserver/internal/modules/weather/types"
)

// ErrUpstreamUnavailable is returned when a refresh fails and no prior
// snapshot exists to fall back on.
var ErrUpstreamUnavailable = errors.New("weather upstream unavailable")

// Fetcher is the slice of the DWD client the cache needs.
type Fetcher interface {
	FetchForecast(ctx context.Context, station string, loc *time.Location) (*dwd.Forecast, error)
	FetchWarnings(ctx context.Context, area string) ([]types.Warning, error)
}

// CacheInfo describes the cached snapshot for the diagnostics endpoint.
type CacheInfo struct {
	Cached     bool      `json:"cached"`
	UpdatedAt  time.Time `json:"updated_at"`
	AgeSeconds float64   `json:"age_seconds"`
	Expired    bool      `json:"expired"`
}

type cacheEntry struct {
	snapshot  types.Snapshot
	fetchedAt time.Time
}

// Service memoizes one weather snapshot behind a TTL. Expired or missing
// entries are refreshed by a single coalesced upstream fetch; when that
// fetch fails the previous snapshot is served marked stale.
type Service struct {
	fetcher      Fetcher
	station      string
	area         string
	ttl          time.Duration
	fetchTimeout time.Duration
	loc          *time.Location
	logger       *slog.Logger
	now          func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	entry *cacheEntry
}

func NewService(fetcher Fetcher, cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:      fetcher,
		station:      cfg.WeatherStationID,
		area:         cfg.WeatherWarningArea,
		ttl:          cfg.WeatherCacheTTL,
		fetchTimeout: cfg.WeatherFetchTimeout,
		loc:          cfg.Location,
		logger:       logger,
		now:          time.Now,
	}
}

// Snapshot returns the cached weather payload, refreshing it when the TTL
// has lapsed. A fresh hit never touches the network.
func (s *Service) Snapshot(ctx context.Context) (types.Snapshot, error) {
	if snap, ok := s.fresh(); ok {
		return snap, nil
	}

	v, err, _ := s.group.Do("weather", func() (interface{}, error) {
		// A caller queued behind a finished refresh must not refetch.
		if snap, ok := s.fresh(); ok {
			return snap, nil
		}
		snap, err := s.refresh()
		if err != nil {
			return nil, err
		}
		return snap, nil
	})
	if err != nil {
		return types.Snapshot{}, err
	}
	return v.(types.Snapshot), nil
}

// CacheInfo reports the age of the cached snapshot.
func (s *Service) CacheInfo() CacheInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entry == nil {
		return CacheInfo{}
	}
	age := s.now().Sub(s.entry.fetchedAt)
	return CacheInfo{
		Cached:     true,
		UpdatedAt:  s.entry.fetchedAt,
		AgeSeconds: age.Seconds(),
		Expired:    age >= s.ttl,
	}
}

func (s *Service) fresh() (types.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entry == nil || s.now().Sub(s.entry.fetchedAt) >= s.ttl {
		return types.Snapshot{}, false
	}
	return s.entry.snapshot, true
}

func (s *Service) refresh() (types.Snapshot, error) {
	// Detached from the caller: a cancelled request must not abort the
	// refresh shared with everyone queued behind it.
	ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
	defer cancel()

	forecast, err := s.fetcher.FetchForecast(ctx, s.station, s.loc)
	var warnings []types.Warning
	if err == nil {
		warnings, err = s.fetcher.FetchWarnings(ctx, s.area)
	}
	if err != nil {
		// Both fetches must succeed before anything is stored, so a
		// half-failed refresh cannot pass off empty warnings as "none
		// active".
		return s.degrade(err)
	}

	snapshot := types.Snapshot{
		UpdatedAt:    s.now(),
		Hourly:       forecast.Points,
		TodaySummary: forecast.Today,
		Warnings:     warnings,
	}
	s.mu.Lock()
	s.entry = &cacheEntry{snapshot: snapshot, fetchedAt: snapshot.UpdatedAt}
	s.mu.Unlock()

	s.logger.Debug("weather snapshot refreshed",
		"hourly_points", len(snapshot.Hourly),
		"warnings", len(snapshot.Warnings))
	return snapshot, nil
}

func (s *Service) degrade(cause error) (types.Snapshot, error) {
	s.mu.RLock()
	entry := s.entry
	s.mu.RUnlock()

	if entry == nil {
		s.logger.Error("weather refresh failed with no cached snapshot", "error", cause)
		return types.Snapshot{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, cause)
	}

	s.logger.Warn("weather refresh failed, serving stale snapshot",
		"error", cause,
		"age", s.now().Sub(entry.fetchedAt).Round(time.Second))
	stale := entry.snapshot
	stale.Stale = true
	return stale, nil
}
