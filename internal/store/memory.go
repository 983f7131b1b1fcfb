package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/meteo-bot/internal/clock"
	"github.com/i474232898/meteo-bot/internal/weather"
)

var (
	// ErrNotFound is returned when no forecast is available for a request.
	ErrNotFound = errors.New("no forecast for request")

	// ErrExpired is returned by GetFresh when the cached forecast is older
	// than the configured max age.
	ErrExpired = errors.New("cached forecast expired")
)

type entry struct {
	forecast weather.Forecast
	storedAt time.Time
	loc      *time.Location // day boundaries are taken in the forecast's zone
}

// MemoryStore is a concurrency-safe in-memory forecast cache. It keeps only
// the last forecast per request.
type MemoryStore struct {
	mu sync.RWMutex

	// key: request key
	data map[string]entry

	maxAge time.Duration // 0 = never expires
	clock  clock.Clock
}

// NewMemoryStore creates a new MemoryStore. If maxAge is <= 0, entries never
// expire.
func NewMemoryStore(maxAge time.Duration, clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.Real{}
	}
	return &MemoryStore{
		data:   make(map[string]entry),
		maxAge: maxAge,
		clock:  clk,
	}
}

// Save replaces the cached forecast for a request.
func (s *MemoryStore) Save(req weather.ForecastRequest, f weather.Forecast) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[req.Key()] = entry{forecast: f, storedAt: s.clock.Now(), loc: forecastLocation(f)}
}

// GetFresh returns the cached forecast if it is younger than maxAge and was
// stored on the current day of the forecast's timezone. A forecast fetched
// before midnight describes the previous day and is never served after it.
func (s *MemoryStore) GetFresh(req weather.ForecastRequest) (weather.Forecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[req.Key()]
	if !ok {
		return weather.Forecast{}, ErrNotFound
	}
	now := s.clock.Now()
	if s.maxAge > 0 && now.Sub(e.storedAt) >= s.maxAge {
		return weather.Forecast{}, ErrExpired
	}
	if !sameDay(e.storedAt, now, e.loc) {
		return weather.Forecast{}, ErrExpired
	}
	return e.forecast, nil
}

// GetLatest returns the cached forecast regardless of its age.
func (s *MemoryStore) GetLatest(req weather.ForecastRequest) (weather.Forecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[req.Key()]
	if !ok {
		return weather.Forecast{}, ErrNotFound
	}
	return e.forecast, nil
}

func forecastLocation(f weather.Forecast) *time.Location {
	if f.Hourly.Len() > 0 {
		return f.Hourly.Times[0].Location()
	}
	if loc, err := time.LoadLocation(f.Request.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

var _ weather.Store = (*MemoryStore)(nil)
