// Package loader coordinates feed selection: it resolves a calendar
// selection to its ICS files, fetches and expands them, and installs
// the result as the active event store.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"streamcal/internal/ics"
	"streamcal/internal/metric"
	"streamcal/internal/model"
	"streamcal/internal/schedule"
)

// DefaultSelection is the site-wide schedule feed. It is the only
// selection backed by more than one file.
const DefaultSelection = "events"

// FilesFor maps a calendar selection to the ICS files that back it.
func FilesFor(selection string) []string {
	if selection == DefaultSelection {
		return []string{"events.ics", "birthdays.ics"}
	}
	return []string{selection + ".ics"}
}

// Loader owns the active event store and replaces it atomically when a
// new selection or language is loaded. Concurrent loads race by token:
// only the most recently started load may install its result.
type Loader struct {
	baseURL string
	fetcher *ics.Fetcher
	loc     *time.Location

	mu        sync.RWMutex
	store     *schedule.Store
	selection string
	language  string
	token     uuid.UUID
	rng       *schedule.RenderedRange
}

// New returns a Loader with an empty store.
func New(baseURL string, fetcher *ics.Fetcher, loc *time.Location) *Loader {
	return &Loader{
		baseURL:   strings.TrimRight(baseURL, "/"),
		fetcher:   fetcher,
		loc:       loc,
		store:     schedule.NewStore(nil),
		selection: DefaultSelection,
		rng:       &schedule.RenderedRange{},
	}
}

// Store returns the active event store. The returned store is
// immutable; a later Load installs a fresh one instead of mutating it.
func (l *Loader) Store() *schedule.Store {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store
}

// Selection returns the currently loaded selection and language.
func (l *Loader) Selection() (selection, language string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.selection, l.language
}

// Range returns the rendered month range tracker for the active store.
func (l *Loader) Range() *schedule.RenderedRange {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rng
}

// Load fetches, parses and expands the feeds for the given selection
// and language, then installs the result. The store is cleared up
// front so stale events never show under a new selection. If another
// Load starts while this one is in flight, the slower result is
// discarded.
func (l *Loader) Load(ctx context.Context, selection, language string) error {
	if selection == "" {
		selection = DefaultSelection
	}

	token := uuid.New()
	l.mu.Lock()
	l.store = schedule.NewStore(nil)
	l.selection = selection
	l.language = language
	l.token = token
	l.rng = &schedule.RenderedRange{}
	l.mu.Unlock()

	start := time.Now()
	events, err := l.loadEvents(ctx, selection, language)
	metric.CalendarLoadSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metric.CalendarLoads.WithLabelValues("error").Inc()
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.token != token {
		metric.CalendarLoads.WithLabelValues("superseded").Inc()
		slog.Debug("discarding superseded calendar load",
			"selection", selection, "events", len(events))
		return nil
	}
	l.store = schedule.NewStore(events)
	metric.CalendarLoads.WithLabelValues("ok").Inc()
	metric.LoadedEvents.Set(float64(len(events)))
	slog.Info("calendar loaded",
		"selection", selection, "language", language, "events", len(events))
	return nil
}

// Reload re-fetches the current selection, typically from the refresh
// schedule.
func (l *Loader) Reload(ctx context.Context) error {
	selection, language := l.Selection()
	return l.Load(ctx, selection, language)
}

func (l *Loader) loadEvents(ctx context.Context, selection, language string) ([]model.Event, error) {
	sources := make([]ics.Source, 0, 2)
	for _, file := range FilesFor(selection) {
		sources = append(sources, ics.Source{
			ID:  language + "/" + file,
			URL: fmt.Sprintf("%s/%s/%s", l.baseURL, language, file),
		})
	}

	results, errs := l.fetcher.FetchAll(ctx, sources)
	if len(results) == 0 {
		return nil, fmt.Errorf("loader: fetch %s: all sources failed: %w",
			selection, errors.Join(errs...))
	}

	var parsed []ics.ParsedEvent
	for _, res := range results {
		evs, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			return nil, fmt.Errorf("loader: parse %s: %w", res.Source.ID, err)
		}
		parsed = append(parsed, evs...)
	}

	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation: l.loc,
		Now:             time.Now().In(l.loc),
	})
	if err != nil {
		return nil, fmt.Errorf("loader: expand %s: %w", selection, err)
	}
	for _, uid := range expanded.TruncatedUIDs {
		slog.Warn("recurring event truncated at occurrence cap", "uid", uid)
	}
	return expanded.Events, nil
}
