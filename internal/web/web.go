// Package web exposes the schedule engine over HTTP: month grids, day
// timelines, event detail windows, search, and the talent roster.
package web

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamcal/internal/config"
	"streamcal/internal/loader"
	"streamcal/internal/metric"
	"streamcal/internal/model"
	"streamcal/internal/roster"
	"streamcal/internal/schedule"
	"streamcal/internal/viewstate"
)

// Server provides the JSON API over the active event store.
type Server struct {
	cfg    *config.Config
	loader *loader.Loader
	loc    *time.Location
	mux    *http.ServeMux

	// In-memory cache for the talent roster to avoid re-downloading the
	// CSV on every /api/talents request.
	rosterMu    sync.RWMutex
	rosterCache *rosterCache
}

type rosterCache struct {
	talents   []model.Talent
	language  string
	updatedAt time.Time
}

const rosterCacheTTL = 15 * time.Minute

// NewServer constructs a new Server around the given loader.
func NewServer(cfg *config.Config, ld *loader.Loader, loc *time.Location) *Server {
	s := &Server{
		cfg:    cfg,
		loader: ld,
		loc:    loc,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		slog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health and /metrics
// with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="StreamCal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/month", s.handleMonth)
	s.mux.HandleFunc("/api/day", s.handleDay)
	s.mux.HandleFunc("/api/detail", s.handleDetail)
	s.mux.HandleFunc("/api/search", s.handleSearch)
	s.mux.HandleFunc("/api/talents", s.handleTalents)
	s.mux.HandleFunc("/api/select", s.handleSelect)
	s.mux.HandleFunc("/api/state", s.handleState)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventDTO is a JSON-friendly view of an event.
type eventDTO struct {
	ID          string     `json:"id"`
	UID         string     `json:"uid"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	URL         string     `json:"url,omitempty"`
	AllDay      bool       `json:"all_day"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Geo         *model.Geo `json:"geo,omitempty"`
}

func toDTO(ev model.Event) eventDTO {
	return eventDTO{
		ID:          viewstate.EventID(ev),
		UID:         ev.UID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		URL:         ev.URL,
		AllDay:      ev.AllDay,
		Start:       ev.Start,
		End:         ev.End,
		Geo:         ev.Geo,
	}
}

func toDTOs(events []model.Event) []eventDTO {
	dtos := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		dtos = append(dtos, toDTO(ev))
	}
	return dtos
}

// handleEvents returns every loaded event for the active selection.
//
// GET /api/events
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	store := s.loader.Store()
	selection, language := s.loader.Selection()

	writeJSON(w, http.StatusOK, struct {
		Selection string     `json:"selection"`
		Language  string     `json:"language"`
		Timezone  string     `json:"timezone"`
		Events    []eventDTO `json:"events"`
	}{
		Selection: selection,
		Language:  language,
		Timezone:  s.loc.String(),
		Events:    toDTOs(store.Events()),
	})
}

// monthResponse carries the laid-out month grid.
type monthResponse struct {
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	FirstWeekday int       `json:"first_weekday"`
	DaysInMonth  int       `json:"days_in_month"`
	Weeks        []weekDTO `json:"weeks"`
}

type weekDTO struct {
	Index    int          `json:"index"`
	Days     [7]int       `json:"days"`
	Segments []segmentDTO `json:"segments"`
	Singles  []slotDTO    `json:"singles"`
	Overflow [7]int       `json:"overflow"`
}

type segmentDTO struct {
	Event      eventDTO `json:"event"`
	StartCol   int      `json:"start_col"`
	EndCol     int      `json:"end_col"`
	Row        int      `json:"row"`
	EventStart bool     `json:"event_start"`
	EventEnd   bool     `json:"event_end"`
}

type slotDTO struct {
	Event eventDTO `json:"event"`
	Col   int      `json:"col"`
	Row   int      `json:"row"`
}

// handleMonth lays out one month.
//
// GET /api/month?year=2026&month=8
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(s.loc)
	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), now.Year())
	month := time.Month(parseIntDefault(q.Get("month"), int(now.Month())))
	if month < time.January || month > time.December {
		writeError(w, http.StatusBadRequest, "month out of range")
		return
	}

	ym := schedule.YearMonth{Year: year, Month: month}
	if ym.ClampToHorizon(now) != ym {
		writeError(w, http.StatusBadRequest, "month outside display horizon")
		return
	}

	store := s.loader.Store()
	var grid schedule.MonthGrid
	ok := s.loader.Range().TryExtend(ym, ym, now, func(_, _ schedule.YearMonth) {
		grid = schedule.BuildMonthGrid(store, year, month, s.loc)
	})
	if !ok {
		metric.RangeExtensionsDropped.Inc()
		writeError(w, http.StatusTooManyRequests, "month extension already in flight")
		return
	}

	weeks := make([]weekDTO, 0, len(grid.Weeks))
	for _, wk := range grid.Weeks {
		dto := weekDTO{Index: wk.Index, Days: wk.Days, Overflow: wk.Overflow}
		for _, seg := range wk.Segments {
			if seg.Row < 0 {
				continue
			}
			dto.Segments = append(dto.Segments, segmentDTO{
				Event:      toDTO(seg.Event),
				StartCol:   seg.StartCol,
				EndCol:     seg.EndCol,
				Row:        seg.Row,
				EventStart: seg.EventStart,
				EventEnd:   seg.EventEnd,
			})
		}
		for _, single := range wk.Singles {
			dto.Singles = append(dto.Singles, slotDTO{
				Event: toDTO(single.Event),
				Col:   single.Col,
				Row:   single.Row,
			})
		}
		weeks = append(weeks, dto)
	}

	writeJSON(w, http.StatusOK, monthResponse{
		Year:         grid.Year,
		Month:        int(grid.Month),
		FirstWeekday: grid.FirstWeekday,
		DaysInMonth:  grid.DaysInMonth,
		Weeks:        weeks,
	})
}

type timelineEntryDTO struct {
	Event        eventDTO `json:"event"`
	StartHour    int      `json:"start_hour"`
	StartMinute  int      `json:"start_minute"`
	StartOffset  float64  `json:"start_offset"`
	EndOffset    float64  `json:"end_offset"`
	Column       int      `json:"column"`
	TotalColumns int      `json:"total_columns"`
	Left         float64  `json:"left"`
	Width        float64  `json:"width"`
}

type indicatorDTO struct {
	Show        bool    `json:"show"`
	Offset      float64 `json:"offset"`
	LabelHour   int     `json:"label_hour"`
	LabelMinute int     `json:"label_minute"`
}

// handleDay lays out the timed events of one day on the 0..25h axis.
//
// GET /api/day?date=2026-08-30&width=390
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := viewstate.ParseDate(q.Get("date"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing date")
		return
	}
	width := parseFloatDefault(q.Get("width"), 390)

	store := s.loader.Store()
	dayEvents := store.EventsOnDate(date)

	allDay := make([]model.Event, 0)
	timed := make([]model.Event, 0, len(dayEvents))
	for _, ev := range dayEvents {
		if ev.AllDay {
			allDay = append(allDay, ev)
			continue
		}
		timed = append(timed, ev)
	}

	entries := schedule.LayoutDayTimeline(timed, date, schedule.DefaultLayoutParams(width))
	dtos := make([]timelineEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, timelineEntryDTO{
			Event:        toDTO(e.Event),
			StartHour:    e.StartHour,
			StartMinute:  e.StartMinute,
			StartOffset:  e.StartOffset,
			EndOffset:    e.EndOffset,
			Column:       e.Column,
			TotalColumns: e.TotalColumns,
			Left:         e.Left,
			Width:        e.Width,
		})
	}

	ind := schedule.DayIndicator(date, time.Now().In(s.loc))
	writeJSON(w, http.StatusOK, struct {
		Date      string             `json:"date"`
		AllDay    []eventDTO         `json:"all_day"`
		Timeline  []timelineEntryDTO `json:"timeline"`
		Indicator indicatorDTO       `json:"indicator"`
	}{
		Date:     viewstate.FormatDate(date),
		AllDay:   toDTOs(allDay),
		Timeline: dtos,
		Indicator: indicatorDTO{
			Show:        ind.Show,
			Offset:      ind.Offset,
			LabelHour:   ind.LabelHour,
			LabelMinute: ind.LabelMinute,
		},
	})
}

// handleDetail returns the anchor event plus everything overlapping its
// three hour context window.
//
// GET /api/detail?event=<id>
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("event")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	store := s.loader.Store()
	anchor := viewstate.FindEventByID(store.Events(), id)
	if anchor == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	window := schedule.DetailWindowFor(*anchor)
	neighbors := schedule.EventsInWindow(store, *anchor, window)
	ind := schedule.DetailIndicator(*anchor, window, time.Now().In(s.loc))

	writeJSON(w, http.StatusOK, struct {
		Event     eventDTO     `json:"event"`
		StartHour int          `json:"start_hour"`
		EndHour   int          `json:"end_hour"`
		Nearby    []eventDTO   `json:"nearby"`
		Indicator indicatorDTO `json:"indicator"`
	}{
		Event:     toDTO(*anchor),
		StartHour: window.StartHour,
		EndHour:   window.EndHour,
		Nearby:    toDTOs(neighbors),
		Indicator: indicatorDTO{
			Show:        ind.Show,
			Offset:      ind.Offset,
			LabelHour:   ind.LabelHour,
			LabelMinute: ind.LabelMinute,
		},
	})
}

// handleSearch runs a case-insensitive multi-term search over summary,
// description and location.
//
// GET /api/search?q=3d+live
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	store := s.loader.Store()
	matches := store.Search(query)
	upcoming := schedule.FirstUpcomingIndex(matches, time.Now().In(s.loc))

	writeJSON(w, http.StatusOK, struct {
		Query    string     `json:"query"`
		Events   []eventDTO `json:"events"`
		Upcoming int        `json:"upcoming_index"`
	}{
		Query:    query,
		Events:   toDTOs(matches),
		Upcoming: upcoming,
	})
}

// handleTalents serves the roster ordered for the requested language.
//
// GET /api/talents?lang=ja
func (s *Server) handleTalents(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang != "en" {
		lang = "ja"
	}

	now := time.Now()
	s.rosterMu.RLock()
	rc := s.rosterCache
	s.rosterMu.RUnlock()
	if rc != nil && rc.language == lang && now.Sub(rc.updatedAt) < rosterCacheTTL {
		writeJSON(w, http.StatusOK, rc.talents)
		return
	}

	talents, err := roster.Fetch(r.Context(), nil, s.cfg.RosterURL)
	if err != nil {
		slog.Error("roster fetch failed", "error", err)
		// Stale roster beats an empty sidebar.
		if rc != nil {
			writeJSON(w, http.StatusOK, rc.talents)
			return
		}
		writeError(w, http.StatusBadGateway, "failed to load roster")
		return
	}
	roster.Sort(talents, lang)

	s.rosterMu.Lock()
	s.rosterCache = &rosterCache{talents: talents, language: lang, updatedAt: time.Now()}
	s.rosterMu.Unlock()

	writeJSON(w, http.StatusOK, talents)
}

// handleSelect switches the active calendar selection and reloads the
// feeds behind it.
//
// POST /api/select?calendar=kuzuha&lang=ja
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	q := r.URL.Query()
	selection := q.Get("calendar")
	if selection == "" {
		selection = loader.DefaultSelection
	}
	lang := q.Get("lang")
	if lang != "en" {
		lang = "ja"
	}
	if strings.ContainsAny(selection, "/\\.") {
		writeError(w, http.StatusBadRequest, "invalid calendar name")
		return
	}

	if err := s.loader.Load(r.Context(), selection, lang); err != nil {
		slog.Error("selection load failed", "error", err, "selection", selection)
		writeError(w, http.StatusBadGateway, "failed to load calendar")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Selection string `json:"selection"`
		Language  string `json:"language"`
		Events    int    `json:"events"`
	}{Selection: selection, Language: lang, Events: s.loader.Store().Len()})
}

// handleState canonicalizes a shareable URL query: it decodes the
// incoming parameters with defaults applied and re-encodes the minimal
// form.
//
// GET /api/state?view=day&date=2026-08-30
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(s.loc)
	st := viewstate.DecodeQuery(r.URL.Query(), now, s.loc)

	writeJSON(w, http.StatusOK, struct {
		View         string `json:"view"`
		CurrentDate  string `json:"current_date"`
		SelectedDate string `json:"selected_date"`
		EventID      string `json:"event_id,omitempty"`
		PreviousView string `json:"previous_view,omitempty"`
		Calendar     string `json:"calendar"`
		Language     string `json:"language"`
		Query        string `json:"query"`
	}{
		View:         st.View,
		CurrentDate:  viewstate.FormatDate(st.CurrentDate),
		SelectedDate: viewstate.FormatDate(st.SelectedDate),
		EventID:      st.SelectedEventID,
		PreviousView: st.PreviousView,
		Calendar:     st.Calendar,
		Language:     st.Language,
		Query:        st.EncodeQuery().Encode(),
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}
