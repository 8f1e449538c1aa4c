// Package roster loads and orders the talent roster CSV that drives
// the per-talent calendar selection list.
package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"streamcal/internal/model"
)

// CSV column positions in data/talents.csv.
const (
	colName      = 0
	colRomaji    = 3
	colFurigana  = 4
	colGraduated = 14
)

// romajiSentinel marks the group-wide roster row that has no own feed.
const romajiSentinel = "Nijisanji"

// Parse reads the talent CSV and returns the active roster: graduated
// rows, rows without a romaji and the group sentinel are excluded.
// The first line is a header. Rows with fewer than five columns are
// skipped silently (the sheet export pads unevenly).
func Parse(r io.Reader) ([]model.Talent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("roster: parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("roster: empty csv")
	}

	talents := make([]model.Talent, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) <= colFurigana {
			continue
		}
		romaji := strings.TrimSpace(rec[colRomaji])
		graduated := len(rec) > colGraduated && strings.TrimSpace(rec[colGraduated]) != ""
		if graduated || romaji == "" || romaji == romajiSentinel {
			continue
		}

		filename := strings.ToLower(strings.ReplaceAll(romaji, " ", "_")) + ".ics"
		talents = append(talents, model.Talent{
			Name:     rec[colName],
			Romaji:   romaji,
			Furigana: rec[colFurigana],
			Filename: filename,
		})
	}

	return talents, nil
}

// Sort orders the roster in place for the given language: by furigana
// under Japanese collation, by romaji under English collation.
func Sort(talents []model.Talent, lang string) {
	var c *collate.Collator
	key := func(t model.Talent) string { return t.Romaji }
	if lang == "ja" {
		c = collate.New(language.Japanese)
		key = func(t model.Talent) string { return t.Furigana }
	} else {
		c = collate.New(language.English)
	}

	sort.SliceStable(talents, func(i, j int) bool {
		return c.CompareString(key(talents[i]), key(talents[j])) < 0
	})
}

// Fetch downloads and parses the roster CSV from the given URL.
func Fetch(ctx context.Context, client *http.Client, url string) ([]model.Talent, error) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("roster: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster: fetch: %s", resp.Status)
	}
	return Parse(resp.Body)
}
