// Package parser provides free-text parsing adapters.
package parser

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	dps "github.com/markusmobius/go-dateparser"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
)

// DateParser implements ports.DateParser with go-dateparser. Ambiguous
// numeric dates are read day-first and partial dates resolve to the future.
type DateParser struct {
	languages []string
}

// NewDateParser creates a parser restricted to the given languages
// (English when empty).
func NewDateParser(languages ...string) *DateParser {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return &DateParser{languages: languages}
}

func (p *DateParser) config(now time.Time) *dps.Configuration {
	return &dps.Configuration{
		CurrentTime:         now,
		DateOrder:           dps.DMY,
		PreferredDateSource: dps.Future,
		Languages:           p.languages,
	}
}

// ParseDate reads text as a whole first; failing that it searches the text
// for an embedded date phrase that contains a digit.
func (p *DateParser) ParseDate(ctx context.Context, text string, now time.Time) (date time.Time, found bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}

	defer func() {
		if r := recover(); r != nil {
			date, found, err = time.Time{}, false, fmt.Errorf("date parser panic: %v", r)
		}
	}()

	cfg := p.config(now)
	if dt, perr := dps.Parse(cfg, text); perr == nil && !dt.Time.IsZero() {
		return entities.DateOf(dt.Time), true, nil
	}

	_, results, serr := dps.Search(cfg, text)
	if serr != nil {
		return time.Time{}, false, fmt.Errorf("searching for date: %w", serr)
	}
	for _, r := range results {
		// Bare words such as "may" or "now" are too easy to misread.
		if !hasDigit(r.Text) || r.Date.Time.IsZero() {
			continue
		}
		// Search does not honour DateOrder; parse the phrase again day-first.
		if dt, perr := dps.Parse(cfg, r.Text); perr == nil && !dt.Time.IsZero() {
			return entities.DateOf(dt.Time), true, nil
		}
		return entities.DateOf(r.Date.Time), true, nil
	}
	return time.Time{}, false, nil
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
