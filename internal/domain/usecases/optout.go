package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/workdays"
)

// Opt-out window rules.
const (
	OptOutStartWorkingDays = 3
	OptOutLengthMonths     = 1
)

const (
	longDate        = "02 January 2006"
	longDateWeekday = "Monday, 02 January 2006"
)

var (
	// ErrNoDate means the text holds no recognisable date.
	ErrNoDate = errors.New("no date found")

	// ErrDateParser means the date parser itself failed.
	ErrDateParser = errors.New("date parser failed")
)

// OptOutCalculator turns a free-text enrollment date into an opt-out window.
type OptOutCalculator struct {
	parser   ports.DateParser
	calendar workdays.Calendar
	now      ports.Clock
	logger   *zap.Logger
}

// NewOptOutCalculator creates an OptOutCalculator. A nil clock means time.Now.
func NewOptOutCalculator(parser ports.DateParser, calendar workdays.Calendar, now ports.Clock, logger *zap.Logger) *OptOutCalculator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptOutCalculator{
		parser:   parser,
		calendar: calendar,
		now:      now,
		logger:   logger,
	}
}

// Calculate parses text and derives the opt-out window. It returns ErrNoDate
// when nothing date-like is found and wraps ErrDateParser on parser failure.
func (c *OptOutCalculator) Calculate(ctx context.Context, text string) (*entities.OptOutPeriod, error) {
	enrollment, found, err := c.parser.ParseDate(ctx, text, c.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDateParser, err)
	}
	if !found {
		return nil, ErrNoDate
	}
	return c.FromEnrollment(enrollment), nil
}

// TryCalculate is Calculate for callers that treat date reasoning as optional:
// any failure yields nil.
func (c *OptOutCalculator) TryCalculate(ctx context.Context, text string) *entities.OptOutPeriod {
	period, err := c.Calculate(ctx, text)
	if err != nil {
		if !errors.Is(err, ErrNoDate) {
			c.logger.Debug("date calculation skipped", zap.Error(err))
		}
		return nil
	}
	return period
}

// FromEnrollment derives the window for a known enrollment date.
func (c *OptOutCalculator) FromEnrollment(enrollment time.Time) *entities.OptOutPeriod {
	enrollment = entities.DateOf(enrollment)
	start := c.calendar.AdvanceWorkingDays(enrollment, OptOutStartWorkingDays)
	end := workdays.AddCalendarMonths(start, OptOutLengthMonths)

	if years := c.calendar.Holidays().Uncovered(enrollment, start); len(years) > 0 {
		c.logger.Warn("no bank holiday data for year, weekends only",
			zap.Ints("years", years),
			zap.String("enrollment", enrollment.Format(time.DateOnly)))
	}

	if skipped := c.calendar.HolidaysBetween(enrollment, start); len(skipped) > 0 {
		names := make([]string, len(skipped))
		for i, h := range skipped {
			names[i] = h.Name
		}
		c.logger.Debug("bank holidays skipped", zap.Strings("holidays", names))
	}

	period := &entities.OptOutPeriod{
		EnrollmentDate: enrollment,
		StartDate:      start,
		EndDate:        end,
	}
	period.Summary = FormatOptOutSummary(period)
	return period
}

// FormatOptOutSummary renders the human-readable explanation of a window.
func FormatOptOutSummary(p *entities.OptOutPeriod) string {
	return fmt.Sprintf(
		"Based on an enrollment date of %s:\n"+
			"- Your Opt-out Period STARTS on: %s (%d working days later)\n"+
			"- Your Opt-out Period ENDS on: %s (%d month later)",
		p.EnrollmentDate.Format(longDate),
		p.StartDate.Format(longDateWeekday), OptOutStartWorkingDays,
		p.EndDate.Format(longDateWeekday), OptOutLengthMonths,
	)
}
