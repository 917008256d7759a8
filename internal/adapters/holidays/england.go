// Package holidays builds holiday sets from published bank-holiday rules.
package holidays

import (
	"fmt"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/gb"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/workdays"
)

const (
	DefaultFromYear = 2024
	DefaultToYear   = 2027
)

// England returns the England and Wales bank holidays for fromYear..toYear.
// Both the calendar date and any substitute ("observed") day are included.
func England(fromYear, toYear int) (workdays.HolidaySet, error) {
	return build(fromYear, toYear, gb.Holidays)
}

func build(fromYear, toYear int, rules []*cal.Holiday) (workdays.HolidaySet, error) {
	if fromYear <= 0 || toYear <= 0 {
		return workdays.HolidaySet{}, fmt.Errorf("invalid holiday year range %d-%d", fromYear, toYear)
	}
	if toYear < fromYear {
		return workdays.HolidaySet{}, fmt.Errorf("holiday range ends (%d) before it starts (%d)", toYear, fromYear)
	}

	var days []workdays.Holiday
	for year := fromYear; year <= toYear; year++ {
		for _, rule := range rules {
			actual, observed := rule.Calc(year)
			if actual.IsZero() && observed.IsZero() {
				continue // rule not in effect this year
			}
			if !actual.IsZero() {
				days = append(days, workdays.Holiday{Date: actual, Name: rule.Name})
			}
			if !observed.IsZero() && !observed.Equal(actual) {
				days = append(days, workdays.Holiday{Date: observed, Name: rule.Name + " (substitute day)"})
			}
		}
	}
	return workdays.NewHolidaySet(fromYear, toYear, days), nil
}
