// Package core implements the calendar-construction algorithm.
//
// This file contains the pure Month builder: given a month number and a
// year it computes the localized display name and the week-chunked grid of
// day cells used by the HTML renderer. No I/O, no shared state.
package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const daysPerWeek = 7

var (
	ErrInvalidMonth      = errors.New("invalid month: must be between 1 and 12")
	ErrMalformedNotation = errors.New("malformed month notation: expected \"YYYY-MM\"")
)

type (
	// Day is a single calendar cell. Padding cells before day 1 have an
	// empty Text and are never weekends.
	Day struct {
		Text    string
		Weekend bool
	}

	// Month is the view model for one rendered month. Weeks holds rows of
	// at most 7 cells; the first row is left-padded so day 1 lands on its
	// weekday column (week starts Monday), the last row is not right-padded.
	Month struct {
		DisplayName string
		Weeks       [][]Day
	}
)

// monthNames maps month numbers 1..12 to their Russian display names.
var monthNames = [12]string{
	"Январь",
	"Февраль",
	"Март",
	"Апрель",
	"Май",
	"Июнь",
	"Июль",
	"Август",
	"Сентябрь",
	"Октябрь",
	"Ноябрь",
	"Декабрь",
}

// BuildMonth constructs the Month view model for the given month number
// (1..12) and year. Any representable year is accepted, including the
// proleptic range. Returns ErrInvalidMonth when month is out of range.
func BuildMonth(month, year int) (Month, error) {
	if month < 1 || month > 12 {
		return Month{}, ErrInvalidMonth
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes month 13 to January of the following year, which
	// handles the December rollover.
	nextFirst := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := int(nextFirst.Sub(first).Hours() / 24)

	// ISO weekday of day 1: Monday=1 .. Sunday=7.
	weekday := isoWeekday(first)

	cells := make([]Day, 0, weekday-1+daysInMonth)
	for i := 0; i < weekday-1; i++ {
		cells = append(cells, Day{})
	}
	for day := 1; day <= daysInMonth; day++ {
		date := first.AddDate(0, 0, day-1)
		cells = append(cells, Day{
			Text:    strconv.Itoa(day),
			Weekend: isWeekend(date),
		})
	}

	weeks := make([][]Day, 0, (len(cells)+daysPerWeek-1)/daysPerWeek)
	for len(cells) > 0 {
		n := daysPerWeek
		if len(cells) < n {
			n = len(cells)
		}
		weeks = append(weeks, cells[:n:n])
		cells = cells[n:]
	}

	return Month{
		DisplayName: monthNames[month-1] + " " + strconv.Itoa(year),
		Weeks:       weeks,
	}, nil
}

// BuildMonthFromNotation constructs a Month from its compact "YYYY-MM"
// notation, e.g. "2021-03". The year is parsed as a signed integer, the
// month as an unsigned one. Returns ErrMalformedNotation when the string
// does not split into two integer segments, and propagates ErrInvalidMonth
// for out-of-range month numbers.
func BuildMonthFromNotation(notation string) (Month, error) {
	parts := strings.SplitN(notation, "-", 2)
	if len(parts) < 2 {
		return Month{}, ErrMalformedNotation
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Month{}, ErrMalformedNotation
	}
	month, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Month{}, ErrMalformedNotation
	}

	return BuildMonth(int(month), year)
}

// isoWeekday returns the ISO weekday number, Monday=1 .. Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
