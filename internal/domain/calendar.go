package domain

import (
	"time"

	json "github.com/goccy/go-json"
)

// DefaultHoursPerDay is the working day length used when none is configured.
const DefaultHoursPerDay = 8.0

// HolidaySet reports whether a calendar date is a public holiday. Only the
// year, month and day of the argument are significant.
type HolidaySet interface {
	IsHoliday(date time.Time) bool
}

type WeekDescriptor struct {
	WeekNumber     int
	WeekStart      time.Time
	WeekEnd        time.Time
	BusinessDays   int
	AvailableHours float64
	Holidays       []time.Time
}

type weekDescriptorJSON struct {
	WeekNumber     int      `json:"week_number"`
	WeekStart      string   `json:"week_start"`
	WeekEnd        string   `json:"week_end"`
	BusinessDays   int      `json:"business_days"`
	AvailableHours float64  `json:"available_hours"`
	Holidays       []string `json:"holidays"`
}

func (w WeekDescriptor) MarshalJSON() ([]byte, error) {
	holidays := make([]string, 0, len(w.Holidays))
	for _, holiday := range w.Holidays {
		holidays = append(holidays, FormatDate(holiday))
	}
	return json.Marshal(weekDescriptorJSON{
		WeekNumber:     w.WeekNumber,
		WeekStart:      FormatDate(w.WeekStart),
		WeekEnd:        FormatDate(w.WeekEnd),
		BusinessDays:   w.BusinessDays,
		AvailableHours: w.AvailableHours,
		Holidays:       holidays,
	})
}

type MonthHours struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Hours float64    `json:"hours"`
}

// Calendar answers business-day questions against one holiday set.
type Calendar struct {
	holidays HolidaySet
}

// NewCalendar returns a calendar over holidays; nil means no holidays.
func NewCalendar(holidays HolidaySet) Calendar {
	return Calendar{holidays: holidays}
}

func (c Calendar) isHoliday(date time.Time) bool {
	return c.holidays != nil && c.holidays.IsHoliday(date)
}

func (c Calendar) IsBusinessDay(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.isHoliday(date)
}

// MondayOfWeek returns the Monday on or before date, at UTC midnight.
func MondayOfWeek(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return dateOnly(date).AddDate(0, 0, -offset)
}

// BusinessHoursInWeek counts business days in the seven days starting at
// weekStart. The returned holidays include those falling on weekend days.
func (c Calendar) BusinessHoursInWeek(weekStart time.Time, hoursPerDay float64) (float64, []time.Time) {
	businessDays, holidays := c.scanWeek(weekStart)
	return float64(businessDays) * hoursPerDay, holidays
}

func (c Calendar) scanWeek(weekStart time.Time) (int, []time.Time) {
	businessDays := 0
	holidays := make([]time.Time, 0)
	day := dateOnly(weekStart)
	for i := 0; i < 7; i++ {
		if c.isHoliday(day) {
			holidays = append(holidays, day)
		}
		if c.IsBusinessDay(day) {
			businessDays++
		}
		day = day.AddDate(0, 0, 1)
	}
	return businessDays, holidays
}

// WeeklyBreakdown lists the Monday-anchored weeks covering durationMonths
// calendar months from start's month. The first week starts on the Monday on
// or before start, so it can begin in the previous month. Coverage ends
// before the first day of the month durationMonths after start's month.
func (c Calendar) WeeklyBreakdown(start time.Time, durationMonths int, hoursPerDay float64) []WeekDescriptor {
	weeks := make([]WeekDescriptor, 0)
	if durationMonths <= 0 {
		return weeks
	}

	end := coverageEnd(start, durationMonths)
	weekNumber := 1
	for monday := MondayOfWeek(start); monday.Before(end); monday = monday.AddDate(0, 0, 7) {
		businessDays, holidays := c.scanWeek(monday)
		weeks = append(weeks, WeekDescriptor{
			WeekNumber:     weekNumber,
			WeekStart:      monday,
			WeekEnd:        monday.AddDate(0, 0, 6),
			BusinessDays:   businessDays,
			AvailableHours: float64(businessDays) * hoursPerDay,
			Holidays:       holidays,
		})
		weekNumber++
	}
	return weeks
}

// BusinessHoursInMonth counts the business hours of a whole calendar month.
func (c Calendar) BusinessHoursInMonth(year int, month time.Month, hoursPerDay float64) float64 {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return c.businessHoursBetween(first, first.AddDate(0, 1, 0), hoursPerDay)
}

// BusinessHoursForPeriod returns business hours per calendar month. The first
// month is counted from start's day; the following months are counted whole.
func (c Calendar) BusinessHoursForPeriod(start time.Time, durationMonths int, hoursPerDay float64) []MonthHours {
	months := make([]MonthHours, 0)
	if durationMonths <= 0 {
		return months
	}

	from := dateOnly(start)
	for i := 0; i < durationMonths; i++ {
		monthStart := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
		next := monthStart.AddDate(0, 1, 0)
		months = append(months, MonthHours{
			Year:  from.Year(),
			Month: from.Month(),
			Hours: c.businessHoursBetween(from, next, hoursPerDay),
		})
		from = next
	}
	return months
}

func (c Calendar) businessHoursBetween(from, to time.Time, hoursPerDay float64) float64 {
	days := 0
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		if c.IsBusinessDay(day) {
			days++
		}
	}
	return float64(days) * hoursPerDay
}

func coverageEnd(start time.Time, durationMonths int) time.Time {
	return time.Date(start.Year(), start.Month()+time.Month(durationMonths), 1, 0, 0, 0, 0, time.UTC)
}

func dateOnly(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
