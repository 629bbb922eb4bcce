package holidays

import (
	"sort"
	"time"

	"staffquote/internal/domain"
)

// Namer is implemented by holiday sets that can name their holidays.
type Namer interface {
	Named(date time.Time) []string
}

// Lister is implemented by holiday sets that can enumerate a year.
type Lister interface {
	InYear(year int) []Holiday
}

var (
	_ Lister = (*Calendar)(nil)
	_ Lister = (*Fixed)(nil)
)

// Fixed is an explicit list of holiday dates.
type Fixed struct {
	dates map[string]string
}

var _ domain.HolidaySet = (*Fixed)(nil)

func NewFixed(dates ...time.Time) *Fixed {
	set := &Fixed{dates: make(map[string]string, len(dates))}
	for _, date := range dates {
		set.dates[date.Format(domain.DateLayout)] = "Holiday"
	}
	return set
}

// NewNamedFixed builds a fixed set from holidays carrying their own names.
func NewNamedFixed(entries ...Holiday) *Fixed {
	set := &Fixed{dates: make(map[string]string, len(entries))}
	for _, entry := range entries {
		set.dates[entry.Date.Format(domain.DateLayout)] = entry.Name
	}
	return set
}

func (f *Fixed) IsHoliday(date time.Time) bool {
	_, ok := f.dates[date.Format(domain.DateLayout)]
	return ok
}

func (f *Fixed) Named(date time.Time) []string {
	name, ok := f.dates[date.Format(domain.DateLayout)]
	if !ok {
		return nil
	}
	return []string{name}
}

// InYear lists the dates of the set that fall in year, ordered by date.
func (f *Fixed) InYear(year int) []Holiday {
	list := make([]Holiday, 0)
	for key, name := range f.dates {
		day, err := time.Parse(domain.DateLayout, key)
		if err != nil || day.Year() != year {
			continue
		}
		list = append(list, Holiday{Date: day, Name: name})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	return list
}

// NamesOf returns the holiday names set reports for date. Sets without names
// yield a generic label for each holiday.
func NamesOf(set domain.HolidaySet, date time.Time) []string {
	if set == nil {
		return nil
	}
	if namer, ok := set.(Namer); ok {
		return namer.Named(date)
	}
	if set.IsHoliday(date) {
		return []string{"Holiday"}
	}
	return nil
}
