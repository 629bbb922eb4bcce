package holidays

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/br"
	"github.com/rickar/cal/v2/pt"
	"github.com/rickar/cal/v2/us"

	"staffquote/internal/domain"
)

// Holiday is one non-working day with its name.
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (h Holiday) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date string `json:"date"`
		Name string `json:"name"`
	}{Date: domain.FormatDate(h.Date), Name: h.Name})
}

// national lists the public holidays of each country. Entries in extra fill
// dates the upstream tables leave empty.
type national struct {
	holidays []*cal.Holiday
	extra    []*cal.Holiday
}

var blackConsciousness = &cal.Holiday{
	Name:      "Dia Nacional de Zumbi e da Consciência Negra",
	Type:      cal.ObservancePublic,
	Month:     time.November,
	Day:       20,
	StartYear: 2024,
	Func:      cal.CalcDayOfMonth,
}

var jurisdictions = map[string]national{
	"BR": {holidays: br.Holidays, extra: []*cal.Holiday{blackConsciousness}},
	"US": {holidays: us.Holidays},
	"PT": {holidays: pt.Holidays},
}

var subdivisions = map[string]map[string][]*cal.Holiday{
	"BR": {
		"SP": {{
			Name:  "Revolução Constitucionalista",
			Type:  cal.ObservancePublic,
			Month: time.July,
			Day:   9,
			Func:  cal.CalcDayOfMonth,
		}},
		"RJ": {{
			Name:  "Dia de São Jorge",
			Type:  cal.ObservancePublic,
			Month: time.April,
			Day:   23,
			Func:  cal.CalcDayOfMonth,
		}},
	},
}

// Calendar is the holiday set of one jurisdiction. Years are expanded on
// first use and cached; the rules never change after construction.
type Calendar struct {
	rules []*cal.Holiday
	extra []*cal.Holiday

	mu    sync.RWMutex
	years map[int]map[string][]string
}

var _ domain.HolidaySet = (*Calendar)(nil)

// For returns the calendar for a "CC" or "CC-SUB" code such as "BR" or "BR-SP".
func For(code string) (*Calendar, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	country, subdivision, hasSubdivision := strings.Cut(normalized, "-")

	base, ok := jurisdictions[country]
	if !ok {
		return nil, fmt.Errorf("unknown holiday jurisdiction %q: %w", code, domain.ErrValidation)
	}

	extra := append([]*cal.Holiday(nil), base.extra...)
	if hasSubdivision {
		regional, ok := subdivisions[country][subdivision]
		if !ok {
			return nil, fmt.Errorf("unknown holiday subdivision %q: %w", code, domain.ErrValidation)
		}
		extra = append(extra, regional...)
	}

	return &Calendar{
		rules: publicOnly(base.holidays),
		extra: extra,
		years: map[int]map[string][]string{},
	}, nil
}

func publicOnly(holidays []*cal.Holiday) []*cal.Holiday {
	public := make([]*cal.Holiday, 0, len(holidays))
	for _, holiday := range holidays {
		if holiday.Type == cal.ObservancePublic {
			public = append(public, holiday)
		}
	}
	return public
}

// Codes lists the supported jurisdiction codes, subdivisions included.
func Codes() []string {
	codes := make([]string, 0, len(jurisdictions))
	for country := range jurisdictions {
		codes = append(codes, country)
		for subdivision := range subdivisions[country] {
			codes = append(codes, country+"-"+subdivision)
		}
	}
	sort.Strings(codes)
	return codes
}

func (c *Calendar) IsHoliday(date time.Time) bool {
	return len(c.Named(date)) > 0
}

// Named returns the names of the holidays observed on date, if any.
func (c *Calendar) Named(date time.Time) []string {
	key := dateKey(date)
	names := make([]string, 0)
	// Observed dates can move a holiday of the following year back into this one.
	for _, year := range []int{date.Year(), date.Year() + 1} {
		names = append(names, c.year(year)[key]...)
	}
	return names
}

// InYear lists the holidays observed during year, ordered by date.
func (c *Calendar) InYear(year int) []Holiday {
	list := make([]Holiday, 0)
	for _, source := range []int{year, year + 1} {
		for key, names := range c.year(source) {
			day, err := time.Parse(domain.DateLayout, key)
			if err != nil || day.Year() != year {
				continue
			}
			for _, name := range names {
				list = append(list, Holiday{Date: day, Name: name})
			}
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].Name < list[j].Name
	})
	return list
}

func (c *Calendar) year(year int) map[string][]string {
	c.mu.RLock()
	byDate, ok := c.years[year]
	c.mu.RUnlock()
	if ok {
		return byDate
	}

	byDate = map[string][]string{}
	for _, holiday := range c.rules {
		if _, observed := holiday.Calc(year); !observed.IsZero() {
			key := dateKey(observed)
			byDate[key] = append(byDate[key], holiday.Name)
		}
	}
	for _, holiday := range c.extra {
		_, observed := holiday.Calc(year)
		if observed.IsZero() {
			continue
		}
		if key := dateKey(observed); len(byDate[key]) == 0 {
			byDate[key] = []string{holiday.Name}
		}
	}

	c.mu.Lock()
	c.years[year] = byDate
	c.mu.Unlock()
	return byDate
}

// dateKey ignores clock and location so library and caller dates compare by day.
func dateKey(date time.Time) string {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC).Format(domain.DateLayout)
}
