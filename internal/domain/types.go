package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

type Professional struct {
	ID         string    `json:"id"`
	PID        string    `json:"pid,omitempty"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Level      string    `json:"level"`
	IsVacancy  bool      `json:"is_vacancy"`
	HourlyCost float64   `json:"hourly_cost"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	StartDate      string    `json:"start_date"`
	DurationMonths int       `json:"duration_months"`
	TaxRate        float64   `json:"tax_rate"`
	MarginRate     float64   `json:"margin_rate"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Start returns the parsed start date at UTC midnight.
func (p Project) Start() (time.Time, error) {
	return ParseDate(p.StartDate)
}

// Allocation is one staffing line of a project. CostHourlyRate is frozen when
// the line is created and is never refreshed from the professional.
type Allocation struct {
	ID                string             `json:"id"`
	ProjectID         string             `json:"project_id"`
	ProfessionalID    string             `json:"professional_id"`
	CostHourlyRate    float64            `json:"cost_hourly_rate"`
	SellingHourlyRate float64            `json:"selling_hourly_rate"`
	Weeks             []WeeklyAllocation `json:"weeks"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type WeeklyAllocation struct {
	WeekNumber     int     `json:"week_number"`
	HoursAllocated float64 `json:"hours_allocated"`
	AvailableHours float64 `json:"available_hours"`
}

func (a Allocation) TotalHours() float64 {
	total := 0.0
	for _, week := range a.Weeks {
		total += week.HoursAllocated
	}
	return total
}

// Week returns the row for weekNumber, or false when the allocation has none.
func (a Allocation) Week(weekNumber int) (WeeklyAllocation, bool) {
	for _, week := range a.Weeks {
		if week.WeekNumber == weekNumber {
			return week, true
		}
	}
	return WeeklyAllocation{}, false
}

type Offer struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Items     []OfferItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type OfferItem struct {
	ProfessionalID       string  `json:"professional_id"`
	AllocationPercentage float64 `json:"allocation_percentage"`
}

type ProjectFilter struct {
	Search string
	Skip   int
	Limit  int
}

type ProjectPage struct {
	Items []Project `json:"items"`
	Total int       `json:"total"`
}

type ProfessionalPatch struct {
	PID        *string  `json:"pid,omitempty"`
	Name       *string  `json:"name,omitempty"`
	Role       *string  `json:"role,omitempty"`
	Level      *string  `json:"level,omitempty"`
	IsVacancy  *bool    `json:"is_vacancy,omitempty"`
	HourlyCost *float64 `json:"hourly_cost,omitempty"`
}

type ProjectInput struct {
	Name           string            `json:"name"`
	StartDate      string            `json:"start_date"`
	DurationMonths int               `json:"duration_months"`
	TaxRate        float64           `json:"tax_rate"`
	MarginRate     float64           `json:"margin_rate"`
	Allocations    []AllocationInput `json:"allocations,omitempty"`
	FromProjectID  string            `json:"from_project_id,omitempty"`
}

type AllocationInput struct {
	ProfessionalID    string   `json:"professional_id"`
	SellingHourlyRate *float64 `json:"selling_hourly_rate,omitempty"`
}

type ProjectPatch struct {
	Name           *string  `json:"name,omitempty"`
	StartDate      *string  `json:"start_date,omitempty"`
	DurationMonths *int     `json:"duration_months,omitempty"`
	TaxRate        *float64 `json:"tax_rate,omitempty"`
	MarginRate     *float64 `json:"margin_rate,omitempty"`
}

// AllocationUpdate changes the selling rate of a line, the hours of one of
// its weeks, or both.
type AllocationUpdate struct {
	AllocationID      string   `json:"allocation_id"`
	SellingHourlyRate *float64 `json:"selling_hourly_rate,omitempty"`
	WeekNumber        *int     `json:"week_number,omitempty"`
	HoursAllocated    *float64 `json:"hours_allocated,omitempty"`
}

type ApplyOfferResult struct {
	Added       []string `json:"added"`
	WeeksSeeded int      `json:"weeks_seeded"`
}

type ImportResult struct {
	Created      int      `json:"created"`
	Updated      int      `json:"updated"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"error_details"`
}

type BillingTable struct {
	ProjectID   string         `json:"project_id"`
	ProjectName string         `json:"project_name"`
	Weeks       []BillingWeek  `json:"weeks"`
	Rows        []BillingRow   `json:"rows"`
	Summary     PricingSummary `json:"summary"`
}

type BillingWeek struct {
	WeekNumber     int      `json:"week_number"`
	WeekStart      string   `json:"week_start"`
	WeekEnd        string   `json:"week_end"`
	AvailableHours float64  `json:"available_hours"`
	Holidays       []string `json:"holidays"`
}

// BillingRow holds one allocation; Hours is aligned with BillingTable.Weeks.
type BillingRow struct {
	AllocationID      string    `json:"allocation_id"`
	ProfessionalID    string    `json:"professional_id"`
	PID               string    `json:"pid"`
	Name              string    `json:"name"`
	Role              string    `json:"role"`
	Level             string    `json:"level"`
	IsVacancy         bool      `json:"is_vacancy"`
	CostHourlyRate    float64   `json:"cost_hourly_rate"`
	SellingHourlyRate float64   `json:"selling_hourly_rate"`
	Hours             []float64 `json:"hours"`
	TotalHours        float64   `json:"total_hours"`
	TotalCost         float64   `json:"total_cost"`
	TotalSelling      float64   `json:"total_selling"`
}

// ValidateDate returns value in canonical YYYY-MM-DD form.
func ValidateDate(value string) (string, error) {
	parsed, err := ParseDate(value)
	if err != nil {
		return "", err
	}

	return FormatDate(parsed), nil
}

// ParseDate parses a YYYY-MM-DD date. Any parse failure wraps ErrValidation.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, ErrValidation)
	}
	return parsed, nil
}

func FormatDate(value time.Time) string {
	return value.Format(DateLayout)
}

func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrValidation
	}

	return nil
}

func ValidatePercent(value float64) error {
	if value < 0 || value > 100 {
		return ErrValidation
	}

	return nil
}
