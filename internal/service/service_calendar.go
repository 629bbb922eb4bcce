package service

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"staffquote/internal/domain"
	"staffquote/internal/holidays"
	"staffquote/internal/ports"
)

func (s *Service) projectWeeks(project domain.Project) ([]domain.WeekDescriptor, error) {
	start, err := project.Start()
	if err != nil {
		return nil, err
	}
	return s.calendar.WeeklyBreakdown(start, project.DurationMonths, s.hoursPerDay), nil
}

// WeeklyBreakdown exposes the business-calendar weeks for an arbitrary period.
// A non-positive hoursPerDay falls back to the configured day length.
func (s *Service) WeeklyBreakdown(startDate string, durationMonths int, hoursPerDay float64) ([]domain.WeekDescriptor, error) {
	start, err := domain.ParseDate(startDate)
	if err != nil {
		return nil, err
	}
	if durationMonths > maxDurationMonths {
		return nil, fmt.Errorf("duration must not exceed %d months: %w", maxDurationMonths, domain.ErrValidation)
	}
	if !finite(hoursPerDay) || hoursPerDay > 24 {
		return nil, fmt.Errorf("hours per day must be at most 24: %w", domain.ErrValidation)
	}
	if hoursPerDay <= 0 {
		hoursPerDay = s.hoursPerDay
	}
	return s.calendar.WeeklyBreakdown(start, durationMonths, hoursPerDay), nil
}

// Holidays lists the configured holidays observed in year. Holiday sets that
// cannot enumerate themselves yield an empty list.
func (s *Service) Holidays(year int) ([]holidays.Holiday, error) {
	if year < minHolidayYear || year > maxHolidayYear {
		return nil, fmt.Errorf("year must be between %d and %d: %w", minHolidayYear, maxHolidayYear, domain.ErrValidation)
	}
	lister, ok := s.holidays.(holidays.Lister)
	if !ok {
		return []holidays.Holiday{}, nil
	}
	return lister.InYear(year), nil
}

// emptyWeeks builds zero-hour rows for every project week.
func emptyWeeks(weeks []domain.WeekDescriptor) []domain.WeeklyAllocation {
	return seedWeeks(weeks, 0)
}

// seedWeeks fills each week with percentage of its available hours. Rounding
// never lifts a row above the week's availability.
func seedWeeks(weeks []domain.WeekDescriptor, percentage float64) []domain.WeeklyAllocation {
	rows := make([]domain.WeeklyAllocation, 0, len(weeks))
	for _, week := range weeks {
		rows = append(rows, domain.WeeklyAllocation{
			WeekNumber:     week.WeekNumber,
			HoursAllocated: math.Min(roundHours(week.AvailableHours*percentage/100), week.AvailableHours),
			AvailableHours: week.AvailableHours,
		})
	}
	return rows
}

// syncWeeks lines existing rows up with weeks: surviving week numbers keep
// their hours (capped at the refreshed availability), rows past the last
// week are dropped and new weeks start at zero.
func syncWeeks(existing []domain.WeeklyAllocation, weeks []domain.WeekDescriptor) []domain.WeeklyAllocation {
	byNumber := make(map[int]domain.WeeklyAllocation, len(existing))
	for _, row := range existing {
		byNumber[row.WeekNumber] = row
	}

	rows := make([]domain.WeeklyAllocation, 0, len(weeks))
	for _, week := range weeks {
		hours := 0.0
		if row, ok := byNumber[week.WeekNumber]; ok {
			hours = math.Min(row.HoursAllocated, week.AvailableHours)
		}
		rows = append(rows, domain.WeeklyAllocation{
			WeekNumber:     week.WeekNumber,
			HoursAllocated: hours,
			AvailableHours: week.AvailableHours,
		})
	}
	return rows
}

func sameWeeks(a, b []domain.WeeklyAllocation) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func roundHours(hours float64) float64 {
	return math.Round(hours*100) / 100
}

// resyncProject rewrites the week rows of every allocation of project and
// reports how many allocations changed.
func (s *Service) resyncProject(ctx context.Context, tx ports.Repository, project domain.Project) (int, error) {
	weeks, err := s.projectWeeks(project)
	if err != nil {
		return 0, err
	}
	allocations, err := tx.ListAllocations(ctx, project.ID)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, allocation := range allocations {
		synced := syncWeeks(allocation.Weeks, weeks)
		if sameWeeks(allocation.Weeks, synced) {
			continue
		}
		allocation.Weeks = synced
		if _, err := tx.UpdateAllocation(ctx, allocation); err != nil {
			return 0, err
		}
		changed++
	}
	return changed, nil
}

// ResyncCalendars refreshes the available hours of every project's week rows
// against the current holiday calendar. Each project is synced in its own
// unit of work; the first failure stops the run.
func (s *Service) ResyncCalendars(ctx context.Context) (int, error) {
	projects := make([]domain.Project, 0)
	for skip := 0; ; skip += maxPageLimit {
		page, err := s.repo.ListProjects(ctx, domain.ProjectFilter{Skip: skip, Limit: maxPageLimit})
		if err != nil {
			return 0, err
		}
		projects = append(projects, page.Items...)
		if len(page.Items) < maxPageLimit {
			break
		}
	}

	changed := 0
	for _, project := range projects {
		err := s.repo.WithinTransaction(ctx, func(tx ports.Repository) error {
			count, err := s.resyncProject(ctx, tx, project)
			changed += count
			return err
		})
		if err != nil {
			return changed, fmt.Errorf("resync project %s: %w", project.ID, err)
		}
	}

	s.telemetry.Record("calendar.resynced", map[string]string{
		"projects":    strconv.Itoa(len(projects)),
		"allocations": strconv.Itoa(changed),
	})
	return changed, nil
}
