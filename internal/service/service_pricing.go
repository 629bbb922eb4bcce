package service

import (
	"context"
	"time"

	"staffquote/internal/domain"
	"staffquote/internal/holidays"
)

func (s *Service) ProjectTimeline(ctx context.Context, projectID string) ([]domain.WeekDescriptor, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.projectWeeks(project)
}

func (s *Service) ProjectMonthlyHours(ctx context.Context, projectID string) ([]domain.MonthHours, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	start, err := project.Start()
	if err != nil {
		return nil, err
	}
	return s.calendar.BusinessHoursForPeriod(start, project.DurationMonths, s.hoursPerDay), nil
}

func (s *Service) ProjectPricing(ctx context.Context, projectID string) (domain.PricingSummary, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return domain.PricingSummary{}, err
	}
	allocations, err := s.repo.ListAllocations(ctx, projectID)
	if err != nil {
		return domain.PricingSummary{}, err
	}
	return domain.CalculatePricing(allocations, project.TaxRate), nil
}

// BillingTable lays the project out as one row per allocation and one column
// per calendar week, closed by the pricing summary.
func (s *Service) BillingTable(ctx context.Context, projectID string) (domain.BillingTable, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return domain.BillingTable{}, err
	}
	allocations, err := s.repo.ListAllocations(ctx, projectID)
	if err != nil {
		return domain.BillingTable{}, err
	}
	weeks, err := s.projectWeeks(project)
	if err != nil {
		return domain.BillingTable{}, err
	}

	table := domain.BillingTable{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Weeks:       make([]domain.BillingWeek, 0, len(weeks)),
		Rows:        make([]domain.BillingRow, 0, len(allocations)),
		Summary:     domain.CalculatePricing(allocations, project.TaxRate),
	}
	for _, week := range weeks {
		table.Weeks = append(table.Weeks, domain.BillingWeek{
			WeekNumber:     week.WeekNumber,
			WeekStart:      domain.FormatDate(week.WeekStart),
			WeekEnd:        domain.FormatDate(week.WeekEnd),
			AvailableHours: week.AvailableHours,
			Holidays:       s.holidayNames(week.Holidays),
		})
	}

	for _, allocation := range allocations {
		professional, err := s.repo.GetProfessional(ctx, allocation.ProfessionalID)
		if err != nil {
			return domain.BillingTable{}, err
		}
		hours := make([]float64, 0, len(weeks))
		for _, week := range weeks {
			row, _ := allocation.Week(week.WeekNumber)
			hours = append(hours, row.HoursAllocated)
		}
		cost, selling := domain.AllocationTotals(allocation)
		table.Rows = append(table.Rows, domain.BillingRow{
			AllocationID:      allocation.ID,
			ProfessionalID:    professional.ID,
			PID:               professional.PID,
			Name:              professional.Name,
			Role:              professional.Role,
			Level:             professional.Level,
			IsVacancy:         professional.IsVacancy,
			CostHourlyRate:    allocation.CostHourlyRate,
			SellingHourlyRate: allocation.SellingHourlyRate,
			Hours:             hours,
			TotalHours:        allocation.TotalHours(),
			TotalCost:         cost,
			TotalSelling:      selling,
		})
	}
	return table, nil
}

func (s *Service) ExportBillingTable(ctx context.Context, projectID, format string) ([]byte, string, error) {
	table, err := s.BillingTable(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	payload, contentType, err := s.importer.ExportBillingTable(ctx, table, format)
	if err != nil {
		return nil, "", err
	}

	s.telemetry.Record("billing.exported", map[string]string{"project_id": projectID, "format": format})
	return payload, contentType, nil
}

func (s *Service) holidayNames(dates []time.Time) []string {
	names := make([]string, 0, len(dates))
	for _, date := range dates {
		named := holidays.NamesOf(s.holidays, date)
		if len(named) == 0 {
			named = []string{domain.FormatDate(date)}
		}
		names = append(names, named...)
	}
	return names
}
