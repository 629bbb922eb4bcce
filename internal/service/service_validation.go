package service

import (
	"fmt"
	"math"
	"strings"

	"staffquote/internal/domain"
)

const (
	defaultPageLimit  = 100
	maxPageLimit      = 1000
	maxDurationMonths = 120
	minHolidayYear    = 1900
	maxHolidayYear    = 2200
)

func finite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

func normalizeProfessional(professional domain.Professional) domain.Professional {
	professional.PID = strings.TrimSpace(professional.PID)
	professional.Name = strings.TrimSpace(professional.Name)
	professional.Role = strings.TrimSpace(professional.Role)
	professional.Level = strings.TrimSpace(professional.Level)
	return professional
}

func validateProfessional(professional domain.Professional) error {
	if err := domain.ValidateName(professional.Name); err != nil {
		return fmt.Errorf("professional name is required: %w", domain.ErrValidation)
	}
	if !finite(professional.HourlyCost) || professional.HourlyCost < 0 {
		return fmt.Errorf("hourly cost must be a non-negative number: %w", domain.ErrValidation)
	}
	return nil
}

func validateProject(project domain.Project) error {
	if err := domain.ValidateName(project.Name); err != nil {
		return fmt.Errorf("project name is required: %w", domain.ErrValidation)
	}
	if _, err := domain.ValidateDate(project.StartDate); err != nil {
		return err
	}
	if project.DurationMonths < 1 || project.DurationMonths > maxDurationMonths {
		return fmt.Errorf("duration must be between 1 and %d months: %w", maxDurationMonths, domain.ErrValidation)
	}
	if !finite(project.TaxRate) || domain.ValidatePercent(project.TaxRate) != nil {
		return fmt.Errorf("tax rate must be between 0 and 100: %w", domain.ErrValidation)
	}
	if !finite(project.MarginRate) || domain.ValidatePercent(project.MarginRate) != nil {
		return fmt.Errorf("margin rate must be between 0 and 100: %w", domain.ErrValidation)
	}
	return nil
}

func validateSellingRate(rate *float64) error {
	if rate == nil {
		return nil
	}
	if !finite(*rate) || *rate < 0 {
		return fmt.Errorf("selling rate must be a non-negative number: %w", domain.ErrValidation)
	}
	return nil
}

func validateOffer(offer domain.Offer) error {
	if err := domain.ValidateName(offer.Name); err != nil {
		return fmt.Errorf("offer name is required: %w", domain.ErrValidation)
	}
	seen := make(map[string]struct{}, len(offer.Items))
	for _, item := range offer.Items {
		if strings.TrimSpace(item.ProfessionalID) == "" {
			return fmt.Errorf("offer item needs a professional: %w", domain.ErrValidation)
		}
		if _, dup := seen[item.ProfessionalID]; dup {
			return fmt.Errorf("professional %s is listed twice: %w", item.ProfessionalID, domain.ErrValidation)
		}
		seen[item.ProfessionalID] = struct{}{}
		if !finite(item.AllocationPercentage) || item.AllocationPercentage <= 0 || item.AllocationPercentage > 100 {
			return fmt.Errorf("allocation percentage must be in (0, 100]: %w", domain.ErrValidation)
		}
	}
	return nil
}

// validateWeekHours rejects hours outside [0, available] for one week row.
func validateWeekHours(week domain.WeeklyAllocation, hours float64) error {
	if !finite(hours) || hours < 0 {
		return fmt.Errorf("hours for week %d must be a non-negative number: %w", week.WeekNumber, domain.ErrValidation)
	}
	if hours > week.AvailableHours {
		return fmt.Errorf("%.2f hours exceed the %.2f available in week %d: %w",
			hours, week.AvailableHours, week.WeekNumber, domain.ErrValidation)
	}
	return nil
}

func normalizeFilter(filter domain.ProjectFilter) (domain.ProjectFilter, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Skip < 0 || filter.Limit < 0 {
		return domain.ProjectFilter{}, fmt.Errorf("skip and limit must not be negative: %w", domain.ErrValidation)
	}
	if filter.Limit == 0 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	return filter, nil
}
