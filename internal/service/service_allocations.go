package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"staffquote/internal/domain"
	"staffquote/internal/ports"
)

func (s *Service) ListProjectAllocations(ctx context.Context, projectID string) ([]domain.Allocation, error) {
	return s.repo.ListAllocations(ctx, projectID)
}

// AddProfessional staffs a professional on a project at full availability.
// The cost rate is frozen from the professional's current hourly cost.
func (s *Service) AddProfessional(ctx context.Context, projectID, professionalID string, sellingRate *float64) (domain.Allocation, error) {
	if strings.TrimSpace(professionalID) == "" {
		return domain.Allocation{}, fmt.Errorf("professional is required: %w", domain.ErrValidation)
	}
	if err := validateSellingRate(sellingRate); err != nil {
		return domain.Allocation{}, err
	}

	var created domain.Allocation
	err := s.repo.WithinTransaction(ctx, func(tx ports.Repository) error {
		project, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		professional, err := tx.GetProfessional(ctx, professionalID)
		if err != nil {
			return err
		}
		staffed, err := staffedProfessionals(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if _, ok := staffed[professionalID]; ok {
			return fmt.Errorf("professional %s is already on project %s: %w", professionalID, projectID, domain.ErrConflict)
		}

		weeks, err := s.projectWeeks(project)
		if err != nil {
			return err
		}
		created, err = tx.CreateAllocation(ctx, domain.Allocation{
			ProjectID:         project.ID,
			ProfessionalID:    professional.ID,
			CostHourlyRate:    professional.HourlyCost,
			SellingHourlyRate: domain.DeriveSellingRate(professional.HourlyCost, project.MarginRate, sellingRate),
			Weeks:             seedWeeks(weeks, 100),
		})
		return err
	})
	if err != nil {
		return domain.Allocation{}, err
	}

	s.telemetry.Record("allocation.created", map[string]string{"allocation_id": created.ID, "project_id": projectID})
	return created, nil
}

func (s *Service) RemoveAllocation(ctx context.Context, projectID, allocationID string) error {
	if err := s.repo.DeleteAllocation(ctx, projectID, allocationID); err != nil {
		return err
	}

	s.telemetry.Record("allocation.deleted", map[string]string{"allocation_id": allocationID, "project_id": projectID})
	return nil
}

// UpdateAllocations applies updates as one unit of work: either every change
// is stored or none is. It returns the project's allocations afterwards.
func (s *Service) UpdateAllocations(ctx context.Context, projectID string, updates []domain.AllocationUpdate) ([]domain.Allocation, error) {
	for _, update := range updates {
		if err := validateSellingRate(update.SellingHourlyRate); err != nil {
			return nil, err
		}
		if update.HoursAllocated != nil && update.WeekNumber == nil {
			return nil, fmt.Errorf("hours for allocation %s need a week number: %w", update.AllocationID, domain.ErrValidation)
		}
	}

	var result []domain.Allocation
	err := s.repo.WithinTransaction(ctx, func(tx ports.Repository) error {
		allocations, err := tx.ListAllocations(ctx, projectID)
		if err != nil {
			return err
		}
		index := make(map[string]int, len(allocations))
		for i, allocation := range allocations {
			index[allocation.ID] = i
		}

		dirty := make(map[int]struct{})
		for _, update := range updates {
			position, ok := index[update.AllocationID]
			if !ok {
				return fmt.Errorf("allocation %s on project %s: %w", update.AllocationID, projectID, domain.ErrNotFound)
			}
			if err := applyAllocationUpdate(&allocations[position], update); err != nil {
				return err
			}
			dirty[position] = struct{}{}
		}

		for position := range allocations {
			if _, ok := dirty[position]; !ok {
				continue
			}
			saved, err := tx.UpdateAllocation(ctx, allocations[position])
			if err != nil {
				return err
			}
			allocations[position] = saved
		}
		result = allocations
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.telemetry.Record("allocations.updated", map[string]string{"project_id": projectID, "updates": strconv.Itoa(len(updates))})
	return result, nil
}

func applyAllocationUpdate(allocation *domain.Allocation, update domain.AllocationUpdate) error {
	if update.SellingHourlyRate != nil {
		allocation.SellingHourlyRate = *update.SellingHourlyRate
	}
	if update.WeekNumber == nil || update.HoursAllocated == nil {
		return nil
	}

	for i := range allocation.Weeks {
		week := &allocation.Weeks[i]
		if week.WeekNumber != *update.WeekNumber {
			continue
		}
		if err := validateWeekHours(*week, *update.HoursAllocated); err != nil {
			return err
		}
		week.HoursAllocated = *update.HoursAllocated
		return nil
	}
	return fmt.Errorf("allocation %s has no week %d: %w", allocation.ID, *update.WeekNumber, domain.ErrValidation)
}

func staffedProfessionals(ctx context.Context, tx ports.Repository, projectID string) (map[string]struct{}, error) {
	allocations, err := tx.ListAllocations(ctx, projectID)
	if err != nil {
		return nil, err
	}
	staffed := make(map[string]struct{}, len(allocations))
	for _, allocation := range allocations {
		staffed[allocation.ProfessionalID] = struct{}{}
	}
	return staffed, nil
}
