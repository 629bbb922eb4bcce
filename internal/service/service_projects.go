package service

import (
	"context"
	"fmt"
	"strings"

	"staffquote/internal/domain"
	"staffquote/internal/ports"
)

func (s *Service) ListProjects(ctx context.Context, filter domain.ProjectFilter) (domain.ProjectPage, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return domain.ProjectPage{}, err
	}
	return s.repo.ListProjects(ctx, filter)
}

func (s *Service) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	return s.repo.GetProject(ctx, projectID)
}

// CreateProject stores a project and its initial staffing. Lines come either
// from input.Allocations, seeded at zero hours, or from a copy of another
// project's lines when FromProjectID is set.
func (s *Service) CreateProject(ctx context.Context, input domain.ProjectInput) (domain.Project, error) {
	project := domain.Project{
		Name:           strings.TrimSpace(input.Name),
		StartDate:      strings.TrimSpace(input.StartDate),
		DurationMonths: input.DurationMonths,
		TaxRate:        input.TaxRate,
		MarginRate:     input.MarginRate,
	}
	if err := validateProject(project); err != nil {
		return domain.Project{}, err
	}
	fromProjectID := strings.TrimSpace(input.FromProjectID)
	if fromProjectID != "" && len(input.Allocations) > 0 {
		return domain.Project{}, fmt.Errorf("a project is either cloned or staffed explicitly, not both: %w", domain.ErrValidation)
	}
	seen := make(map[string]struct{}, len(input.Allocations))
	for _, line := range input.Allocations {
		if err := validateSellingRate(line.SellingHourlyRate); err != nil {
			return domain.Project{}, err
		}
		if _, dup := seen[line.ProfessionalID]; dup {
			return domain.Project{}, fmt.Errorf("professional %s is listed twice: %w", line.ProfessionalID, domain.ErrValidation)
		}
		seen[line.ProfessionalID] = struct{}{}
	}

	weeks, err := s.projectWeeks(project)
	if err != nil {
		return domain.Project{}, err
	}

	var created domain.Project
	err = s.repo.WithinTransaction(ctx, func(tx ports.Repository) error {
		var err error
		created, err = tx.CreateProject(ctx, project)
		if err != nil {
			return err
		}

		if fromProjectID != "" {
			return cloneAllocations(ctx, tx, fromProjectID, created.ID, weeks)
		}
		for _, line := range input.Allocations {
			professional, err := tx.GetProfessional(ctx, line.ProfessionalID)
			if err != nil {
				return err
			}
			_, err = tx.CreateAllocation(ctx, domain.Allocation{
				ProjectID:         created.ID,
				ProfessionalID:    professional.ID,
				CostHourlyRate:    professional.HourlyCost,
				SellingHourlyRate: domain.DeriveSellingRate(professional.HourlyCost, created.MarginRate, line.SellingHourlyRate),
				Weeks:             emptyWeeks(weeks),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Project{}, err
	}

	attributes := map[string]string{"project_id": created.ID}
	if fromProjectID != "" {
		attributes["from_project_id"] = fromProjectID
	}
	s.telemetry.Record("project.created", attributes)
	return created, nil
}

// cloneAllocations copies the lines of source onto target with their frozen
// rates and the hours of every week number both projects share.
func cloneAllocations(ctx context.Context, tx ports.Repository, sourceID, targetID string, weeks []domain.WeekDescriptor) error {
	source, err := tx.ListAllocations(ctx, sourceID)
	if err != nil {
		return err
	}
	for _, allocation := range source {
		_, err := tx.CreateAllocation(ctx, domain.Allocation{
			ProjectID:         targetID,
			ProfessionalID:    allocation.ProfessionalID,
			CostHourlyRate:    allocation.CostHourlyRate,
			SellingHourlyRate: allocation.SellingHourlyRate,
			Weeks:             syncWeeks(allocation.Weeks, weeks),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateProject applies patch. Moving the start date or changing the
// duration re-syncs the week rows of every allocation in the same unit of
// work. A changed margin does not reprice existing lines.
func (s *Service) UpdateProject(ctx context.Context, projectID string, patch domain.ProjectPatch) (domain.Project, error) {
	var updated domain.Project
	err := s.repo.WithinTransaction(ctx, func(tx ports.Repository) error {
		project, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		previousStart, previousDuration := project.StartDate, project.DurationMonths

		if patch.Name != nil {
			project.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.StartDate != nil {
			project.StartDate = strings.TrimSpace(*patch.StartDate)
		}
		if patch.DurationMonths != nil {
			project.DurationMonths = *patch.DurationMonths
		}
		if patch.TaxRate != nil {
			project.TaxRate = *patch.TaxRate
		}
		if patch.MarginRate != nil {
			project.MarginRate = *patch.MarginRate
		}
		if err := validateProject(project); err != nil {
			return err
		}

		updated, err = tx.UpdateProject(ctx, project)
		if err != nil {
			return err
		}

		if updated.StartDate == previousStart && updated.DurationMonths == previousDuration {
			return nil
		}
		_, err = s.resyncProject(ctx, tx, updated)
		return err
	})
	if err != nil {
		return domain.Project{}, err
	}

	s.telemetry.Record("project.updated", map[string]string{"project_id": updated.ID})
	return updated, nil
}

func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	if err := s.repo.DeleteProject(ctx, projectID); err != nil {
		return err
	}

	s.telemetry.Record("project.deleted", map[string]string{"project_id": projectID})
	return nil
}
