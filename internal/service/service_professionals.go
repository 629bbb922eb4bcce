package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"staffquote/internal/domain"
	"staffquote/internal/ports"
)

func (s *Service) ListProfessionals(ctx context.Context) ([]domain.Professional, error) {
	return s.repo.ListProfessionals(ctx)
}

func (s *Service) GetProfessional(ctx context.Context, professionalID string) (domain.Professional, error) {
	return s.repo.GetProfessional(ctx, professionalID)
}

func (s *Service) CreateProfessional(ctx context.Context, input domain.Professional) (domain.Professional, error) {
	input = normalizeProfessional(input)
	if err := validateProfessional(input); err != nil {
		return domain.Professional{}, err
	}

	created, err := s.repo.CreateProfessional(ctx, domain.Professional{
		PID:        input.PID,
		Name:       input.Name,
		Role:       input.Role,
		Level:      input.Level,
		IsVacancy:  input.IsVacancy,
		HourlyCost: input.HourlyCost,
	})
	if err != nil {
		return domain.Professional{}, err
	}

	s.telemetry.Record("professional.created", map[string]string{"professional_id": created.ID})
	return created, nil
}

// UpdateProfessional applies patch to the professional. Allocations already
// holding this professional keep their frozen cost rate.
func (s *Service) UpdateProfessional(ctx context.Context, professionalID string, patch domain.ProfessionalPatch) (domain.Professional, error) {
	professional, err := s.repo.GetProfessional(ctx, professionalID)
	if err != nil {
		return domain.Professional{}, err
	}

	if patch.PID != nil {
		professional.PID = *patch.PID
	}
	if patch.Name != nil {
		professional.Name = *patch.Name
	}
	if patch.Role != nil {
		professional.Role = *patch.Role
	}
	if patch.Level != nil {
		professional.Level = *patch.Level
	}
	if patch.IsVacancy != nil {
		professional.IsVacancy = *patch.IsVacancy
	}
	if patch.HourlyCost != nil {
		professional.HourlyCost = *patch.HourlyCost
	}

	professional = normalizeProfessional(professional)
	if err := validateProfessional(professional); err != nil {
		return domain.Professional{}, err
	}

	updated, err := s.repo.UpdateProfessional(ctx, professional)
	if err != nil {
		return domain.Professional{}, err
	}

	s.telemetry.Record("professional.updated", map[string]string{"professional_id": updated.ID})
	return updated, nil
}

func (s *Service) DeleteProfessional(ctx context.Context, professionalID string) error {
	count, err := s.repo.CountAllocationsByProfessional(ctx, professionalID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("professional %s is staffed on %d project line(s): %w", professionalID, count, domain.ErrConflict)
	}

	if err := s.repo.DeleteProfessional(ctx, professionalID); err != nil {
		return err
	}

	s.telemetry.Record("professional.deleted", map[string]string{"professional_id": professionalID})
	return nil
}

// ImportProfessionals upserts the professionals of a CSV document, matching
// existing records by case-insensitive name. Rows that cannot be parsed or
// validated are counted and reported without aborting the import.
func (s *Service) ImportProfessionals(ctx context.Context, raw []byte) (domain.ImportResult, error) {
	parsed, rowErrors, err := s.importer.ImportProfessionals(ctx, raw)
	if err != nil {
		return domain.ImportResult{}, err
	}

	result := domain.ImportResult{ErrorDetails: append([]string{}, rowErrors...)}
	err = s.repo.WithinTransaction(ctx, func(tx ports.Repository) error {
		existing, err := tx.ListProfessionals(ctx)
		if err != nil {
			return err
		}
		byName := make(map[string]domain.Professional, len(existing))
		for _, professional := range existing {
			byName[strings.ToLower(professional.Name)] = professional
		}

		for index, candidate := range parsed {
			candidate = normalizeProfessional(candidate)
			if err := validateProfessional(candidate); err != nil {
				result.ErrorDetails = append(result.ErrorDetails, "record "+strconv.Itoa(index+1)+": "+strings.TrimSuffix(err.Error(), ": "+domain.ErrValidation.Error()))
				continue
			}

			key := strings.ToLower(candidate.Name)
			if current, ok := byName[key]; ok {
				current.Role = candidate.Role
				current.Level = candidate.Level
				current.IsVacancy = candidate.IsVacancy
				current.HourlyCost = candidate.HourlyCost
				if candidate.PID != "" {
					current.PID = candidate.PID
				}
				updated, err := tx.UpdateProfessional(ctx, current)
				if err != nil {
					return err
				}
				byName[key] = updated
				result.Updated++
				continue
			}

			created, err := tx.CreateProfessional(ctx, candidate)
			if err != nil {
				return err
			}
			byName[key] = created
			result.Created++
		}
		return nil
	})
	if err != nil {
		return domain.ImportResult{}, err
	}

	result.Errors = len(result.ErrorDetails)
	s.telemetry.Record("professionals.imported", map[string]string{
		"created": strconv.Itoa(result.Created),
		"updated": strconv.Itoa(result.Updated),
		"errors":  strconv.Itoa(result.Errors),
	})
	return result, nil
}
