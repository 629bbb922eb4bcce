package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"staffquote/internal/domain"
	"staffquote/internal/ports"
)

func (s *Service) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	return s.repo.ListOffers(ctx)
}

func (s *Service) GetOffer(ctx context.Context, offerID string) (domain.Offer, error) {
	return s.repo.GetOffer(ctx, offerID)
}

func (s *Service) CreateOffer(ctx context.Context, input domain.Offer) (domain.Offer, error) {
	offer := domain.Offer{Name: strings.TrimSpace(input.Name), Items: normalizeOfferItems(input.Items)}
	if err := validateOffer(offer); err != nil {
		return domain.Offer{}, err
	}

	var created domain.Offer
	err := s.repo.WithinTransaction(ctx, func(tx ports.Repository) error {
		if err := requireProfessionals(ctx, tx, offer.Items); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateOffer(ctx, offer)
		return err
	})
	if err != nil {
		return domain.Offer{}, err
	}

	s.telemetry.Record("offer.created", map[string]string{"offer_id": created.ID})
	return created, nil
}

// UpdateOffer replaces the name and items of an offer.
func (s *Service) UpdateOffer(ctx context.Context, offerID string, input domain.Offer) (domain.Offer, error) {
	offer := domain.Offer{ID: offerID, Name: strings.TrimSpace(input.Name), Items: normalizeOfferItems(input.Items)}
	if err := validateOffer(offer); err != nil {
		return domain.Offer{}, err
	}

	var updated domain.Offer
	err := s.repo.WithinTransaction(ctx, func(tx ports.Repository) error {
		if err := requireProfessionals(ctx, tx, offer.Items); err != nil {
			return err
		}
		var err error
		updated, err = tx.UpdateOffer(ctx, offer)
		return err
	})
	if err != nil {
		return domain.Offer{}, err
	}

	s.telemetry.Record("offer.updated", map[string]string{"offer_id": updated.ID})
	return updated, nil
}

func (s *Service) DeleteOffer(ctx context.Context, offerID string) error {
	if err := s.repo.DeleteOffer(ctx, offerID); err != nil {
		return err
	}

	s.telemetry.Record("offer.deleted", map[string]string{"offer_id": offerID})
	return nil
}

func (s *Service) ListOfferItems(ctx context.Context, offerID string) ([]domain.OfferItem, error) {
	offer, err := s.repo.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Items == nil {
		return []domain.OfferItem{}, nil
	}
	return offer.Items, nil
}

// AddOfferItem appends a professional to an offer. A professional already on
// the offer is a conflict.
func (s *Service) AddOfferItem(ctx context.Context, offerID string, item domain.OfferItem) (domain.OfferItem, error) {
	item.ProfessionalID = strings.TrimSpace(item.ProfessionalID)
	return s.editOfferItems(ctx, offerID, "offer.item_added", item.ProfessionalID, func(items []domain.OfferItem) ([]domain.OfferItem, error) {
		if offerItemIndex(items, item.ProfessionalID) >= 0 {
			return nil, fmt.Errorf("professional %s is already on the offer: %w", item.ProfessionalID, domain.ErrConflict)
		}
		return append(items, item), nil
	})
}

// UpdateOfferItem changes the allocation percentage of one offer item.
func (s *Service) UpdateOfferItem(ctx context.Context, offerID, professionalID string, percentage float64) (domain.OfferItem, error) {
	return s.editOfferItems(ctx, offerID, "offer.item_updated", professionalID, func(items []domain.OfferItem) ([]domain.OfferItem, error) {
		idx := offerItemIndex(items, professionalID)
		if idx < 0 {
			return nil, fmt.Errorf("offer item %s: %w", professionalID, domain.ErrNotFound)
		}
		items[idx].AllocationPercentage = percentage
		return items, nil
	})
}

func (s *Service) RemoveOfferItem(ctx context.Context, offerID, professionalID string) error {
	_, err := s.editOfferItems(ctx, offerID, "offer.item_removed", professionalID, func(items []domain.OfferItem) ([]domain.OfferItem, error) {
		idx := offerItemIndex(items, professionalID)
		if idx < 0 {
			return nil, fmt.Errorf("offer item %s: %w", professionalID, domain.ErrNotFound)
		}
		return append(items[:idx], items[idx+1:]...), nil
	})
	return err
}

// editOfferItems rewrites the items of an offer in one unit of work and
// returns the item of professionalID as stored afterwards.
func (s *Service) editOfferItems(ctx context.Context, offerID, event, professionalID string, edit func([]domain.OfferItem) ([]domain.OfferItem, error)) (domain.OfferItem, error) {
	var result domain.OfferItem
	err := s.repo.WithinTransaction(ctx, func(tx ports.Repository) error {
		offer, err := tx.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		items, err := edit(append([]domain.OfferItem(nil), offer.Items...))
		if err != nil {
			return err
		}
		offer.Items = items
		if err := validateOffer(offer); err != nil {
			return err
		}
		if err := requireProfessionals(ctx, tx, offer.Items); err != nil {
			return err
		}
		updated, err := tx.UpdateOffer(ctx, offer)
		if err != nil {
			return err
		}
		if idx := offerItemIndex(updated.Items, professionalID); idx >= 0 {
			result = updated.Items[idx]
		}
		return nil
	})
	if err != nil {
		return domain.OfferItem{}, err
	}

	s.telemetry.Record(event, map[string]string{"offer_id": offerID, "professional_id": professionalID})
	return result, nil
}

func offerItemIndex(items []domain.OfferItem, professionalID string) int {
	for idx, item := range items {
		if item.ProfessionalID == professionalID {
			return idx
		}
	}
	return -1
}

// ApplyOffer staffs every professional of the offer that is not yet on the
// project, seeding each week with the item's share of the available hours.
func (s *Service) ApplyOffer(ctx context.Context, projectID, offerID string) (domain.ApplyOfferResult, error) {
	result := domain.ApplyOfferResult{Added: []string{}}
	err := s.repo.WithinTransaction(ctx, func(tx ports.Repository) error {
		project, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		offer, err := tx.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		staffed, err := staffedProfessionals(ctx, tx, projectID)
		if err != nil {
			return err
		}
		weeks, err := s.projectWeeks(project)
		if err != nil {
			return err
		}
		result.WeeksSeeded = len(weeks)

		for _, item := range offer.Items {
			if _, ok := staffed[item.ProfessionalID]; ok {
				continue
			}
			professional, err := tx.GetProfessional(ctx, item.ProfessionalID)
			if err != nil {
				return err
			}
			_, err = tx.CreateAllocation(ctx, domain.Allocation{
				ProjectID:         project.ID,
				ProfessionalID:    professional.ID,
				CostHourlyRate:    professional.HourlyCost,
				SellingHourlyRate: domain.DeriveSellingRate(professional.HourlyCost, project.MarginRate, nil),
				Weeks:             seedWeeks(weeks, item.AllocationPercentage),
			})
			if err != nil {
				return err
			}
			staffed[professional.ID] = struct{}{}
			result.Added = append(result.Added, professional.Name)
		}
		return nil
	})
	if err != nil {
		return domain.ApplyOfferResult{}, err
	}

	s.telemetry.Record("offer.applied", map[string]string{
		"offer_id":   offerID,
		"project_id": projectID,
		"added":      strconv.Itoa(len(result.Added)),
	})
	return result, nil
}

func normalizeOfferItems(items []domain.OfferItem) []domain.OfferItem {
	normalized := make([]domain.OfferItem, 0, len(items))
	for _, item := range items {
		item.ProfessionalID = strings.TrimSpace(item.ProfessionalID)
		normalized = append(normalized, item)
	}
	return normalized
}

func requireProfessionals(ctx context.Context, tx ports.Repository, items []domain.OfferItem) error {
	for _, item := range items {
		if _, err := tx.GetProfessional(ctx, item.ProfessionalID); err != nil {
			return err
		}
	}
	return nil
}
