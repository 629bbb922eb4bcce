package persistence

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffquote/internal/domain"
	"staffquote/internal/ports"
)

type repositoryFactory struct {
	name string
	open func(t *testing.T) ports.Repository
}

func repositoryFactories() []repositoryFactory {
	return []repositoryFactory{
		{
			name: "file",
			open: func(t *testing.T) ports.Repository {
				t.Helper()
				repo, err := NewFileRepository(filepath.Join(t.TempDir(), "repo.json"))
				require.NoError(t, err)
				return repo
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) ports.Repository {
				t.Helper()
				repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "repo.db"))
				require.NoError(t, err)
				t.Cleanup(func() { _ = repo.Close() })
				return repo
			},
		},
	}
}

func forEachRepository(t *testing.T, run func(t *testing.T, repo ports.Repository)) {
	for _, factory := range repositoryFactories() {
		t.Run(factory.name, func(t *testing.T) {
			run(t, factory.open(t))
		})
	}
}

func seedProfessional(t *testing.T, repo ports.Repository, name string, cost float64) domain.Professional {
	t.Helper()
	professional, err := repo.CreateProfessional(context.Background(), domain.Professional{
		Name: name, Role: "Engineer", Level: "Senior", HourlyCost: cost,
	})
	require.NoError(t, err)
	return professional
}

func seedProject(t *testing.T, repo ports.Repository, name string) domain.Project {
	t.Helper()
	project, err := repo.CreateProject(context.Background(), domain.Project{
		Name: name, StartDate: "2025-01-01", DurationMonths: 1, TaxRate: 10, MarginRate: 20,
	})
	require.NoError(t, err)
	return project
}

func TestRepositoryProfessionalCRUD(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo ports.Repository) {
		ctx := context.Background()

		bob := seedProfessional(t, repo, "Bob", 90)
		alice := seedProfessional(t, repo, "Alice", 120)
		assert.NotEmpty(t, alice.ID)
		assert.False(t, alice.CreatedAt.IsZero())

		list, err := repo.ListProfessionals(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Alice", list[0].Name)
		assert.Equal(t, "Bob", list[1].Name)

		bob.HourlyCost = 95
		bob.IsVacancy = true
		updated, err := repo.UpdateProfessional(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, 95.0, updated.HourlyCost)

		read, err := repo.GetProfessional(ctx, bob.ID)
		require.NoError(t, err)
		assert.True(t, read.IsVacancy)
		assert.Equal(t, 95.0, read.HourlyCost)

		require.NoError(t, repo.DeleteProfessional(ctx, bob.ID))
		_, err = repo.GetProfessional(ctx, bob.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteProfessional(ctx, bob.ID), domain.ErrNotFound)

		_, err = repo.UpdateProfessional(ctx, domain.Professional{ID: "missing", Name: "Ghost"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRepositoryProjectSearchAndPagination(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo ports.Repository) {
		ctx := context.Background()
		for _, name := range []string{"delta migration", "Alpha portal", "beta Portal", "Gamma"} {
			seedProject(t, repo, name)
		}

		all, err := repo.ListProjects(ctx, domain.ProjectFilter{})
		require.NoError(t, err)
		assert.Equal(t, 4, all.Total)
		require.Len(t, all.Items, 4)
		assert.Equal(t, "Alpha portal", all.Items[0].Name)
		assert.Equal(t, "delta migration", all.Items[2].Name)

		portals, err := repo.ListProjects(ctx, domain.ProjectFilter{Search: "PORTAL"})
		require.NoError(t, err)
		assert.Equal(t, 2, portals.Total)
		require.Len(t, portals.Items, 2)
		assert.Equal(t, "beta Portal", portals.Items[1].Name)

		page, err := repo.ListProjects(ctx, domain.ProjectFilter{Skip: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 4, page.Total)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "beta Portal", page.Items[0].Name)
		assert.Equal(t, "delta migration", page.Items[1].Name)

		beyond, err := repo.ListProjects(ctx, domain.ProjectFilter{Skip: 10, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, 4, beyond.Total)
		assert.Empty(t, beyond.Items)
	})
}

func TestRepositoryAllocationLifecycle(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo ports.Repository) {
		ctx := context.Background()
		professional := seedProfessional(t, repo, "Carla", 100)
		project := seedProject(t, repo, "Atlas")

		created, err := repo.CreateAllocation(ctx, domain.Allocation{
			ProjectID:         project.ID,
			ProfessionalID:    professional.ID,
			CostHourlyRate:    100,
			SellingHourlyRate: 125,
			Weeks: []domain.WeeklyAllocation{
				{WeekNumber: 1, HoursAllocated: 32, AvailableHours: 32},
				{WeekNumber: 2, HoursAllocated: 40, AvailableHours: 40},
			},
		})
		require.NoError(t, err)
		require.Len(t, created.Weeks, 2)

		created.CostHourlyRate = 1
		created.SellingHourlyRate = 150
		created.Weeks[1].HoursAllocated = 20
		updated, err := repo.UpdateAllocation(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, 100.0, updated.CostHourlyRate, "cost rate stays frozen")
		assert.Equal(t, 150.0, updated.SellingHourlyRate)

		read, err := repo.GetAllocation(ctx, project.ID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 100.0, read.CostHourlyRate)
		assert.Equal(t, []domain.WeeklyAllocation{
			{WeekNumber: 1, HoursAllocated: 32, AvailableHours: 32},
			{WeekNumber: 2, HoursAllocated: 20, AvailableHours: 40},
		}, read.Weeks)

		_, err = repo.GetAllocation(ctx, "other-project", created.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		count, err := repo.CountAllocationsByProfessional(ctx, professional.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		assert.ErrorIs(t, repo.DeleteProfessional(ctx, professional.ID), domain.ErrConflict)

		require.NoError(t, repo.DeleteAllocation(ctx, project.ID, created.ID))
		allocations, err := repo.ListAllocations(ctx, project.ID)
		require.NoError(t, err)
		assert.Empty(t, allocations)
		assert.ErrorIs(t, repo.DeleteAllocation(ctx, project.ID, created.ID), domain.ErrNotFound)
	})
}

func TestRepositoryAllocationsKeepInsertionOrder(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo ports.Repository) {
		ctx := context.Background()
		project := seedProject(t, repo, "Ordering")

		expected := make([]string, 0)
		for idx := 0; idx < 12; idx++ {
			professional := seedProfessional(t, repo, fmt.Sprintf("Person %02d", 12-idx), 50)
			created, err := repo.CreateAllocation(ctx, domain.Allocation{
				ProjectID: project.ID, ProfessionalID: professional.ID, CostHourlyRate: 50, SellingHourlyRate: 60,
			})
			require.NoError(t, err)
			expected = append(expected, created.ID)
		}

		allocations, err := repo.ListAllocations(ctx, project.ID)
		require.NoError(t, err)
		actual := make([]string, 0, len(allocations))
		for _, allocation := range allocations {
			actual = append(actual, allocation.ID)
		}
		assert.Equal(t, expected, actual)
	})
}

func TestRepositoryAllocationRequiresExistingParents(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo ports.Repository) {
		ctx := context.Background()
		project := seedProject(t, repo, "Parents")
		professional := seedProfessional(t, repo, "Dana", 70)

		_, err := repo.CreateAllocation(ctx, domain.Allocation{ProjectID: "missing", ProfessionalID: professional.ID})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.CreateAllocation(ctx, domain.Allocation{ProjectID: project.ID, ProfessionalID: "missing"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.ListAllocations(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRepositoryDeleteProjectCascades(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo ports.Repository) {
		ctx := context.Background()
		professional := seedProfessional(t, repo, "Eve", 80)
		project := seedProject(t, repo, "Cascade")
		_, err := repo.CreateAllocation(ctx, domain.Allocation{
			ProjectID: project.ID, ProfessionalID: professional.ID, CostHourlyRate: 80, SellingHourlyRate: 100,
			Weeks: []domain.WeeklyAllocation{{WeekNumber: 1, HoursAllocated: 8, AvailableHours: 40}},
		})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteProject(ctx, project.ID))

		_, err = repo.GetProject(ctx, project.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		count, err := repo.CountAllocationsByProfessional(ctx, professional.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
		require.NoError(t, repo.DeleteProfessional(ctx, professional.ID))
		assert.ErrorIs(t, repo.DeleteProject(ctx, project.ID), domain.ErrNotFound)
	})
}

func TestRepositoryOffers(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo ports.Repository) {
		ctx := context.Background()
		frank := seedProfessional(t, repo, "Frank", 60)
		gina := seedProfessional(t, repo, "Gina", 75)

		offer, err := repo.CreateOffer(ctx, domain.Offer{
			Name: "Squad",
			Items: []domain.OfferItem{
				{ProfessionalID: frank.ID, AllocationPercentage: 100},
				{ProfessionalID: gina.ID, AllocationPercentage: 50},
			},
		})
		require.NoError(t, err)
		require.Len(t, offer.Items, 2)

		_, err = repo.CreateOffer(ctx, domain.Offer{Name: "Squad"})
		assert.ErrorIs(t, err, domain.ErrConflict)

		offer.Name = "Squad v2"
		offer.Items = offer.Items[:1]
		updated, err := repo.UpdateOffer(ctx, offer)
		require.NoError(t, err)
		assert.Equal(t, "Squad v2", updated.Name)
		assert.Len(t, updated.Items, 1)

		require.NoError(t, repo.DeleteProfessional(ctx, frank.ID))
		read, err := repo.GetOffer(ctx, offer.ID)
		require.NoError(t, err)
		assert.Empty(t, read.Items, "items of deleted professionals are dropped")

		offers, err := repo.ListOffers(ctx)
		require.NoError(t, err)
		assert.Len(t, offers, 1)

		require.NoError(t, repo.DeleteOffer(ctx, offer.ID))
		_, err = repo.GetOffer(ctx, offer.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteOffer(ctx, offer.ID), domain.ErrNotFound)
	})
}

func TestRepositoryTransactionCommitsAndRollsBack(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo ports.Repository) {
		ctx := context.Background()

		err := repo.WithinTransaction(ctx, func(tx ports.Repository) error {
			if _, err := tx.CreateProfessional(ctx, domain.Professional{Name: "Committed"}); err != nil {
				return err
			}
			_, err := tx.CreateProject(ctx, domain.Project{Name: "Committed", StartDate: "2025-01-01", DurationMonths: 1})
			return err
		})
		require.NoError(t, err)

		boom := errors.New("boom")
		err = repo.WithinTransaction(ctx, func(tx ports.Repository) error {
			if _, err := tx.CreateProfessional(ctx, domain.Professional{Name: "Discarded"}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		err = repo.WithinTransaction(ctx, func(tx ports.Repository) error {
			if _, err := tx.CreateProfessional(ctx, domain.Professional{Name: "Panicked"}); err != nil {
				return err
			}
			panic("unexpected")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic in transaction")

		professionals, err := repo.ListProfessionals(ctx)
		require.NoError(t, err)
		require.Len(t, professionals, 1)
		assert.Equal(t, "Committed", professionals[0].Name)
	})
}

func TestRepositoryNestedTransactionJoinsOuter(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo ports.Repository) {
		ctx := context.Background()
		boom := errors.New("boom")

		err := repo.WithinTransaction(ctx, func(tx ports.Repository) error {
			innerErr := tx.WithinTransaction(ctx, func(inner ports.Repository) error {
				_, err := inner.CreateProfessional(ctx, domain.Professional{Name: "Inner"})
				return err
			})
			if innerErr != nil {
				return innerErr
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		professionals, err := repo.ListProfessionals(ctx)
		require.NoError(t, err)
		assert.Empty(t, professionals)
	})
}
