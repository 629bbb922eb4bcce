package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffquote/internal/domain"
)

func TestSQLiteRepositoryReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "staffquote.db")

	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	professional := seedProfessional(t, repo, "Kai", 85)
	project := seedProject(t, repo, "Persisted")
	allocation, err := repo.CreateAllocation(ctx, domain.Allocation{
		ProjectID: project.ID, ProfessionalID: professional.ID, CostHourlyRate: 85, SellingHourlyRate: 106.25,
		Weeks: []domain.WeeklyAllocation{
			{WeekNumber: 2, HoursAllocated: 40, AvailableHours: 40},
			{WeekNumber: 1, HoursAllocated: 24, AvailableHours: 32},
		},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	allocations, err := reopened.ListAllocations(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Equal(t, allocation.ID, allocations[0].ID)
	assert.Equal(t, 106.25, allocations[0].SellingHourlyRate)
	assert.Equal(t, []domain.WeeklyAllocation{
		{WeekNumber: 1, HoursAllocated: 24, AvailableHours: 32},
		{WeekNumber: 2, HoursAllocated: 40, AvailableHours: 40},
	}, allocations[0].Weeks, "weeks come back ordered by week number")
}

func TestSQLiteRepositoryRejectsDuplicateWeekRows(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "dupes.db"))
	require.NoError(t, err)
	defer repo.Close()

	professional := seedProfessional(t, repo, "Lea", 60)
	project := seedProject(t, repo, "Dupes")
	_, err = repo.CreateAllocation(ctx, domain.Allocation{
		ProjectID: project.ID, ProfessionalID: professional.ID,
		Weeks: []domain.WeeklyAllocation{{WeekNumber: 1}, {WeekNumber: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	allocations, err := repo.ListAllocations(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, allocations, "failed insert leaves no partial allocation")
}

func TestBuildConnectionString(t *testing.T) {
	plain := buildConnectionString("/tmp/x.db")
	assert.Contains(t, plain, "/tmp/x.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, plain, "_pragma=foreign_keys(1)")

	withQuery := buildConnectionString("file:test.db?mode=memory")
	assert.Contains(t, withQuery, "mode=memory&_pragma=journal_mode(WAL)")
}
