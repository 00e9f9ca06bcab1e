package projects

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/greenfolio/internal/domain"
	testingpkg "github.com/aristath/greenfolio/internal/testing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "projects")
	t.Cleanup(cleanup)
	return NewRepository(db.Conn(), zerolog.Nop())
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p := testingpkg.NewProjectFixture("")
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p.StartDate = &start
	p.Scores = &domain.ScoreSnapshot{Environmental: 60, Social: 55, Governance: 70, Total: 61.5, LastUpdated: start}

	require.NoError(t, repo.Create(ctx, &p))
	_, err := uuid.Parse(p.ID)
	require.NoError(t, err, "generated IDs are UUIDs")

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Sector, got.Sector)
	assert.Equal(t, p.Budget, got.Budget)
	assert.Equal(t, p.Location, got.Location)
	assert.Equal(t, p.Environmental, got.Environmental)
	assert.Equal(t, p.Social, got.Social)
	assert.Equal(t, p.Governance, got.Governance)
	assert.Equal(t, p.Risks, got.Risks)
	require.NotNil(t, got.StartDate)
	assert.True(t, start.Equal(*got.StartDate))
	assert.Nil(t, got.EndDate)
	require.NotNil(t, got.Scores)
	assert.Equal(t, 61.5, got.Scores.Total)
	assert.True(t, start.Equal(got.Scores.LastUpdated))
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestRepository_CreateDefaultsStatus(t *testing.T) {
	repo := newTestRepository(t)
	p := testingpkg.NewMinimalProjectFixture("", domain.SectorOther, 1000)
	p.Status = ""

	require.NoError(t, repo.Create(context.Background(), &p))

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProposed, got.Status)
	assert.Empty(t, got.Risks)
	assert.NotNil(t, got.Risks)
	assert.Nil(t, got.Scores)
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p := testingpkg.NewProjectFixture("p-1")
	require.NoError(t, repo.Create(ctx, &p))

	p.Name = "Renamed"
	p.Budget = 3_500_000
	p.Risks = nil
	require.NoError(t, repo.Update(ctx, &p))

	got, err := repo.GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, 3_500_000.0, got.Budget)
	assert.Empty(t, got.Risks)

	require.NoError(t, repo.Delete(ctx, "p-1"))
	_, err = repo.GetByID(ctx, "p-1")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "p-1"), domain.ErrProjectNotFound)
	missing := testingpkg.NewProjectFixture("ghost")
	assert.ErrorIs(t, repo.Update(ctx, &missing), domain.ErrProjectNotFound)
}

func TestRepository_FindPreservesRequestOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		p := testingpkg.NewMinimalProjectFixture(id, domain.SectorWaterManagement, 1000)
		require.NoError(t, repo.Create(ctx, &p))
	}

	found, err := repo.Find(ctx, []string{"c", "missing", "a", "c"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "c", found[0].ID)
	assert.Equal(t, "a", found[1].ID)

	empty, err := repo.Find(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepository_ListStaleAndUpdateScores(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := testingpkg.NewMinimalProjectFixture("fresh", domain.SectorOther, 1000)
	fresh.Scores = &domain.ScoreSnapshot{Total: 50, LastUpdated: now.Add(-time.Hour)}
	old := testingpkg.NewMinimalProjectFixture("old", domain.SectorOther, 1000)
	old.Scores = &domain.ScoreSnapshot{Total: 40, LastUpdated: now.Add(-48 * time.Hour)}
	never := testingpkg.NewMinimalProjectFixture("never", domain.SectorOther, 1000)

	for _, p := range []*domain.Project{&fresh, &old, &never} {
		require.NoError(t, repo.Create(ctx, p))
	}

	stale, err := repo.ListStale(ctx, now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, "never", stale[0].ID, "unscored projects come first")
	assert.Equal(t, "old", stale[1].ID)

	require.NoError(t, repo.UpdateScores(ctx, "old", domain.ScoreSnapshot{Total: 77, LastUpdated: now}))
	got, err := repo.GetByID(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, 77.0, got.Scores.Total)

	stale, err = repo.ListStale(ctx, now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "never", stale[0].ID)

	assert.ErrorIs(t, repo.UpdateScores(ctx, "ghost", domain.ScoreSnapshot{LastUpdated: now}), domain.ErrProjectNotFound)
}

func TestRepository_ListAndCount(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	repo.now = fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	first := testingpkg.NewMinimalProjectFixture("first", domain.SectorOther, 1000)
	require.NoError(t, repo.Create(ctx, &first))

	repo.now = fixedClock(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	second := testingpkg.NewMinimalProjectFixture("second", domain.SectorOther, 1000)
	require.NoError(t, repo.Create(ctx, &second))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].ID)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
