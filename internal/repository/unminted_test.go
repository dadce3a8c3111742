package repository_test

import (
	"testing"
	"time"

	"github.com/geoplet/backend/internal/entity"
	"github.com/geoplet/backend/internal/repository"
	"github.com/geoplet/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_unmintedRepository_Upsert(t *testing.T) {
	ctx := testutil.MockContext()
	repo := repository.NewUnmintedRepository()

	testutil.SampleUnminted(ctx, entity.UnmintedGeneration{FIDBase: entity.FIDBase{FID: 10}})
	_, err := repo.MarkCastSent(ctx, []int64{10}, time.Now())
	require.NoError(t, err)

	err = repo.Upsert(ctx, &entity.UnmintedGeneration{
		FIDBase:     entity.FIDBase{FID: 10},
		Username:    "bob",
		ImageData:   "bmV3",
		GeneratedAt: time.Now(),
	})
	require.NoError(t, err)

	record, err := repo.GetByFID(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "bob", record.Username)
	require.Equal(t, "bmV3", record.ImageData)
	require.True(t, record.CastSent)
}

func Test_unmintedRepository_GetList(t *testing.T) {
	ctx := testutil.MockContext()
	repo := repository.NewUnmintedRepository()

	now := time.Now()
	testutil.SampleUnminted(ctx, entity.UnmintedGeneration{FIDBase: entity.FIDBase{FID: 1}, GeneratedAt: now.Add(-time.Hour)})
	testutil.SampleUnminted(ctx, entity.UnmintedGeneration{FIDBase: entity.FIDBase{FID: 2}, GeneratedAt: now})
	testutil.SampleUnminted(ctx, entity.UnmintedGeneration{FIDBase: entity.FIDBase{FID: 3}, GeneratedAt: now.Add(-2 * time.Hour)})

	n, err := repo.MarkCastSent(ctx, []int64{3}, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	records, err := repo.GetList(ctx, repository.UnmintedFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, int64(2), records[0].FID)
	require.Equal(t, int64(1), records[1].FID)

	records, err = repo.GetList(ctx, repository.UnmintedFilter{IncludeContacted: true})
	require.NoError(t, err)
	require.Len(t, records, 3)

	records, err = repo.GetList(ctx, repository.UnmintedFilter{IncludeContacted: true, Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int64(1), records[0].FID)

	count, err := repo.Count(ctx, repository.UnmintedFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func Test_unmintedRepository_Delete(t *testing.T) {
	ctx := testutil.MockContext()
	repo := repository.NewUnmintedRepository()

	testutil.SampleUnminted(ctx, entity.UnmintedGeneration{FIDBase: entity.FIDBase{FID: 7}})
	require.NoError(t, repo.Delete(ctx, 7))

	_, err := repo.GetByFID(ctx, 7)
	require.Error(t, err)

	// Deleting a missing record is not an error.
	require.NoError(t, repo.Delete(ctx, 7))
}

func Test_unmintedRepository_GetByFIDs(t *testing.T) {
	ctx := testutil.MockContext()
	repo := repository.NewUnmintedRepository()

	testutil.SampleUnminted(ctx, entity.UnmintedGeneration{FIDBase: entity.FIDBase{FID: 4}, Username: "dan"})
	testutil.SampleUnminted(ctx, entity.UnmintedGeneration{FIDBase: entity.FIDBase{FID: 5}, Username: "eve"})

	records, err := repo.GetByFIDs(ctx, []int64{5, 6})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "eve", records[0].Username)
}
