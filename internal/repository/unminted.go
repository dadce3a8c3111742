package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/geoplet/backend/internal/entity"
	"github.com/geoplet/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UnmintedFilter struct {
	IncludeContacted bool

	Offset int
	Limit  int
}

type UnmintedRepository interface {
	Upsert(ctx context.Context, record *entity.UnmintedGeneration) error
	GetByFID(ctx context.Context, fid int64) (*entity.UnmintedGeneration, error)
	GetByFIDs(ctx context.Context, fids []int64) ([]entity.UnmintedGeneration, error)
	GetList(ctx context.Context, filter UnmintedFilter) ([]entity.UnmintedGeneration, error)
	Count(ctx context.Context, filter UnmintedFilter) (int64, error)
	MarkCastSent(ctx context.Context, fids []int64, at time.Time) (int64, error)
	Delete(ctx context.Context, fid int64) error
}

type unmintedRepository struct{}

func NewUnmintedRepository() *unmintedRepository {
	return &unmintedRepository{}
}

// Upsert replaces the artwork of a user who generated again. The outreach
// status is kept so a user is not messaged twice.
func (r *unmintedRepository) Upsert(ctx context.Context, record *entity.UnmintedGeneration) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "fid"}},
			DoUpdates: clause.Assignments(map[string]any{
				"username":         record.Username,
				"warplet_token_id": record.WarpletTokenID,
				"image_data":       record.ImageData,
				"generated_at":     record.GeneratedAt,
				"updated_at":       time.Now(),
			}),
		}).Create(record).Error
}

func (r *unmintedRepository) GetByFID(ctx context.Context, fid int64) (*entity.UnmintedGeneration, error) {
	var result entity.UnmintedGeneration
	if err := xcontext.DB(ctx).Take(&result, "fid=?", fid).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *unmintedRepository) GetByFIDs(ctx context.Context, fids []int64) ([]entity.UnmintedGeneration, error) {
	var result []entity.UnmintedGeneration
	if err := xcontext.DB(ctx).Find(&result, "fid IN (?)", fids).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *unmintedRepository) applyFilter(ctx context.Context, filter UnmintedFilter) *gorm.DB {
	tx := xcontext.DB(ctx).Model(&entity.UnmintedGeneration{})
	if !filter.IncludeContacted {
		tx = tx.Where("cast_sent=?", false)
	}

	return tx
}

func (r *unmintedRepository) GetList(
	ctx context.Context, filter UnmintedFilter,
) ([]entity.UnmintedGeneration, error) {
	tx := r.applyFilter(ctx, filter).Order("generated_at DESC")
	if filter.Limit > 0 {
		tx = tx.Offset(filter.Offset).Limit(filter.Limit)
	}

	var result []entity.UnmintedGeneration
	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *unmintedRepository) Count(ctx context.Context, filter UnmintedFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *unmintedRepository) MarkCastSent(ctx context.Context, fids []int64, at time.Time) (int64, error) {
	if len(fids) == 0 {
		return 0, nil
	}

	tx := xcontext.DB(ctx).
		Model(&entity.UnmintedGeneration{}).
		Where("fid IN (?)", fids).
		Updates(map[string]any{
			"cast_sent":    true,
			"cast_sent_at": sql.NullTime{Time: at, Valid: true},
		})
	if tx.Error != nil {
		return 0, tx.Error
	}

	return tx.RowsAffected, nil
}

func (r *unmintedRepository) Delete(ctx context.Context, fid int64) error {
	return xcontext.DB(ctx).Delete(&entity.UnmintedGeneration{}, "fid=?", fid).Error
}
