package repository

import (
	"context"

	"github.com/geoplet/backend/internal/entity"
	"github.com/geoplet/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type PaymentRepository interface {
	Upsert(ctx context.Context, record *entity.MintPayment) error
	GetByFID(ctx context.Context, fid int64) (*entity.MintPayment, error)
	SaveVoucher(ctx context.Context, fid int64, nonce string, deadline int64, signature string) error
	UpdateStatus(ctx context.Context, fid int64, status entity.PaymentStatus) error
	MarkMinted(ctx context.Context, fid int64, txHash string) error
}

type paymentRepository struct{}

func NewPaymentRepository() *paymentRepository {
	return &paymentRepository{}
}

// Upsert records a new settlement for the fid. Any voucher of a previous
// payment is cleared since it was issued for another settlement.
func (r *paymentRepository) Upsert(ctx context.Context, record *entity.MintPayment) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "fid"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"recipient",
				"payer",
				"amount",
				"settlement_tx_hash",
				"status",
				"voucher_nonce",
				"voucher_deadline",
				"voucher_signature",
				"mint_tx_hash",
				"updated_at",
			}),
		}).Create(record).Error
}

func (r *paymentRepository) GetByFID(ctx context.Context, fid int64) (*entity.MintPayment, error) {
	var result entity.MintPayment
	if err := xcontext.DB(ctx).Take(&result, "fid=?", fid).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *paymentRepository) SaveVoucher(
	ctx context.Context, fid int64, nonce string, deadline int64, signature string,
) error {
	return xcontext.DB(ctx).
		Model(&entity.MintPayment{}).
		Where("fid=?", fid).
		Updates(map[string]any{
			"voucher_nonce":     nonce,
			"voucher_deadline":  deadline,
			"voucher_signature": signature,
			"status":            entity.PaymentVoucherIssued,
		}).Error
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, fid int64, status entity.PaymentStatus) error {
	return xcontext.DB(ctx).
		Model(&entity.MintPayment{}).
		Where("fid=?", fid).
		Update("status", status).Error
}

func (r *paymentRepository) MarkMinted(ctx context.Context, fid int64, txHash string) error {
	return xcontext.DB(ctx).
		Model(&entity.MintPayment{}).
		Where("fid=?", fid).
		Updates(map[string]any{
			"status":       entity.PaymentMinted,
			"mint_tx_hash": txHash,
		}).Error
}
