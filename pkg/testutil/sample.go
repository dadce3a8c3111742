package testutil

import (
	"context"
	"reflect"
	"time"

	"github.com/geoplet/backend/internal/entity"
	"github.com/geoplet/backend/internal/repository"
)

// SampleUnminted inserts an unminted generation whose fields can be
// overwritten by the non-zero fields of init.
func SampleUnminted(ctx context.Context, init entity.UnmintedGeneration) entity.UnmintedGeneration {
	sample := &entity.UnmintedGeneration{
		FIDBase:     entity.FIDBase{FID: 1},
		Username:    "alice",
		ImageData:   "aW1hZ2U=",
		GeneratedAt: time.Now(),
	}

	overwriteFields(sample, init)
	if err := repository.NewUnmintedRepository().Upsert(ctx, sample); err != nil {
		panic(err)
	}

	return *sample
}

func SamplePayment(ctx context.Context, init entity.MintPayment) entity.MintPayment {
	sample := &entity.MintPayment{
		FIDBase:          entity.FIDBase{FID: 1},
		Recipient:        "0x3333333333333333333333333333333333333333",
		Payer:            "0x3333333333333333333333333333333333333333",
		Amount:           "2000000",
		SettlementTxHash: "0xabc",
		Status:           entity.PaymentSettled,
	}

	overwriteFields(sample, init)
	if err := repository.NewPaymentRepository().Upsert(ctx, sample); err != nil {
		panic(err)
	}

	return *sample
}

func overwriteFields[T any](origin *T, overwrite T) {
	originValue := reflect.ValueOf(origin).Elem()
	overwriteValue := reflect.ValueOf(overwrite)

	for i := 0; i < overwriteValue.NumField(); i++ {
		overwriteField := overwriteValue.Field(i)
		if !overwriteField.IsZero() {
			originValue.Field(i).Set(overwriteField)
		}
	}
}
