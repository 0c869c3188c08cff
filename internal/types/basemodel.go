package types

import (
	"context"
	"time"
)

// BaseModel carries the audit columns shared by subscriptions, orders and products.
// The db tags must match the created_/updated_ columns in the migrations.
type BaseModel struct {
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	UpdatedBy string    `db:"updated_by" json:"updated_by"`
}

// GetDefaultBaseModel stamps a new record as created and last written by the
// ctx user, both at the current UTC time
func GetDefaultBaseModel(ctx context.Context) BaseModel {
	now := time.Now().UTC()
	userID := GetUserID(ctx)
	return BaseModel{
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: userID,
		UpdatedBy: userID,
	}
}

// Touch records a write at now. A writer already set by the caller wins over the
// ctx user, so system writes such as renewals keep SystemUserID.
func (b *BaseModel) Touch(ctx context.Context, now time.Time) {
	b.UpdatedAt = now
	if b.UpdatedBy == "" {
		b.UpdatedBy = GetUserID(ctx)
	}
}
