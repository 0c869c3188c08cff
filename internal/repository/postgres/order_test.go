package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/brewcycle/brewcycle/internal/domain/order"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestCreateOrderError(t *testing.T) {
	o := &order.Order{ID: "ord_1", IdempotencyKey: "subs_1:2026-10-01"}

	tests := []struct {
		name          string
		err           error
		alreadyExists bool
	}{
		{
			name:          "idempotency key clash",
			err:           &pq.Error{Code: pqUniqueViolation, Constraint: orderIdempotencyKeyConstraint},
			alreadyExists: true,
		},
		{
			name:          "wrapped idempotency key clash",
			err:           fmt.Errorf("insert: %w", &pq.Error{Code: pqUniqueViolation, Constraint: orderIdempotencyKeyConstraint}),
			alreadyExists: true,
		},
		{
			name: "order number clash",
			err:  &pq.Error{Code: pqUniqueViolation, Constraint: "orders_order_number_key"},
		},
		{
			name: "primary key clash",
			err:  &pq.Error{Code: pqUniqueViolation, Constraint: "orders_pkey"},
		},
		{
			name: "other failure",
			err:  errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := createOrderError(tt.err, o)
			assert.Equal(t, tt.alreadyExists, ierr.IsAlreadyExists(err))
			assert.Equal(t, !tt.alreadyExists, ierr.IsDatabase(err))
		})
	}
}
