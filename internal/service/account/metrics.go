package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tinoosan/bankledger/internal/errs"
)

var operationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "bankledger",
		Name:      "account_operations_total",
		Help:      "Account operations by outcome",
	},
	[]string{"op", "outcome"},
)

// observe counts the operation and logs failures at a level matching their kind.
func (s *service) observe(ctx context.Context, op string, id uuid.UUID, err error) {
	if err == nil {
		operationsTotal.WithLabelValues(op, "ok").Inc()
		return
	}
	kind := errs.KindOf(err)
	operationsTotal.WithLabelValues(op, string(kind)).Inc()
	attrs := []any{"op", op, "code", kind, "err", err}
	if id != uuid.Nil {
		attrs = append(attrs, "account_id", id)
	}
	switch kind {
	case errs.KindStorageFailure:
		s.log.ErrorContext(ctx, "account operation failed", attrs...)
	case errs.KindInvalidInput:
		s.log.InfoContext(ctx, "account operation rejected", attrs...)
	default:
		s.log.WarnContext(ctx, "account operation rejected", attrs...)
	}
}
