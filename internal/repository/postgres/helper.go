package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/getsentry/sentry-go"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// StartRepositorySpan creates a new span for a repository operation
// Returns nil if Sentry is not available in the context
func StartRepositorySpan(ctx context.Context, repository, operation string, params map[string]interface{}) *sentry.Span {
	if sentry.GetHubFromContext(ctx) == nil {
		return nil
	}

	span := sentry.StartSpan(ctx, "repository."+repository+"."+operation)
	span.Description = "repository." + repository + "." + operation
	span.Op = "db.postgres"
	span.SetData("repository", repository)
	span.SetData("operation", operation)
	for k, v := range params {
		span.SetData(k, v)
	}
	return span
}

// FinishSpan safely finishes a span, handling nil spans
func FinishSpan(span *sentry.Span) {
	if span != nil {
		span.Finish()
	}
}

// SetSpanError marks a span as failed and adds error information
func SetSpanError(span *sentry.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.Status = sentry.SpanStatusInternalError
	span.SetData("error", err.Error())
}

// SetSpanSuccess marks a span as successful
func SetSpanSuccess(span *sentry.Span) {
	if span != nil {
		span.Status = sentry.SpanStatusOK
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// isUniqueViolationOn reports a unique violation raised by the named constraint
func isUniqueViolationOn(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == constraint
}

// notFoundOr maps sql.ErrNoRows to a not found error for entity and anything else
// to a database error
func notFoundOr(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s %s not found", strings.ToUpper(entity[:1])+entity[1:], id).
			WithReportableDetails(map[string]any{entity + "_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return databaseError(err, fmt.Sprintf("Failed to load %s", entity))
}

func databaseError(err error, hint string) error {
	return ierr.WithError(err).
		WithHint(hint).
		Mark(ierr.ErrDatabase)
}

// whereBuilder accumulates AND-ed conditions with positional arguments
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

func (w *whereBuilder) add(condition string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conditions = append(w.conditions, fmt.Sprintf(condition, len(w.args)))
}

func (w *whereBuilder) String() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

func orderDirection(order string) string {
	if strings.EqualFold(order, "asc") {
		return "ASC"
	}
	return "DESC"
}
