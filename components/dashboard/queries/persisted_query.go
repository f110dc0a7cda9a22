package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
)

type persistedService interface {
	PersistedForm(ctx context.Context, uid string) (map[string]any, error)
}

// PersistedDocumentQuery returns the form a document would be saved in.
type PersistedDocumentQuery struct {
	service persistedService
}

// NewPersistedDocumentQuery builds the query.
func NewPersistedDocumentQuery(service persistedService) *PersistedDocumentQuery {
	return &PersistedDocumentQuery{service: service}
}

var _ gocommand.Querier[DocumentInput, map[string]any] = (*PersistedDocumentQuery)(nil)

// Query renders the persisted form.
func (q *PersistedDocumentQuery) Query(ctx context.Context, input DocumentInput) (map[string]any, error) {
	return q.service.PersistedForm(ctx, input.UID)
}
