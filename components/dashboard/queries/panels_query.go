package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

// DocumentInput identifies a stored document.
type DocumentInput struct {
	UID string `json:"uid"`
}

type panelsService interface {
	Panels(ctx context.Context, uid string) (dashboard.PanelsView, error)
}

// PanelsQuery returns the live panel list, repeat clones included.
type PanelsQuery struct {
	service panelsService
}

// NewPanelsQuery builds the query.
func NewPanelsQuery(service panelsService) *PanelsQuery {
	return &PanelsQuery{service: service}
}

var _ gocommand.Querier[DocumentInput, dashboard.PanelsView] = (*PanelsQuery)(nil)

// Query resolves the panels of the document.
func (q *PanelsQuery) Query(ctx context.Context, input DocumentInput) (dashboard.PanelsView, error) {
	return q.service.Panels(ctx, input.UID)
}
