package roster

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/group"
)

type (
	// Client fetches rosters from the academic-records upstream. The NMA
	// reference value rides along with the roster payload.
	Client interface {
		Roster(ctx context.Context, groupID int) ([]StudentRecord, null.Float64, error)
	}

	Service struct {
		client  Client
		store   *Store
		catalog *group.Catalog
		logger  core.Logger
	}
)

func NewService(client Client, store *Store, catalog *group.Catalog, logger core.Logger) *Service {
	return &Service{client: client, store: store, catalog: catalog, logger: logger}
}

func (svc *Service) Store() *Store { return svc.store }

// Load fetches the roster for a group, recomputes every record through the
// supplied grade function and installs the result. The response is discarded
// silently if the catalog selection moved to another group while the fetch
// was in flight.
func (svc *Service) Load(ctx context.Context, groupID int, recompute func(StudentRecord) StudentRecord) ([]StudentRecord, error) {
	recs, nma, err := svc.client.Roster(ctx, groupID)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching roster for group %d", groupID)
	}

	if sel, ok := svc.catalog.Selected(); !ok || sel.ID != groupID {
		svc.logger.Debug("discarding roster response for unselected group", groupID)
		return nil, nil
	}

	for i := range recs {
		recs[i].GroupID = groupID
		recs[i] = recompute(recs[i])
	}
	svc.store.SetRoster(groupID, recs)
	svc.store.SetNMA(nma)
	return recs, nil
}

// LoadForReport fetches one group's students for reporting. The grading
// roster and its NMA are left alone; the records land in the report
// collection instead.
func (svc *Service) LoadForReport(ctx context.Context, groupID int, recompute func(StudentRecord) StudentRecord) ([]StudentRecord, error) {
	recs, _, err := svc.client.Roster(ctx, groupID)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching report students for group %d", groupID)
	}

	for i := range recs {
		recs[i].GroupID = groupID
		recs[i] = recompute(recs[i])
	}
	svc.store.SetReportStudents(recs)
	return recs, nil
}

// LoadAll aggregates the rosters of every group in the catalog. A failing
// group fails the whole aggregate; a partial listing would be worse than
// none.
func (svc *Service) LoadAll(ctx context.Context, recompute func(StudentRecord) StudentRecord) ([]StudentRecord, error) {
	all := make([]StudentRecord, 0)
	for _, grp := range svc.catalog.Groups() {
		recs, _, err := svc.client.Roster(ctx, grp.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "fetching roster for group %d", grp.ID)
		}
		for i := range recs {
			recs[i].GroupID = grp.ID
			recs[i] = recompute(recs[i])
		}
		all = append(all, recs...)
	}
	svc.store.SetAllStudents(all)
	return all, nil
}
