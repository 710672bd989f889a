package group

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/cycle"
)

type (
	// Client is the upstream two-step group listing: the docente reference id
	// first, then the groups for (iddocente, ciclo).
	Client interface {
		DocenteID(ctx context.Context) (int, error)
		Groups(ctx context.Context, docenteID int, cyc cycle.Cycle) ([]Group, error)
	}

	Service struct {
		client  Client
		catalog *Catalog
		logger  core.Logger

		mu  sync.Mutex
		gen uint64 // refresh generation, guards against stale responses
	}
)

func NewService(client Client, catalog *Catalog, logger core.Logger) *Service {
	return &Service{client: client, catalog: catalog, logger: logger}
}

func (svc *Service) Catalog() *Catalog { return svc.catalog }

// Refresh fetches the catalog for the given cycle and installs it wholesale.
// The fetch is cancellable through ctx. If another Refresh starts before this
// one resolves, the superseded response is discarded silently so stale data
// never overwrites fresher state.
func (svc *Service) Refresh(ctx context.Context, cyc cycle.Cycle) ([]Group, error) {
	if cyc.IsZero() {
		return nil, errors.New("refreshing groups: cycle is unset")
	}

	svc.mu.Lock()
	svc.gen++
	gen := svc.gen
	svc.mu.Unlock()

	docenteID, err := svc.client.DocenteID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetching docente id")
	}

	groups, err := svc.client.Groups(ctx, docenteID, cyc)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching groups for cycle %s", cyc)
	}

	svc.mu.Lock()
	stale := gen != svc.gen
	svc.mu.Unlock()
	if stale {
		svc.logger.Debug("discarding superseded group catalog response", cyc)
		return nil, nil
	}

	svc.catalog.Replace(cyc, groups)
	return groups, nil
}
