package inmemdb

import (
	"sync"

	"github.com/Fernando88323/PortalDocente-sub001/core/grades"
)

type ponderationRepository struct {
	mu    sync.RWMutex
	table map[int]grades.Ponderation
}

var _ grades.Repository = (*ponderationRepository)(nil)

func NewPonderationRepository() *ponderationRepository {
	return &ponderationRepository{table: make(map[int]grades.Ponderation)}
}

func (repo *ponderationRepository) GetPonderation(viewerID int) (grades.Ponderation, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if p, ok := repo.table[viewerID]; ok {
		return p, nil
	}
	return grades.Ponderation{}, grades.ErrPonderationNotFound
}

func (repo *ponderationRepository) SavePonderation(viewerID int, p grades.Ponderation) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.table[viewerID] = p
	return nil
}
