package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Fernando88323/PortalDocente-sub001/core/grades"
)

type ponderationRow struct {
	ViewerID  int       `db:"viewer_id"`
	P1        float64   `db:"p1"`
	P2        float64   `db:"p2"`
	PL1       float64   `db:"pl1"`
	PL2       float64   `db:"pl2"`
	PL3       float64   `db:"pl3"`
	UpdatedAt time.Time `db:"updated_at"`
}

type ponderationRepository struct {
	db *sqlx.DB
}

var _ grades.Repository = (*ponderationRepository)(nil)

func NewPonderationRepository(db *sql.DB) *ponderationRepository {
	return &ponderationRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo *ponderationRepository) GetPonderation(viewerID int) (grades.Ponderation, error) {
	var r ponderationRow
	if err := repo.db.Get(&r, `SELECT * FROM ponderation WHERE viewer_id = $1`, viewerID); err != nil {
		if err == sql.ErrNoRows {
			return grades.Ponderation{}, grades.ErrPonderationNotFound
		}
		return grades.Ponderation{}, wrapErr(err, "getting ponderation")
	}
	return grades.Ponderation{P1: r.P1, P2: r.P2, PL1: r.PL1, PL2: r.PL2, PL3: r.PL3}, nil
}

func (repo *ponderationRepository) SavePonderation(viewerID int, p grades.Ponderation) error {
	_, err := repo.db.Exec(
		`INSERT INTO ponderation (viewer_id, p1, p2, pl1, pl2, pl3, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (viewer_id)
		 DO UPDATE SET p1 = $2, p2 = $3, pl1 = $4, pl2 = $5, pl3 = $6, updated_at = now()`,
		viewerID, p.P1, p.P2, p.PL1, p.PL2, p.PL3,
	)
	return wrapErr(err, "saving ponderation")
}
