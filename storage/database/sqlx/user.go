package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Fernando88323/PortalDocente-sub001/core/user"
)

type userRow struct {
	ID           int            `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	RefID        int            `db:"ref_id"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		RefID:        r.RefID,
		IsActive:     r.IsActive,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	exclIDs := make(pq.Int64Array, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, int64(usr.ID))
	}

	var matches []userRow
	err := repo.db.Select(
		&matches,
		`SELECT username, email FROM "user" WHERE (username = $1 OR email = $2) AND NOT (id = ANY($3)) LIMIT 2`,
		username, email, exclIDs,
	)
	if err != nil {
		return wrapErr(err, "checking username uniqueness")
	}
	for _, m := range matches {
		if m.Username == username {
			return user.ErrUsernameExists
		}
		if m.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	row := repo.db.QueryRow(
		`INSERT INTO "user" (name, username, email, ref_id, is_active, roles, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		usr.Name, usr.Username, usr.Email, usr.RefID, usr.IsActive,
		pq.StringArray(usr.Roles), usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err := row.Scan(&usr.ID); err != nil {
		return user.User{}, wrapErr(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(id int) (user.User, error) {
	var r userRow
	if err := repo.db.Get(&r, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, wrapErr(err, "getting user by id")
	}
	return r.toUser(), nil
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	var r userRow
	err := repo.db.Get(&r, `SELECT * FROM "user" WHERE username = $1 OR email = $1`, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, wrapErr(err, "getting user by username or email")
	}
	return r.toUser(), nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	orig, err := repo.GetUserByID(usr.ID)
	if err != nil {
		return user.User{}, err
	}

	if usr.Name == "" {
		usr.Name = orig.Name
	}
	if usr.Username == "" {
		usr.Username = orig.Username
	}
	if usr.Email == "" {
		usr.Email = orig.Email
	}
	if usr.RefID == 0 {
		usr.RefID = orig.RefID
	}
	if usr.Roles == nil {
		usr.Roles = orig.Roles
	}
	if usr.PasswordHash == nil {
		usr.PasswordHash = orig.PasswordHash
	}
	if usr.LastLogin.IsZero() {
		usr.LastLogin = orig.LastLogin
	}
	if usr.UpdatedAt.IsZero() {
		usr.UpdatedAt = orig.UpdatedAt
	}
	active := orig.IsActive
	if isActive != nil {
		active = *isActive
	}

	var lastLogin sql.NullTime
	if !usr.LastLogin.IsZero() {
		lastLogin = sql.NullTime{Time: usr.LastLogin, Valid: true}
	}

	_, err = repo.db.Exec(
		`UPDATE "user"
		 SET name = $2, username = $3, email = $4, ref_id = $5, is_active = $6,
		     roles = $7, password_hash = $8, updated_at = $9, last_login = $10
		 WHERE id = $1`,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.RefID, active,
		pq.StringArray(usr.Roles), usr.PasswordHash, usr.UpdatedAt, lastLogin,
	)
	if err != nil {
		return user.User{}, wrapErr(err, "updating user")
	}
	usr.IsActive = active
	return usr, nil
}
