package registry

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coprodesk/coprodesk/internal/shared"
)

// shareColumns lists the per-key tantième columns in table order. They
// mirror the share fields of the default deed.
var shareColumns = []string{
	"tantieme_general",
	"tantieme_ascenseurs",
	"tantieme_rdc_ssols",
	"tantieme_garages",
	"tantieme_ssols",
}

// Repository provides persistence for the unit registry.
type Repository interface {
	List(ctx context.Context) ([]Unit, error)
	Get(ctx context.Context, id int64) (Unit, error)
	Create(ctx context.Context, unit Unit) (Unit, error)
	Update(ctx context.Context, id int64, unit Unit) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed registry repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const unitColumns = `id, lot, nom, etage, usage, tantieme_general, tantieme_ascenseurs, tantieme_rdc_ssols, tantieme_garages, tantieme_ssols, tantieme`

func (r *repository) List(ctx context.Context) ([]Unit, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+unitColumns+` FROM coproprietaires ORDER BY lot`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Unit, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+unitColumns+` FROM coproprietaires WHERE id = $1`, id)
	unit, err := scanUnit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Unit{}, shared.ErrNotFound
		}
		return Unit{}, err
	}
	return unit, nil
}

func (r *repository) Create(ctx context.Context, unit Unit) (Unit, error) {
	args := []any{unit.Lot, unit.Owner, unit.Floor, unit.Usage}
	for _, col := range shareColumns {
		args = append(args, unit.Shares[col])
	}
	args = append(args, unit.LegacyShare)
	err := r.pool.QueryRow(ctx, `
		INSERT INTO coproprietaires (lot, nom, etage, usage, tantieme_general, tantieme_ascenseurs, tantieme_rdc_ssols, tantieme_garages, tantieme_ssols, tantieme)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`, args...).Scan(&unit.ID)
	if err != nil {
		return Unit{}, mapUniqueViolation(err)
	}
	return unit, nil
}

func (r *repository) Update(ctx context.Context, id int64, unit Unit) error {
	args := []any{id, unit.Lot, unit.Owner, unit.Floor, unit.Usage}
	for _, col := range shareColumns {
		args = append(args, unit.Shares[col])
	}
	args = append(args, unit.LegacyShare)
	tag, err := r.pool.Exec(ctx, `
		UPDATE coproprietaires
		SET lot = $2, nom = $3, etage = $4, usage = $5,
		    tantieme_general = $6, tantieme_ascenseurs = $7, tantieme_rdc_ssols = $8,
		    tantieme_garages = $9, tantieme_ssols = $10, tantieme = $11
		WHERE id = $1`, args...)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coproprietaires WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUnit(row pgx.Row) (Unit, error) {
	var (
		unit   Unit
		floor  *string
		usage  *string
		raw    = make([]*string, len(shareColumns))
		legacy *string
	)
	dest := []any{&unit.ID, &unit.Lot, &unit.Owner, &floor, &usage}
	for i := range raw {
		dest = append(dest, &raw[i])
	}
	dest = append(dest, &legacy)
	if err := row.Scan(dest...); err != nil {
		return Unit{}, err
	}
	if floor != nil {
		unit.Floor = *floor
	}
	if usage != nil {
		unit.Usage = *usage
	}
	unit.Shares = make(map[string]string, len(shareColumns))
	for i, col := range shareColumns {
		if raw[i] != nil {
			unit.Shares[col] = *raw[i]
		}
	}
	if legacy != nil {
		unit.LegacyShare = *legacy
	}
	return unit, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
