package budget

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coprodesk/coprodesk/internal/platform/db"
	"github.com/coprodesk/coprodesk/internal/shared"
)

// Repository provides persistence for budget lines.
type Repository interface {
	ListYear(ctx context.Context, year int) ([]Line, error)
	Years(ctx context.Context) ([]int, error)
	Get(ctx context.Context, id int64) (Line, error)
	Create(ctx context.Context, line Line) (Line, error)
	Update(ctx context.Context, id int64, line Line) error
	Delete(ctx context.Context, id int64) error
	InsertYear(ctx context.Context, lines []Line) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed budget repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListYear(ctx context.Context, year int) ([]Line, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, compte, libelle_compte, montant_budget, annee, classe, famille
		FROM budget
		WHERE annee = $1
		ORDER BY compte`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.Account, &l.Label, &l.Amount, &l.Year, &l.Class, &l.Family); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) Years(ctx context.Context) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT annee FROM budget ORDER BY annee DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Line, error) {
	var l Line
	err := r.pool.QueryRow(ctx, `
		SELECT id, compte, libelle_compte, montant_budget, annee, classe, famille
		FROM budget WHERE id = $1`, id).
		Scan(&l.ID, &l.Account, &l.Label, &l.Amount, &l.Year, &l.Class, &l.Family)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, shared.ErrNotFound
		}
		return Line{}, err
	}
	return l, nil
}

func (r *repository) Create(ctx context.Context, line Line) (Line, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO budget (compte, libelle_compte, montant_budget, annee, classe, famille)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		line.Account, line.Label, line.Amount, line.Year, line.Class, line.Family).
		Scan(&line.ID)
	if err != nil {
		return Line{}, mapUniqueViolation(err)
	}
	return line, nil
}

func (r *repository) Update(ctx context.Context, id int64, line Line) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE budget
		SET compte = $2, libelle_compte = $3, montant_budget = $4, classe = $5, famille = $6
		WHERE id = $1`,
		id, line.Account, line.Label, line.Amount, line.Class, line.Family)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM budget WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// InsertYear writes a full budget year atomically; the year copy relies on
// never leaving a half-created budget behind.
func (r *repository) InsertYear(ctx context.Context, lines []Line) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, line := range lines {
			if _, err := tx.Exec(ctx, `
				INSERT INTO budget (compte, libelle_compte, montant_budget, annee, classe, famille)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				line.Account, line.Label, line.Amount, line.Year, line.Class, line.Family); err != nil {
				return mapUniqueViolation(err)
			}
		}
		return nil
	})
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
