package fund

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides persistence for reserve-fund ledger entries.
type Repository interface {
	List(ctx context.Context, year int) ([]Entry, error)
	Append(ctx context.Context, entry Entry) (Entry, error)
	Totals(ctx context.Context) (credited, spent float64, entries int, err error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed fund repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, year int) ([]Entry, error) {
	where := "TRUE"
	var args []any
	if year > 0 {
		where = "annee = $1"
		args = append(args, year)
	}
	query := fmt.Sprintf(`
		SELECT id, date, libelle, montant, sens, annee, COALESCE(trimestre, '')
		FROM fonds_alur WHERE %s
		ORDER BY date DESC, id DESC`, where)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Date, &e.Label, &e.Amount, &e.Direction, &e.Year, &e.Quarter); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) Append(ctx context.Context, entry Entry) (Entry, error) {
	var quarter *string
	if q := strings.TrimSpace(entry.Quarter); q != "" {
		quarter = &q
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO fonds_alur (date, libelle, montant, sens, annee, trimestre)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		entry.Date, entry.Label, entry.Amount, entry.Direction, entry.Year, quarter).
		Scan(&entry.ID)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *repository) Totals(ctx context.Context) (float64, float64, int, error) {
	var credited, spent float64
	var entries int
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(montant) FILTER (WHERE sens = 'CREDIT'), 0),
			COALESCE(SUM(montant) FILTER (WHERE sens = 'DEBIT'), 0),
			COUNT(*)
		FROM fonds_alur`).
		Scan(&credited, &spent, &entries)
	if err != nil {
		return 0, 0, 0, err
	}
	return credited, spent, entries, nil
}
