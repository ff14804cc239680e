package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coprodesk/coprodesk/internal/shared"
)

// Repository provides persistence for expense lines.
type Repository interface {
	List(ctx context.Context, filters Filters) ([]Line, error)
	Years(ctx context.Context) ([]int, error)
	Get(ctx context.Context, id int64) (Line, error)
	Create(ctx context.Context, line Line) (Line, error)
	Update(ctx context.Context, id int64, line Line) error
	SoftDelete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed expense repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const lineColumns = `id, date, compte, fournisseur, montant_du, classe, famille, commentaire, travaux_votes, fonds_alur, deleted_at`

func (r *repository) List(ctx context.Context, filters Filters) ([]Line, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	if filters.Year > 0 {
		args = append(args, filters.Year)
		where = append(where, fmt.Sprintf("EXTRACT(YEAR FROM date) = $%d", len(args)))
	}
	if filters.Class != "" {
		args = append(args, filters.Class)
		where = append(where, fmt.Sprintf("classe = $%d", len(args)))
	}
	if filters.Account != "" {
		args = append(args, filters.Account)
		where = append(where, fmt.Sprintf("compte = $%d", len(args)))
	}
	if filters.Supplier != "" {
		args = append(args, filters.Supplier)
		where = append(where, fmt.Sprintf("fournisseur = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM depenses WHERE %s ORDER BY date DESC, id DESC`,
		lineColumns, strings.Join(where, " AND "))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *repository) Years(ctx context.Context) ([]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT EXTRACT(YEAR FROM date)::int AS annee
		FROM depenses WHERE deleted_at IS NULL
		ORDER BY annee DESC`)
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
	row := r.pool.QueryRow(ctx, `
		SELECT `+lineColumns+` FROM depenses WHERE id = $1 AND deleted_at IS NULL`, id)
	line, err := scanLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, shared.ErrNotFound
		}
		return Line{}, err
	}
	return line, nil
}

func (r *repository) Create(ctx context.Context, line Line) (Line, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO depenses (date, compte, fournisseur, montant_du, classe, famille, commentaire, travaux_votes, fonds_alur)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		line.Date, line.Account, line.Supplier, line.Amount, line.Class, line.Family,
		nullable(line.Comment), line.VotedWorks, line.ReserveFund).
		Scan(&line.ID)
	if err != nil {
		return Line{}, err
	}
	return line, nil
}

func (r *repository) Update(ctx context.Context, id int64, line Line) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE depenses
		SET date = $2, compte = $3, fournisseur = $4, montant_du = $5, classe = $6,
		    famille = $7, commentaire = $8, travaux_votes = $9, fonds_alur = $10
		WHERE id = $1 AND deleted_at IS NULL`,
		id, line.Date, line.Account, line.Supplier, line.Amount, line.Class,
		line.Family, nullable(line.Comment), line.VotedWorks, line.ReserveFund)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE depenses SET deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanLine(row pgx.Row) (Line, error) {
	var l Line
	var comment *string
	if err := row.Scan(&l.ID, &l.Date, &l.Account, &l.Supplier, &l.Amount, &l.Class,
		&l.Family, &comment, &l.VotedWorks, &l.ReserveFund, &l.DeletedAt); err != nil {
		return Line{}, err
	}
	if comment != nil {
		l.Comment = *comment
	}
	return l, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
