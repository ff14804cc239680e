// Package accounts exposes the plan of accounts (plan comptable). It is
// read-only: the chart is seeded once and edited out of band; the rest of
// the system uses it to resolve an account code into its class and family.
package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coprodesk/coprodesk/internal/shared"
)

// Account is one chart entry.
type Account struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Label  string `json:"label"`
	Class  string `json:"class"`
	Family string `json:"family"`
}

// Stats summarizes the chart.
type Stats struct {
	Accounts int `json:"accounts"`
	Classes  int `json:"classes"`
	Families int `json:"families"`
}

// Repository provides read access to the chart.
type Repository interface {
	List(ctx context.Context) ([]Account, error)
	Lookup(ctx context.Context, code string) (Account, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed accounts repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, compte, libelle_compte, classe, famille
		FROM plan_comptable ORDER BY compte`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Label, &a.Class, &a.Family); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Lookup(ctx context.Context, code string) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, compte, libelle_compte, classe, famille
		FROM plan_comptable WHERE compte = $1`, code).
		Scan(&a.ID, &a.Code, &a.Label, &a.Class, &a.Family)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// Service exposes chart lookups and filtered listings.
type Service struct {
	repo Repository
}

// NewService constructs the accounts service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the chart, optionally filtered by class, family, or a
// free-text search over code and label.
func (s *Service) List(ctx context.Context, class, family, search string) ([]Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(search))
	var out []Account
	for _, a := range accounts {
		if class != "" && a.Class != class {
			continue
		}
		if family != "" && a.Family != family {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(a.Code), needle) &&
			!strings.Contains(strings.ToLower(a.Label), needle) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Lookup resolves one account code.
func (s *Service) Lookup(ctx context.Context, code string) (Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Account{}, shared.ErrValidation
	}
	return s.repo.Lookup(ctx, code)
}

// Stats counts accounts, classes, and families in the chart.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	classes := map[string]bool{}
	families := map[string]bool{}
	for _, a := range accounts {
		classes[a.Class] = true
		families[a.Family] = true
	}
	return Stats{Accounts: len(accounts), Classes: len(classes), Families: len(families)}, nil
}
