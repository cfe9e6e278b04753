package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcourtner/leadpipe/internal/common"
	"github.com/jcourtner/leadpipe/internal/model"
)

// CreateCompany inserts a new company, deriving the normalized name and
// timezone if not already set.
func (s *SQLiteStorage) CreateCompany(ctx context.Context, company *model.Company) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.createCompany(ctx, s.db, company)
}

func (s *SQLiteStorage) createCompany(ctx context.Context, q querier, company *model.Company) (int64, error) {
	if err := validateCompany(company); err != nil {
		return 0, err
	}

	if company.NameNormalized == "" {
		company.NameNormalized = model.NormalizeCompanyName(company.Name)
	}
	if company.Timezone == "" {
		company.Timezone = model.TimezoneFromState(company.State)
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO companies (name, name_normalized, domain, state, timezone, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		company.Name,
		company.NameNormalized,
		nullString(company.Domain),
		nullString(company.State),
		company.Timezone,
		nullString(company.Notes),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create company: %w", mapBusy(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get company ID: %w", err)
	}
	company.ID = id
	return id, nil
}

// GetCompany fetches a company by ID.
func (s *SQLiteStorage) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCompany(ctx, s.db, id)
}

func (s *SQLiteStorage) getCompany(ctx context.Context, q querier, id int64) (*model.Company, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, name_normalized, domain, state, timezone, notes, created_at, updated_at
		FROM companies WHERE id = ?`, id)
	return scanCompany(row)
}

// GetCompanyByNormalizedName finds a company by dedup key.
func (s *SQLiteStorage) GetCompanyByNormalizedName(ctx context.Context, name string) (*model.Company, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCompanyByNormalizedName(ctx, s.db, name)
}

func (s *SQLiteStorage) getCompanyByNormalizedName(ctx context.Context, q querier, name string) (*model.Company, error) {
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	row := q.QueryRowContext(ctx, `
		SELECT id, name, name_normalized, domain, state, timezone, notes, created_at, updated_at
		FROM companies WHERE name_normalized = ?`,
		model.NormalizeCompanyName(name))
	return scanCompany(row)
}

// UpdateCompany saves changes to an existing company.
func (s *SQLiteStorage) UpdateCompany(ctx context.Context, company *model.Company) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateCompany(ctx, s.db, company)
}

func (s *SQLiteStorage) updateCompany(ctx context.Context, q querier, company *model.Company) error {
	if err := validateCompany(company); err != nil {
		return err
	}
	if company.ID == 0 {
		return fmt.Errorf("%w: missing ID", ErrInvalidCompany)
	}

	_, err := q.ExecContext(ctx, `
		UPDATE companies SET
			name = ?, name_normalized = ?, domain = ?, state = ?,
			timezone = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		company.Name,
		model.NormalizeCompanyName(company.Name),
		nullString(company.Domain),
		nullString(company.State),
		model.TimezoneFromState(company.State),
		nullString(company.Notes),
		company.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", mapBusy(err))
	}
	return nil
}

func scanCompany(row *sql.Row) (*model.Company, error) {
	var c model.Company
	var domain, state, notes sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.NameNormalized, &domain, &state,
		&c.Timezone, &notes, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("company: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan company: %w", err)
	}
	c.Domain = domain.String
	c.State = state.String
	c.Notes = notes.String
	return &c, nil
}

// nullString maps empty strings to NULL for optional text columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
