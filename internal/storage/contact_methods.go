package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcourtner/leadpipe/internal/model"
)

// CreateContactMethod inserts a contact method, storing the normalized
// value alongside the raw one so dedup lookups are a single indexed query.
func (s *SQLiteStorage) CreateContactMethod(ctx context.Context, method *model.ContactMethod) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.createContactMethod(ctx, s.db, method)
}

func (s *SQLiteStorage) createContactMethod(ctx context.Context, q querier, method *model.ContactMethod) (int64, error) {
	if err := validateContactMethod(method); err != nil {
		return 0, err
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO contact_methods (
			prospect_id, type, value, value_normalized, label, is_primary,
			is_verified, verified_date, confidence_score, is_suspect, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		method.ProspectID,
		string(method.Type),
		method.Value,
		method.NormalizedValue(),
		nullString(method.Label),
		method.IsPrimary,
		method.IsVerified,
		nullTime(method.VerifiedDate),
		method.ConfidenceScore,
		method.IsSuspect,
		nullString(method.Source),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create contact method: %w", mapBusy(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get contact method ID: %w", err)
	}
	method.ID = id
	return id, nil
}

// GetContactMethods returns all contact methods for a prospect.
func (s *SQLiteStorage) GetContactMethods(ctx context.Context, prospectID int64) ([]model.ContactMethod, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getContactMethods(ctx, s.db, prospectID)
}

func (s *SQLiteStorage) getContactMethods(ctx context.Context, q querier, prospectID int64) ([]model.ContactMethod, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, prospect_id, type, value, label, is_primary, is_verified,
			verified_date, confidence_score, is_suspect, source, created_at
		FROM contact_methods WHERE prospect_id = ? ORDER BY id`, prospectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact methods: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var methods []model.ContactMethod
	for rows.Next() {
		var m model.ContactMethod
		var methodType string
		var label, source sql.NullString
		var verifiedDate sql.NullTime
		if err := rows.Scan(&m.ID, &m.ProspectID, &methodType, &m.Value,
			&label, &m.IsPrimary, &m.IsVerified, &verifiedDate,
			&m.ConfidenceScore, &m.IsSuspect, &source, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact method: %w", err)
		}
		parsed, ok := model.ParseContactMethodType(methodType)
		if !ok {
			return nil, fmt.Errorf("contact method %d: unknown type %q", m.ID, methodType)
		}
		m.Type = parsed
		m.Label = label.String
		m.Source = source.String
		if verifiedDate.Valid {
			t := verifiedDate.Time
			m.VerifiedDate = &t
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contact methods: %w", err)
	}
	return methods, nil
}

// IsDNC reports whether an email or phone belongs to a Do-Not-Contact
// prospect. Status is derived live from current records, never cached.
func (s *SQLiteStorage) IsDNC(ctx context.Context, email, phone string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return s.isDNC(ctx, s.db, email, phone)
}

func (s *SQLiteStorage) isDNC(ctx context.Context, q querier, email, phone string) (bool, error) {
	check := func(methodType model.ContactMethodType, normalized string) (bool, error) {
		var id int64
		err := q.QueryRowContext(ctx, `
			SELECT p.id FROM prospects p
			JOIN contact_methods m ON m.prospect_id = p.id
			WHERE p.population = ? AND m.type = ? AND m.value_normalized = ?
			LIMIT 1`,
			string(model.PopulationDeadDNC), string(methodType), normalized).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed DNC lookup: %w", err)
		}
		return true, nil
	}

	if email != "" {
		hit, err := check(model.ContactEmail, model.NormalizeEmail(email))
		if err != nil || hit {
			return hit, err
		}
	}
	if phone != "" {
		if digits := model.NormalizePhone(phone); digits != "" {
			hit, err := check(model.ContactPhone, digits)
			if err != nil || hit {
				return hit, err
			}
		}
	}
	return false, nil
}
