package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jcourtner/leadpipe/internal/common"
	"github.com/jcourtner/leadpipe/internal/model"
	"github.com/jcourtner/leadpipe/internal/service"
)

const prospectColumns = `id, company_id, first_name, last_name, title, population,
	engagement_stage, follow_up_date, last_contact_date, parked_month,
	attempt_count, prospect_score, data_confidence, source, notes, referred_by,
	dead_reason, dead_date, lost_reason, lost_competitor, lost_date,
	created_at, updated_at`

// CreateProspect inserts a new prospect.
func (s *SQLiteStorage) CreateProspect(ctx context.Context, prospect *model.Prospect) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.createProspect(ctx, s.db, prospect)
}

func (s *SQLiteStorage) createProspect(ctx context.Context, q querier, prospect *model.Prospect) (int64, error) {
	if err := validateProspect(prospect); err != nil {
		return 0, err
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO prospects (
			company_id, first_name, last_name, title, population, engagement_stage,
			follow_up_date, last_contact_date, parked_month, attempt_count,
			prospect_score, data_confidence, source, notes, referred_by,
			dead_reason, dead_date, lost_reason, lost_competitor, lost_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		prospect.CompanyID,
		prospect.FirstName,
		prospect.LastName,
		nullString(prospect.Title),
		string(prospect.Population),
		nullStage(prospect.Stage),
		nullTime(prospect.FollowUpDate),
		nullTime(prospect.LastContactDate),
		nullString(prospect.ParkedMonth),
		prospect.AttemptCount,
		prospect.Score,
		prospect.DataConfidence,
		nullString(prospect.Source),
		nullString(prospect.Notes),
		nullID(prospect.ReferredBy),
		nullString(prospect.DeadReason),
		nullTime(prospect.DeadDate),
		nullString(string(prospect.LostReason)),
		nullString(prospect.LostCompetitor),
		nullTime(prospect.LostDate),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create prospect: %w", mapBusy(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get prospect ID: %w", err)
	}
	prospect.ID = id
	return id, nil
}

// GetProspect fetches a prospect by ID.
func (s *SQLiteStorage) GetProspect(ctx context.Context, id int64) (*model.Prospect, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getProspect(ctx, s.db, id)
}

func (s *SQLiteStorage) getProspect(ctx context.Context, q querier, id int64) (*model.Prospect, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+prospectColumns+` FROM prospects WHERE id = ?`, id)
	prospect, err := scanProspectRow(row)
	if err != nil {
		return nil, err
	}
	return prospect, nil
}

// UpdateProspect saves changes to an existing prospect. Population and
// stage changes must go through the pipeline state machine; this method
// persists whatever state the caller validated.
func (s *SQLiteStorage) UpdateProspect(ctx context.Context, prospect *model.Prospect) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateProspect(ctx, s.db, prospect)
}

func (s *SQLiteStorage) updateProspect(ctx context.Context, q querier, prospect *model.Prospect) error {
	if err := validateProspect(prospect); err != nil {
		return err
	}
	if prospect.ID == 0 {
		return fmt.Errorf("%w: missing ID", ErrInvalidProspect)
	}

	result, err := q.ExecContext(ctx, `
		UPDATE prospects SET
			company_id = ?, first_name = ?, last_name = ?, title = ?,
			population = ?, engagement_stage = ?, follow_up_date = ?,
			last_contact_date = ?, parked_month = ?, attempt_count = ?,
			prospect_score = ?, data_confidence = ?, source = ?, notes = ?,
			referred_by = ?, dead_reason = ?, dead_date = ?, lost_reason = ?,
			lost_competitor = ?, lost_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		prospect.CompanyID,
		prospect.FirstName,
		prospect.LastName,
		nullString(prospect.Title),
		string(prospect.Population),
		nullStage(prospect.Stage),
		nullTime(prospect.FollowUpDate),
		nullTime(prospect.LastContactDate),
		nullString(prospect.ParkedMonth),
		prospect.AttemptCount,
		prospect.Score,
		prospect.DataConfidence,
		nullString(prospect.Source),
		nullString(prospect.Notes),
		nullID(prospect.ReferredBy),
		nullString(prospect.DeadReason),
		nullTime(prospect.DeadDate),
		nullString(string(prospect.LostReason)),
		nullString(prospect.LostCompetitor),
		nullTime(prospect.LostDate),
		prospect.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update prospect: %w", mapBusy(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("prospect %d: %w", prospect.ID, common.ErrNotFound)
	}
	return nil
}

// GetProspects returns prospects matching the filter.
func (s *SQLiteStorage) GetProspects(ctx context.Context, filter service.ProspectFilter) ([]model.Prospect, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getProspects(ctx, s.db, filter)
}

func (s *SQLiteStorage) getProspects(ctx context.Context, q querier, filter service.ProspectFilter) ([]model.Prospect, error) {
	var conditions []string
	var args []any

	if filter.Population != nil {
		conditions = append(conditions, "population = ?")
		args = append(args, string(*filter.Population))
	}
	if filter.CompanyID != nil {
		conditions = append(conditions, "company_id = ?")
		args = append(args, *filter.CompanyID)
	}

	query := `SELECT ` + prospectColumns + ` FROM prospects`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prospects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanProspects(rows)
}

// FindProspectByEmail looks up a prospect by normalized email.
func (s *SQLiteStorage) FindProspectByEmail(ctx context.Context, email string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.findProspectByEmail(ctx, s.db, email)
}

func (s *SQLiteStorage) findProspectByEmail(ctx context.Context, q querier, email string) (int64, error) {
	if err := validateString(email, "email"); err != nil {
		return 0, err
	}

	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT prospect_id FROM contact_methods
		WHERE type = ? AND value_normalized = ?
		ORDER BY id LIMIT 1`,
		string(model.ContactEmail), model.NormalizeEmail(email)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("prospect by email: %w", common.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find prospect by email: %w", err)
	}
	return id, nil
}

// FindProspectByPhone looks up a prospect by normalized phone digits.
func (s *SQLiteStorage) FindProspectByPhone(ctx context.Context, phone string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.findProspectByPhone(ctx, s.db, phone)
}

func (s *SQLiteStorage) findProspectByPhone(ctx context.Context, q querier, phone string) (int64, error) {
	digits := model.NormalizePhone(phone)
	if digits == "" {
		return 0, fmt.Errorf("%w: phone", ErrEmptyString)
	}

	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT prospect_id FROM contact_methods
		WHERE type = ? AND value_normalized = ?
		ORDER BY id LIMIT 1`,
		string(model.ContactPhone), digits).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("prospect by phone: %w", common.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find prospect by phone: %w", err)
	}
	return id, nil
}

// GetOverdueProspects returns non-terminal prospects whose follow-up date
// is before asOf, most overdue first.
func (s *SQLiteStorage) GetOverdueProspects(ctx context.Context, asOf time.Time) ([]model.Prospect, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getOverdueProspects(ctx, s.db, asOf)
}

func (s *SQLiteStorage) getOverdueProspects(ctx context.Context, q querier, asOf time.Time) ([]model.Prospect, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+prospectColumns+` FROM prospects
		WHERE follow_up_date IS NOT NULL
		AND follow_up_date < ?
		AND population NOT IN (?, ?, ?)
		ORDER BY follow_up_date ASC`,
		asOf,
		string(model.PopulationDeadDNC),
		string(model.PopulationClosedWon),
		string(model.PopulationPartnership),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue prospects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanProspects(rows)
}

// GetOrphanedEngaged returns engaged prospects missing a follow-up date.
// Any result is a data-integrity defect to surface.
func (s *SQLiteStorage) GetOrphanedEngaged(ctx context.Context) ([]model.Prospect, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getOrphanedEngaged(ctx, s.db)
}

func (s *SQLiteStorage) getOrphanedEngaged(ctx context.Context, q querier) ([]model.Prospect, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+prospectColumns+` FROM prospects
		WHERE population = ? AND follow_up_date IS NULL
		ORDER BY id`,
		string(model.PopulationEngaged))
	if err != nil {
		return nil, fmt.Errorf("failed to query orphaned engaged: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanProspects(rows)
}

// GetProspectsDue returns prospects of a population due on or before asOf.
// A null follow-up date counts as due for system-paced populations.
func (s *SQLiteStorage) GetProspectsDue(ctx context.Context, population model.Population, asOf time.Time) ([]model.Prospect, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getProspectsDue(ctx, s.db, population, asOf)
}

func (s *SQLiteStorage) getProspectsDue(ctx context.Context, q querier, population model.Population, asOf time.Time) ([]model.Prospect, error) {
	var query string
	if population == model.PopulationEngaged {
		// Engaged prospects always have a follow-up date; orphans are a
		// defect surfaced separately, not silently queued.
		query = `SELECT ` + prospectColumns + ` FROM prospects
			WHERE population = ?
			AND follow_up_date IS NOT NULL AND follow_up_date <= ?
			ORDER BY follow_up_date ASC`
	} else {
		query = `SELECT ` + prospectColumns + ` FROM prospects
			WHERE population = ?
			AND (follow_up_date IS NULL OR follow_up_date <= ?)
			ORDER BY prospect_score DESC, id`
	}

	rows, err := q.QueryContext(ctx, query, string(population), asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query due prospects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanProspects(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProspect(row rowScanner) (*model.Prospect, error) {
	var p model.Prospect
	var title, stage, parkedMonth, source, notes sql.NullString
	var deadReason, lostReason, lostCompetitor sql.NullString
	var followUp, lastContact, deadDate, lostDate sql.NullTime
	var referredBy sql.NullInt64
	var population string

	err := row.Scan(
		&p.ID, &p.CompanyID, &p.FirstName, &p.LastName, &title, &population,
		&stage, &followUp, &lastContact, &parkedMonth,
		&p.AttemptCount, &p.Score, &p.DataConfidence, &source, &notes, &referredBy,
		&deadReason, &deadDate, &lostReason, &lostCompetitor, &lostDate,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Enum parsing happens here and only here: raw strings never leave the
	// storage boundary.
	p.Population, err = model.ParsePopulation(population)
	if err != nil {
		return nil, fmt.Errorf("prospect %d: %w", p.ID, err)
	}
	if stage.Valid {
		parsed, perr := model.ParseEngagementStage(stage.String)
		if perr != nil {
			return nil, fmt.Errorf("prospect %d: %w", p.ID, perr)
		}
		p.Stage = &parsed
	}
	if lostReason.Valid {
		if parsed, ok := model.ParseLostReason(lostReason.String); ok {
			p.LostReason = parsed
		}
	}

	p.Title = title.String
	p.ParkedMonth = parkedMonth.String
	p.Source = source.String
	p.Notes = notes.String
	p.DeadReason = deadReason.String
	p.LostCompetitor = lostCompetitor.String
	if followUp.Valid {
		t := followUp.Time
		p.FollowUpDate = &t
	}
	if lastContact.Valid {
		t := lastContact.Time
		p.LastContactDate = &t
	}
	if deadDate.Valid {
		t := deadDate.Time
		p.DeadDate = &t
	}
	if lostDate.Valid {
		t := lostDate.Time
		p.LostDate = &t
	}
	if referredBy.Valid {
		id := referredBy.Int64
		p.ReferredBy = &id
	}

	return &p, nil
}

func scanProspectRow(row *sql.Row) (*model.Prospect, error) {
	prospect, err := scanProspect(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("prospect: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan prospect: %w", err)
	}
	return prospect, nil
}

func scanProspects(rows *sql.Rows) ([]model.Prospect, error) {
	var prospects []model.Prospect
	for rows.Next() {
		prospect, err := scanProspect(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prospect: %w", err)
		}
		prospects = append(prospects, *prospect)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prospects: %w", err)
	}
	return prospects, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullStage(stage *model.EngagementStage) any {
	if stage == nil {
		return nil
	}
	return string(*stage)
}

func nullID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
