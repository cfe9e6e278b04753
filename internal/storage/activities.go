package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcourtner/leadpipe/internal/model"
)

// CreateActivity appends an activity. Activities are immutable; there is
// deliberately no update or delete.
func (s *SQLiteStorage) CreateActivity(ctx context.Context, activity *model.Activity) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.createActivity(ctx, s.db, activity)
}

func (s *SQLiteStorage) createActivity(ctx context.Context, q querier, activity *model.Activity) (int64, error) {
	if err := validateActivity(activity); err != nil {
		return 0, err
	}

	createdBy := activity.CreatedBy
	if createdBy == "" {
		createdBy = "user"
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO activities (
			prospect_id, activity_type, outcome, population_before,
			population_after, stage_before, stage_after, follow_up_set,
			notes, created_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.ProspectID,
		string(activity.Type),
		nullString(string(activity.Outcome)),
		nullPopulation(activity.PopulationBefore),
		nullPopulation(activity.PopulationAfter),
		nullStage(activity.StageBefore),
		nullStage(activity.StageAfter),
		nullTime(activity.FollowUpSet),
		nullString(activity.Notes),
		createdBy,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create activity: %w", mapBusy(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get activity ID: %w", err)
	}
	activity.ID = id
	return id, nil
}

// GetActivities returns a prospect's activity history, oldest first.
func (s *SQLiteStorage) GetActivities(ctx context.Context, prospectID int64) ([]model.Activity, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getActivities(ctx, s.db, prospectID)
}

func (s *SQLiteStorage) getActivities(ctx context.Context, q querier, prospectID int64) ([]model.Activity, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, prospect_id, activity_type, outcome, population_before,
			population_after, stage_before, stage_after, follow_up_set,
			notes, created_by, created_at
		FROM activities WHERE prospect_id = ? ORDER BY id`, prospectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var activities []model.Activity
	for rows.Next() {
		var a model.Activity
		var activityType string
		var outcome, popBefore, popAfter, stageBefore, stageAfter, notes sql.NullString
		var followUpSet sql.NullTime
		if err := rows.Scan(&a.ID, &a.ProspectID, &activityType, &outcome,
			&popBefore, &popAfter, &stageBefore, &stageAfter, &followUpSet,
			&notes, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}

		a.Type = model.ActivityType(activityType)
		a.Outcome = model.ActivityOutcome(outcome.String)
		a.Notes = notes.String
		if popBefore.Valid {
			p, perr := model.ParsePopulation(popBefore.String)
			if perr != nil {
				return nil, fmt.Errorf("activity %d: %w", a.ID, perr)
			}
			a.PopulationBefore = &p
		}
		if popAfter.Valid {
			p, perr := model.ParsePopulation(popAfter.String)
			if perr != nil {
				return nil, fmt.Errorf("activity %d: %w", a.ID, perr)
			}
			a.PopulationAfter = &p
		}
		if stageBefore.Valid {
			st, perr := model.ParseEngagementStage(stageBefore.String)
			if perr != nil {
				return nil, fmt.Errorf("activity %d: %w", a.ID, perr)
			}
			a.StageBefore = &st
		}
		if stageAfter.Valid {
			st, perr := model.ParseEngagementStage(stageAfter.String)
			if perr != nil {
				return nil, fmt.Errorf("activity %d: %w", a.ID, perr)
			}
			a.StageAfter = &st
		}
		if followUpSet.Valid {
			t := followUpSet.Time
			a.FollowUpSet = &t
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return activities, nil
}

func nullPopulation(p *model.Population) any {
	if p == nil {
		return nil
	}
	return string(*p)
}
