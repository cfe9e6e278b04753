package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcourtner/leadpipe/internal/common"
	"github.com/jcourtner/leadpipe/internal/model"
)

// validStageTransitions lists the ordered stage moves within Engaged.
// Stages advance one step at a time: no fast-track to closing, no
// regression.
var validStageTransitions = map[model.EngagementStage]model.EngagementStage{
	model.StagePreDemo:       model.StageDemoScheduled,
	model.StageDemoScheduled: model.StagePostDemo,
	model.StagePostDemo:      model.StageClosing,
}

// CanTransitionStage reports whether a stage move is allowed.
func CanTransitionStage(from, to model.EngagementStage) bool {
	next, ok := validStageTransitions[from]
	return ok && next == to
}

// TransitionStage advances a prospect's engagement stage. The prospect
// must be in the Engaged population; the move is atomic and writes one
// activity with the stage before and after. Storage contention retries
// with backoff.
func (m *Machine) TransitionStage(ctx context.Context, prospectID int64, target model.EngagementStage, reason string) (*model.Prospect, error) {
	var prospect *model.Prospect
	err := common.WithRetry(ctx, func() error {
		var txErr error
		prospect, txErr = m.transitionStageOnce(ctx, prospectID, target, reason)
		return txErr
	}, m.retryOpts)
	if err != nil {
		return nil, err
	}
	return prospect, nil
}

func (m *Machine) transitionStageOnce(ctx context.Context, prospectID int64, target model.EngagementStage, reason string) (*model.Prospect, error) {
	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	prospect, err := tx.GetProspect(ctx, prospectID)
	if err != nil {
		return nil, err
	}

	if prospect.Population == model.PopulationDeadDNC {
		return nil, common.NewUserError(
			fmt.Sprintf("prospect %q is marked do-not-contact and can never be transitioned", prospect.FullName()),
			common.ErrDNCViolation)
	}
	if prospect.Population != model.PopulationEngaged {
		return nil, fmt.Errorf("%w: prospect %d is %s, stage changes require engaged",
			common.ErrInvalidTransition, prospectID, prospect.Population)
	}

	from := model.StagePreDemo
	if prospect.Stage != nil {
		from = *prospect.Stage
	}

	if !CanTransitionStage(from, target) {
		return nil, fmt.Errorf("%w: stage %s -> %s", common.ErrInvalidTransition, from, target)
	}

	prospect.Stage = &target
	if err := CheckInvariants(prospect); err != nil {
		return nil, err
	}
	if err := tx.UpdateProspect(ctx, prospect); err != nil {
		return nil, err
	}

	notes := reason
	if notes == "" {
		notes = fmt.Sprintf("Stage: %s -> %s", from, target)
	}
	engaged := model.PopulationEngaged
	activity := &model.Activity{
		ProspectID:       prospectID,
		Type:             model.ActivityStatusChange,
		PopulationBefore: &engaged,
		PopulationAfter:  &engaged,
		StageBefore:      &from,
		StageAfter:       &target,
		Notes:            notes,
	}
	if _, err := tx.CreateActivity(ctx, activity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Engagement stage changed",
		"prospect_id", prospectID,
		"from_stage", string(from),
		"to_stage", string(target))

	return prospect, nil
}
