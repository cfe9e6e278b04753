// Package pipeline implements the population state machine and the
// engagement stage sub-machine. It is the only writer of population and
// stage fields, and of the transition activities that record them.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcourtner/leadpipe/internal/cadence"
	"github.com/jcourtner/leadpipe/internal/common"
	"github.com/jcourtner/leadpipe/internal/config"
	"github.com/jcourtner/leadpipe/internal/model"
	"github.com/jcourtner/leadpipe/internal/service"
)

// validTransitions is the complete set of allowed population moves.
// Pairs absent from this table are forbidden; DeadDnc, ClosedWon and
// Partnership have no outgoing edges.
var validTransitions = map[model.Population][]model.Population{
	model.PopulationBroken: {
		model.PopulationUnengaged,
		model.PopulationDeadDNC,
	},
	model.PopulationUnengaged: {
		model.PopulationEngaged,
		model.PopulationDeadDNC,
		model.PopulationLost,
		model.PopulationParked,
		model.PopulationPartnership,
	},
	model.PopulationEngaged: {
		model.PopulationClosedWon,
		model.PopulationLost,
		model.PopulationParked,
		model.PopulationDeadDNC,
	},
	model.PopulationParked: {
		model.PopulationUnengaged,
		model.PopulationDeadDNC,
	},
	// Lost can resurrect to Unengaged (caller gates the 12-month audit),
	// and a hard no from a lost prospect still lands in DNC.
	model.PopulationLost: {
		model.PopulationUnengaged,
		model.PopulationDeadDNC,
	},
}

// CanTransition reports whether a population move is in the table. It is a
// pure lookup used by UI layers to pre-validate; Transition enforces the
// same table.
func CanTransition(from, to model.Population) bool {
	for _, target := range validTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// AvailableTransitions lists the valid targets from a population.
func AvailableTransitions(from model.Population) []model.Population {
	targets := validTransitions[from]
	out := make([]model.Population, len(targets))
	copy(out, targets)
	return out
}

// TransitionOptions carries the per-target inputs of a transition.
type TransitionOptions struct {
	FollowUp       *time.Time            // required when entering Engaged
	Stage          *model.EngagementStage // optional when entering Engaged; defaults to PreDemo
	Reason         string
	ParkedMonth    string // required when entering Parked
	LostReason     model.LostReason
	LostCompetitor string
	CreatedBy      string
}

// Machine applies population and stage transitions atomically.
type Machine struct {
	store     service.Storage
	cfg       *config.Config
	now       func() time.Time
	retryOpts service.RetryOptions
}

// NewMachine creates a state machine over the given storage.
func NewMachine(store service.Storage, cfg *config.Config) *Machine {
	return &Machine{
		store: store,
		cfg:   cfg,
		now:   time.Now,
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Transition moves a prospect to a target population. The read, the
// validation (including the DNC terminality check), the write and the
// audit activity all happen inside one storage transaction, so a prospect
// marked do-not-contact between read and write can never be moved.
// Storage contention retries with backoff; DNC and validation errors
// surface immediately.
func (m *Machine) Transition(ctx context.Context, prospectID int64, target model.Population, opts TransitionOptions) (*model.Prospect, error) {
	var prospect *model.Prospect
	err := common.WithRetry(ctx, func() error {
		var txErr error
		prospect, txErr = m.transitionOnce(ctx, prospectID, target, opts)
		return txErr
	}, m.retryOpts)
	if err != nil {
		return nil, err
	}
	return prospect, nil
}

func (m *Machine) transitionOnce(ctx context.Context, prospectID int64, target model.Population, opts TransitionOptions) (*model.Prospect, error) {
	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	prospect, err := tx.GetProspect(ctx, prospectID)
	if err != nil {
		return nil, err
	}

	from := prospect.Population

	// DNC is terminal. Absolute, no exceptions; the error always reaches
	// the caller.
	if from == model.PopulationDeadDNC {
		err := common.NewUserError(
			fmt.Sprintf("prospect %q is marked do-not-contact and can never be transitioned", prospect.FullName()),
			common.ErrDNCViolation)
		common.LogError(err, "DNC violation blocked", common.Fields{
			"prospect_id": prospectID,
			"target":      string(target),
		})
		return nil, err
	}

	if !CanTransition(from, target) {
		return nil, fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, from, target)
	}

	stageBefore := prospect.Stage
	if err := m.apply(prospect, target, opts); err != nil {
		return nil, err
	}

	if err := CheckInvariants(prospect); err != nil {
		return nil, err
	}

	if err := tx.UpdateProspect(ctx, prospect); err != nil {
		return nil, err
	}

	notes := opts.Reason
	if notes == "" {
		notes = fmt.Sprintf("Transition: %s -> %s", from, target)
	}
	activity := &model.Activity{
		ProspectID:       prospectID,
		Type:             model.ActivityStatusChange,
		PopulationBefore: &from,
		PopulationAfter:  &target,
		StageBefore:      stageBefore,
		StageAfter:       prospect.Stage,
		Notes:            notes,
		CreatedBy:        opts.CreatedBy,
	}
	if _, err := tx.CreateActivity(ctx, activity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Prospect transitioned",
		"prospect_id", prospectID,
		"from", string(from),
		"to", string(target),
		"reason", opts.Reason)

	return prospect, nil
}

// apply mutates the prospect for the target population. Scheduling fields
// never survive a move into a population they don't belong to.
func (m *Machine) apply(prospect *model.Prospect, target model.Population, opts TransitionOptions) error {
	prospect.Population = target

	// Leaving Engaged always clears the stage; entering sets it below.
	prospect.Stage = nil

	switch target {
	case model.PopulationEngaged:
		if opts.FollowUp == nil {
			return common.NewUserError(
				fmt.Sprintf("prospect %q cannot become engaged without a follow-up date", prospect.FullName()),
				common.ErrValidation)
		}
		stage := model.StagePreDemo
		if opts.Stage != nil {
			stage = *opts.Stage
		}
		prospect.Stage = &stage
		prospect.FollowUpDate = opts.FollowUp
		prospect.ParkedMonth = ""

	case model.PopulationParked:
		if opts.ParkedMonth == "" {
			return common.NewUserError(
				fmt.Sprintf("prospect %q cannot be parked without a month", prospect.FullName()),
				common.ErrValidation)
		}
		prospect.ParkedMonth = opts.ParkedMonth
		prospect.FollowUpDate = nil

	case model.PopulationDeadDNC:
		now := m.now()
		prospect.FollowUpDate = nil
		prospect.ParkedMonth = ""
		prospect.DeadReason = model.DeadReasonDNC
		prospect.DeadDate = &now

	case model.PopulationUnengaged:
		// Back on the system-paced cadence: recompute the next contact so
		// reactivated prospects surface in the queue.
		prospect.ParkedMonth = ""
		var last time.Time
		if prospect.LastContactDate != nil {
			last = *prospect.LastContactDate
		}
		next := cadence.NextContact(m.cfg, prospect.AttemptCount, last, m.now())
		prospect.FollowUpDate = &next

	case model.PopulationLost:
		now := m.now()
		prospect.FollowUpDate = nil
		prospect.ParkedMonth = ""
		if opts.LostReason != "" {
			prospect.LostReason = opts.LostReason
		}
		prospect.LostCompetitor = opts.LostCompetitor
		prospect.LostDate = &now

	case model.PopulationClosedWon, model.PopulationPartnership:
		prospect.FollowUpDate = nil
		prospect.ParkedMonth = ""

	case model.PopulationBroken:
		prospect.FollowUpDate = nil
		prospect.ParkedMonth = ""
	}

	return nil
}
