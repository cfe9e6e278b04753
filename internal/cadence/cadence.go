// Package cadence computes when a prospect must next be touched. Two
// disjoint modes, selected by population: system-paced prospects get a
// computed date from the interval table, engaged prospects get exactly the
// date they asked for.
package cadence

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jcourtner/leadpipe/internal/common"
	"github.com/jcourtner/leadpipe/internal/config"
	"github.com/jcourtner/leadpipe/internal/model"
	"github.com/jcourtner/leadpipe/internal/service"
)

// NextContact returns the system-paced next contact date. The interval for
// the current attempt count supplies the minimum gap, counted in business
// days from the last attempt. With no prior attempt the clock starts now.
func NextContact(cfg *config.Config, attemptCount int, lastAttempt, now time.Time) time.Time {
	if lastAttempt.IsZero() {
		return AddBusinessDays(now, cfg.Interval(1).MinDays)
	}
	if attemptCount < 1 {
		attemptCount = 1
	}
	return AddBusinessDays(lastAttempt, cfg.Interval(attemptCount).MinDays)
}

// AddBusinessDays advances a date by the given number of weekdays.
func AddBusinessDays(start time.Time, days int) time.Time {
	result := start
	added := 0
	for added < days {
		result = result.AddDate(0, 0, 1)
		if wd := result.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return result
}

// Engine owns follow-up scheduling against the store. It holds no mutable
// state of its own; the config is loaded once and treated as immutable.
type Engine struct {
	store     service.Storage
	cfg       *config.Config
	retryOpts service.RetryOptions
}

// NewEngine creates a cadence engine.
func NewEngine(store service.Storage, cfg *config.Config) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg,
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// SetFollowUp records a prospect-paced follow-up date. This is the only
// legal path by which an engaged prospect gets its follow-up date; the
// engine never overwrites it automatically. Atomic: the prospect update
// and the audit activity commit together. Storage contention retries
// with backoff.
func (e *Engine) SetFollowUp(ctx context.Context, prospectID int64, when time.Time, reason string) error {
	if when.IsZero() {
		return common.NewUserError("follow-up date is required", common.ErrValidation)
	}

	return common.WithRetry(ctx, func() error {
		return e.setFollowUpOnce(ctx, prospectID, when, reason)
	}, e.retryOpts)
}

func (e *Engine) setFollowUpOnce(ctx context.Context, prospectID int64, when time.Time, reason string) error {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	prospect, err := tx.GetProspect(ctx, prospectID)
	if err != nil {
		return err
	}

	if prospect.Population == model.PopulationDeadDNC {
		return common.NewUserError(
			fmt.Sprintf("prospect %q is marked do-not-contact; no follow-up may be scheduled", prospect.FullName()),
			common.ErrDNCViolation)
	}

	prospect.FollowUpDate = &when
	if err := tx.UpdateProspect(ctx, prospect); err != nil {
		return err
	}

	notes := reason
	if notes == "" {
		notes = fmt.Sprintf("Follow-up set for %s", when.Format("2006-01-02"))
	}
	activity := &model.Activity{
		ProspectID:  prospectID,
		Type:        model.ActivityReminder,
		FollowUpSet: &when,
		Notes:       notes,
	}
	if _, err := tx.CreateActivity(ctx, activity); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("Follow-up set",
		"prospect_id", prospectID,
		"follow_up_date", when.Format("2006-01-02"))
	return nil
}

// Overdue returns non-terminal prospects whose follow-up date has passed,
// most overdue first.
func (e *Engine) Overdue(ctx context.Context, asOf time.Time) ([]model.Prospect, error) {
	return e.store.GetOverdueProspects(ctx, asOf)
}

// OrphanedEngaged returns engaged prospects with no follow-up date. The
// invariants make this structurally impossible; the query is a detective
// control, and any non-empty result is a defect to surface.
func (e *Engine) OrphanedEngaged(ctx context.Context) ([]model.Prospect, error) {
	orphans, err := e.store.GetOrphanedEngaged(ctx)
	if err != nil {
		return nil, err
	}
	if len(orphans) > 0 {
		common.LogError(common.ErrValidation, "Orphaned engaged prospects detected", common.Fields{
			"count": len(orphans),
		})
	}
	return orphans, nil
}

// Stage urgency for queue ordering: closer to the money, earlier in the day.
var stagePriority = map[model.EngagementStage]int{
	model.StageClosing:       4,
	model.StagePostDemo:      3,
	model.StageDemoScheduled: 2,
	model.StagePreDemo:       1,
}

// Call-window ordering: East Coast first in the morning.
var timezonePriority = map[string]int{
	"eastern":  1,
	"central":  2,
	"mountain": 3,
	"pacific":  4,
	"alaska":   5,
	"hawaii":   6,
}

// TodaysQueue builds the work queue for a day: engaged follow-ups due or
// overdue first, ordered by stage urgency then company timezone, then
// unengaged prospects due for their next attempt ordered by score.
func (e *Engine) TodaysQueue(ctx context.Context, asOf time.Time) ([]model.Prospect, error) {
	engaged, err := e.store.GetProspectsDue(ctx, model.PopulationEngaged, asOf)
	if err != nil {
		return nil, err
	}

	tzByCompany := make(map[int64]int)
	tzPriority := func(companyID int64) int {
		if p, ok := tzByCompany[companyID]; ok {
			return p
		}
		p := timezonePriority[model.DefaultTimezone]
		if company, cerr := e.store.GetCompany(ctx, companyID); cerr == nil {
			if prio, ok := timezonePriority[company.Timezone]; ok {
				p = prio
			}
		}
		tzByCompany[companyID] = p
		return p
	}

	sort.SliceStable(engaged, func(i, j int) bool {
		pi, pj := stagePriorityOf(&engaged[i]), stagePriorityOf(&engaged[j])
		if pi != pj {
			return pi > pj
		}
		return tzPriority(engaged[i].CompanyID) < tzPriority(engaged[j].CompanyID)
	})

	unengaged, err := e.store.GetProspectsDue(ctx, model.PopulationUnengaged, asOf)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(unengaged, func(i, j int) bool {
		if unengaged[i].Score != unengaged[j].Score {
			return unengaged[i].Score > unengaged[j].Score
		}
		return tzPriority(unengaged[i].CompanyID) < tzPriority(unengaged[j].CompanyID)
	})

	return append(engaged, unengaged...), nil
}

func stagePriorityOf(p *model.Prospect) int {
	if p.Stage == nil {
		return stagePriority[model.StagePreDemo]
	}
	return stagePriority[*p.Stage]
}
