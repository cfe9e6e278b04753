package pipeline

import (
	"fmt"
	"regexp"

	"github.com/jcourtner/leadpipe/internal/common"
	"github.com/jcourtner/leadpipe/internal/model"
)

var parkedMonthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// CheckInvariants verifies the structural invariants of a candidate
// prospect state. It is pure: both the state machine and the intake funnel
// call it before any write, so a violating state is never persisted.
func CheckInvariants(p *model.Prospect) error {
	if p == nil {
		return fmt.Errorf("%w: nil prospect", common.ErrValidation)
	}

	switch p.Population {
	case model.PopulationEngaged:
		if p.FollowUpDate == nil {
			return common.NewUserError(
				fmt.Sprintf("engaged prospect %q has no follow-up date", p.FullName()),
				common.ErrValidation)
		}
		if p.Stage == nil {
			return common.NewUserError(
				fmt.Sprintf("engaged prospect %q has no engagement stage", p.FullName()),
				common.ErrValidation)
		}
	case model.PopulationParked:
		if p.ParkedMonth == "" {
			return common.NewUserError(
				fmt.Sprintf("parked prospect %q has no parked month", p.FullName()),
				common.ErrValidation)
		}
	case model.PopulationDeadDNC:
		// Terminal state carries no scheduling obligations.
		if p.FollowUpDate != nil || p.ParkedMonth != "" {
			return common.NewUserError(
				fmt.Sprintf("do-not-contact prospect %q must not carry scheduling fields", p.FullName()),
				common.ErrValidation)
		}
	}

	if p.Stage != nil && p.Population != model.PopulationEngaged {
		return common.NewUserError(
			fmt.Sprintf("prospect %q has engagement stage %s outside the engaged population",
				p.FullName(), *p.Stage),
			common.ErrValidation)
	}

	if p.ParkedMonth != "" && !parkedMonthRe.MatchString(p.ParkedMonth) {
		return common.NewUserError(
			fmt.Sprintf("parked month %q is not in YYYY-MM form", p.ParkedMonth),
			common.ErrValidation)
	}

	return nil
}
