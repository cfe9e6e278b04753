package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcourtner/leadpipe/internal/cli"
	"github.com/jcourtner/leadpipe/internal/model"
	"github.com/jcourtner/leadpipe/internal/pipeline"
)

func transitionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transition <prospect-id> [population]",
		Short: "Move a prospect to a new population",
		Long: `Move a prospect through the lifecycle state machine.

With only a prospect id, lists the populations the prospect can move to.
With a target population, performs the transition and records an audit
activity. Do-not-contact is terminal; no transition ever leaves it.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runTransition,
	}

	cmd.Flags().String("follow-up", "", "Follow-up date, required when engaging (format: 2006-01-02)")
	cmd.Flags().String("stage", "", "Engagement stage when engaging (default: pre_demo)")
	cmd.Flags().String("month", "", "Parked month, required when parking (format: 2006-01)")
	cmd.Flags().String("reason", "", "Reason recorded on the audit activity")
	cmd.Flags().String("lost-reason", "", "Why the prospect was lost (lost_to_competitor, not_buying, timing, budget, out_of_business)")
	cmd.Flags().String("competitor", "", "Competitor name when lost to one")

	return cmd
}

func runTransition(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseProspectID(args[0])
	if err != nil {
		return err
	}

	store, cfg, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if len(args) == 1 {
		prospect, err := store.GetProspect(ctx, id)
		if err != nil {
			return err
		}
		targets := pipeline.AvailableTransitions(prospect.Population)
		fmt.Printf("%s is %s\n", prospect.FullName(), cli.FormatPopulation(prospect.Population))
		if len(targets) == 0 {
			fmt.Println(cli.SubtleStyle.Render("No transitions available (terminal population)."))
			return nil
		}
		names := make([]string, len(targets))
		for i, t := range targets {
			names[i] = string(t)
		}
		fmt.Printf("Available: %s\n", strings.Join(names, ", "))
		return nil
	}

	target, err := model.ParsePopulation(args[1])
	if err != nil {
		return fmt.Errorf("unknown population %q (valid: %s)", args[1], populationNames())
	}

	opts := pipeline.TransitionOptions{CreatedBy: "cli"}
	if reason, _ := cmd.Flags().GetString("reason"); reason != "" {
		opts.Reason = reason
	}
	if followUp, _ := cmd.Flags().GetString("follow-up"); followUp != "" {
		when, err := time.Parse("2006-01-02", followUp)
		if err != nil {
			return fmt.Errorf("invalid follow-up date %q: %w", followUp, err)
		}
		opts.FollowUp = &when
	}
	if stageArg, _ := cmd.Flags().GetString("stage"); stageArg != "" {
		stage, err := model.ParseEngagementStage(stageArg)
		if err != nil {
			return fmt.Errorf("unknown stage %q", stageArg)
		}
		opts.Stage = &stage
	}
	if month, _ := cmd.Flags().GetString("month"); month != "" {
		opts.ParkedMonth = month
	}
	if lostReason, _ := cmd.Flags().GetString("lost-reason"); lostReason != "" {
		reason, ok := model.ParseLostReason(lostReason)
		if !ok {
			return fmt.Errorf("unknown lost reason %q", lostReason)
		}
		opts.LostReason = reason
	}
	if competitor, _ := cmd.Flags().GetString("competitor"); competitor != "" {
		opts.LostCompetitor = competitor
	}

	machine := pipeline.NewMachine(store, cfg)
	prospect, err := machine.Transition(ctx, id, target, opts)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s is now %s",
		prospect.FullName(), cli.FormatPopulation(prospect.Population))))
	if prospect.FollowUpDate != nil {
		fmt.Printf("Next follow-up: %s\n", prospect.FollowUpDate.Format("2006-01-02"))
	}
	return nil
}

func populationNames() string {
	names := make([]string, len(model.Populations))
	for i, p := range model.Populations {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
