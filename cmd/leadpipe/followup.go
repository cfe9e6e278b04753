package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcourtner/leadpipe/internal/cadence"
	"github.com/jcourtner/leadpipe/internal/cli"
	"github.com/jcourtner/leadpipe/internal/model"
)

func followupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "followup",
		Short: "Manage follow-up scheduling",
	}

	cmd.AddCommand(followupSetCmd())
	cmd.AddCommand(followupOverdueCmd())
	cmd.AddCommand(followupOrphansCmd())
	cmd.AddCommand(followupQueueCmd())

	return cmd
}

func followupSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <prospect-id> <date>",
		Short: "Set a prospect's follow-up date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseProspectID(args[0])
			if err != nil {
				return err
			}
			when, err := time.Parse("2006-01-02", args[1])
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", args[1], err)
			}

			store, cfg, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			reason, _ := cmd.Flags().GetString("reason")

			engine := cadence.NewEngine(store, cfg)
			if err := engine.SetFollowUp(ctx, id, when, reason); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Follow-up for prospect #%d set to %s", id, when.Format("2006-01-02"))))
			return nil
		},
	}
	cmd.Flags().String("reason", "", "Reason recorded on the reminder activity")
	return cmd
}

func followupOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List prospects whose follow-up date has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, cfg, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			now := time.Now()
			engine := cadence.NewEngine(store, cfg)
			prospects, err := engine.Overdue(ctx, now)
			if err != nil {
				return err
			}

			if len(prospects) == 0 {
				fmt.Println(cli.FormatSuccess("Nothing overdue"))
				return nil
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("%d overdue prospects", len(prospects))))
			for i := range prospects {
				p := &prospects[i]
				fmt.Printf("  #%-5d %-30s %-12s %s\n",
					p.ID, p.FullName(), cli.FormatPopulation(p.Population),
					cli.FormatOverdue(*p.FollowUpDate, now))
			}
			return nil
		},
	}
}

func followupOrphansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "Find engaged prospects missing a follow-up date",
		Long: `Find engaged prospects with no follow-up date.

An engaged prospect without a follow-up date is invisible to the queue
and will silently go cold; the state machine prevents creating this
state, so any hits indicate data that bypassed it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, cfg, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := cadence.NewEngine(store, cfg)
			prospects, err := engine.OrphanedEngaged(ctx)
			if err != nil {
				return err
			}

			if len(prospects) == 0 {
				fmt.Println(cli.FormatSuccess("No orphaned engaged prospects"))
				return nil
			}

			fmt.Println(cli.FormatError(fmt.Sprintf(
				"%d engaged prospects have no follow-up date:", len(prospects))))
			for i := range prospects {
				fmt.Printf("  #%-5d %s\n", prospects[i].ID, prospects[i].FullName())
			}
			return nil
		},
	}
}

func followupQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show today's ordered contact queue",
		Long: `Show today's contact queue.

Engaged prospects come first, ordered by stage (closing before pre_demo)
then company timezone east to west. Unengaged prospects follow, ordered
by score.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, cfg, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := cadence.NewEngine(store, cfg)
			prospects, err := engine.TodaysQueue(ctx, time.Now())
			if err != nil {
				return err
			}

			if len(prospects) == 0 {
				fmt.Println(cli.FormatSuccess("Queue is empty"))
				return nil
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("Today's queue (%d prospects)", len(prospects))))
			for i := range prospects {
				p := &prospects[i]
				detail := fmt.Sprintf("score %d", p.Score)
				if p.Population == model.PopulationEngaged && p.Stage != nil {
					detail = string(*p.Stage)
				}
				fmt.Printf("  %2d. #%-5d %-30s %-12s %s\n",
					i+1, p.ID, p.FullName(), cli.FormatPopulation(p.Population), detail)
			}
			return nil
		},
	}
}
