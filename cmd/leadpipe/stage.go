package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jcourtner/leadpipe/internal/cli"
	"github.com/jcourtner/leadpipe/internal/model"
	"github.com/jcourtner/leadpipe/internal/pipeline"
)

func stageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage <prospect-id> <stage>",
		Short: "Advance an engaged prospect's stage",
		Long: `Advance an engaged prospect one stage in the deal sub-machine.

Stages move strictly forward one step at a time:
pre_demo -> demo_scheduled -> post_demo -> closing.`,
		Args: cobra.ExactArgs(2),
		RunE: runStage,
	}

	cmd.Flags().String("reason", "", "Reason recorded on the audit activity")

	return cmd
}

func runStage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseProspectID(args[0])
	if err != nil {
		return err
	}
	target, err := model.ParseEngagementStage(args[1])
	if err != nil {
		return fmt.Errorf("unknown stage %q (valid: pre_demo, demo_scheduled, post_demo, closing)", args[1])
	}

	store, cfg, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reason, _ := cmd.Flags().GetString("reason")

	machine := pipeline.NewMachine(store, cfg)
	prospect, err := machine.TransitionStage(ctx, id, target, reason)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s advanced to %s",
		prospect.FullName(), *prospect.Stage)))
	return nil
}
