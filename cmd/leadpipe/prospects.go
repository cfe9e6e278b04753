package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jcourtner/leadpipe/internal/cli"
	"github.com/jcourtner/leadpipe/internal/model"
	"github.com/jcourtner/leadpipe/internal/service"
)

func prospectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prospects",
		Short: "List and inspect prospects",
	}

	cmd.AddCommand(prospectsListCmd())
	cmd.AddCommand(prospectsShowCmd())

	return cmd
}

func prospectsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prospects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter := service.ProspectFilter{}
			if popArg, _ := cmd.Flags().GetString("population"); popArg != "" {
				population, err := model.ParsePopulation(popArg)
				if err != nil {
					return fmt.Errorf("unknown population %q (valid: %s)", popArg, populationNames())
				}
				filter.Population = &population
			}
			filter.Limit, _ = cmd.Flags().GetInt("limit")

			prospects, err := store.GetProspects(ctx, filter)
			if err != nil {
				return err
			}

			if len(prospects) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No prospects found."))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf(
				"%-6s %-30s %-12s %-14s %-10s", "ID", "Name", "Population", "Stage", "Follow-up")))
			for i := range prospects {
				p := &prospects[i]
				stage := "—"
				if p.Stage != nil {
					stage = string(*p.Stage)
				}
				fmt.Printf("%-6d %-30s %-12s %-14s %s\n",
					p.ID, p.FullName(), cli.FormatPopulation(p.Population),
					stage, cli.FormatDate(p.FollowUpDate))
			}
			return nil
		},
	}

	cmd.Flags().String("population", "", "Filter by population")
	cmd.Flags().Int("limit", 50, "Maximum rows to show")

	return cmd
}

func prospectsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <prospect-id>",
		Short: "Show a prospect with contact methods and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseProspectID(args[0])
			if err != nil {
				return err
			}

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			prospect, err := store.GetProspect(ctx, id)
			if err != nil {
				return err
			}
			company, err := store.GetCompany(ctx, prospect.CompanyID)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle(prospect.FullName()))
			fmt.Printf("Company:     %s\n", company.Name)
			if prospect.Title != "" {
				fmt.Printf("Title:       %s\n", prospect.Title)
			}
			fmt.Printf("Population:  %s\n", cli.FormatPopulation(prospect.Population))
			if prospect.Stage != nil {
				fmt.Printf("Stage:       %s\n", *prospect.Stage)
			}
			fmt.Printf("Follow-up:   %s\n", cli.FormatDate(prospect.FollowUpDate))
			fmt.Printf("Last contact: %s\n", cli.FormatDate(prospect.LastContactDate))
			fmt.Printf("Attempts:    %d\n", prospect.AttemptCount)
			if prospect.ParkedMonth != "" {
				fmt.Printf("Parked until: %s\n", prospect.ParkedMonth)
			}
			if prospect.Population == model.PopulationDeadDNC {
				fmt.Println(cli.FormatError("DO NOT CONTACT"))
			}
			if prospect.LostReason != "" {
				fmt.Printf("Lost:        %s", prospect.LostReason)
				if prospect.LostCompetitor != "" {
					fmt.Printf(" (to %s)", prospect.LostCompetitor)
				}
				fmt.Println()
			}

			methods, err := store.GetContactMethods(ctx, id)
			if err != nil {
				return err
			}
			if len(methods) > 0 {
				fmt.Println(cli.BoldStyle.Render("\nContact methods:"))
				for i := range methods {
					m := &methods[i]
					icon := cli.MailIcon
					if m.Type == model.ContactPhone {
						icon = cli.PhoneIcon
					}
					primary := ""
					if m.IsPrimary {
						primary = cli.SubtleStyle.Render(" (primary)")
					}
					fmt.Printf("  %s %s%s\n", icon, m.Value, primary)
				}
			}

			activities, err := store.GetActivities(ctx, id)
			if err != nil {
				return err
			}
			if len(activities) > 0 {
				fmt.Println(cli.BoldStyle.Render("\nHistory:"))
				for i := range activities {
					a := &activities[i]
					fmt.Printf("  %s  %-14s %s\n",
						a.CreatedAt.Format("2006-01-02"), a.Type, a.Notes)
				}
			}

			return nil
		},
	}
}
