package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcourtner/leadpipe/internal/cli"
	"github.com/jcourtner/leadpipe/internal/importers"
	"github.com/jcourtner/leadpipe/internal/intake"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import prospects from a CSV file",
		Long: `Import prospect records from a CSV file through the intake funnel.

Records are analyzed first: exact email matches and close name+company
matches merge into existing prospects, records matching a do-not-contact
prospect are blocked, and records missing both email and phone land in
the broken population for repair. Nothing is written until you confirm.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("source", "", "Source name recorded on imported prospects (default: file name)")
	cmd.Flags().Bool("dry-run", false, "Analyze and show the preview without committing")
	cmd.Flags().BoolP("yes", "y", false, "Commit without prompting")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	sourceName, _ := cmd.Flags().GetString("source")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	assumeYes, _ := cmd.Flags().GetBool("yes")

	if sourceName == "" {
		sourceName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	records, err := importers.ParseCSVFile(path)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println(cli.FormatWarning("No usable records found in file"))
		return nil
	}

	store, cfg, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	funnel := intake.NewFunnel(store, cfg)
	preview, err := funnel.Analyze(ctx, records, sourceName, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	printPreview(preview)

	if dryRun {
		fmt.Println(cli.SubtleStyle.Render("Dry run; nothing committed."))
		return nil
	}
	if !preview.CanCommit() {
		fmt.Println(cli.FormatWarning("Nothing to commit"))
		return nil
	}

	if !assumeYes && !confirm(fmt.Sprintf("Commit %d new, %d merge, %d incomplete records?",
		len(preview.New), len(preview.Merge), len(preview.Incomplete))) {
		fmt.Println(cli.SubtleStyle.Render("Aborted."))
		return nil
	}

	bar := cli.NewProgressBar(os.Stderr,
		len(preview.New)+len(preview.Incomplete)+len(preview.Merge),
		"Importing prospects...")
	result, err := funnel.Commit(ctx, preview, func(done, _ int) {
		_ = bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Imported %d prospects (%d merged, %d broken) as source #%d",
		result.Imported, result.Merged, result.Broken, result.SourceID)))

	if len(result.Failed) > 0 {
		fmt.Println(cli.FormatError(fmt.Sprintf("%d records failed:", len(result.Failed))))
		for _, failure := range result.Failed {
			fmt.Printf("  %s %s: %v\n", cli.ErrorIcon, failure.Record.FullName(), failure.Err)
		}
	}

	return nil
}

func printPreview(preview *intake.Preview) {
	fmt.Println(cli.FormatTitle(fmt.Sprintf("Import preview: %s (%d records)",
		preview.Filename, preview.TotalRecords())))

	fmt.Printf("  %s %d new\n", cli.SuccessIcon, len(preview.New))
	fmt.Printf("  %s %d merge into existing prospects\n", cli.SuccessIcon, len(preview.Merge))
	fmt.Printf("  %s %d need review\n", cli.WarningIcon, len(preview.NeedsReview))
	fmt.Printf("  %s %d blocked (do-not-contact)\n", cli.DNCIcon, len(preview.BlockedDNC))
	fmt.Printf("  %s %d incomplete (will import as broken)\n", cli.WarningIcon, len(preview.Incomplete))

	for _, analysis := range preview.Merge {
		fmt.Printf("  merge: %s -> prospect #%d (%s, %.0f%%)\n",
			analysis.Record.FullName(), analysis.MatchedProspectID,
			analysis.MatchReason, analysis.MatchConfidence*100)
	}
	for _, analysis := range preview.NeedsReview {
		fmt.Println(cli.WarningStyle.Render(fmt.Sprintf(
			"  review: %s shares a phone with prospect #%d",
			analysis.Record.FullName(), analysis.MatchedProspectID)))
	}
	for _, analysis := range preview.BlockedDNC {
		fmt.Println(cli.ErrorStyle.Render(fmt.Sprintf(
			"  blocked: %s matches a do-not-contact prospect",
			analysis.Record.FullName())))
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
