package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/contact-extractor/internal/contact"
	"github.com/JakeFAU/contact-extractor/internal/export"
	"github.com/JakeFAU/contact-extractor/internal/id/uuid"
)

func newExtractCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "extract URL...",
		Short: "Extracts addresses from the given URLs and prints CSV",
		Long: `Runs the extraction pipeline synchronously over the given URLs and
writes a URL,Email CSV to stdout or to --output.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write CSV to this file instead of stdout")
	return cmd
}

func runExtract(cmd *cobra.Command, args []string, output string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	urls := make([]string, 0, len(args))
	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" {
			urls = append(urls, arg)
		}
	}
	if len(urls) == 0 {
		return fmt.Errorf("%w: at least one URL required", contact.ErrValidation)
	}

	jobID, err := uuid.NewGenerator().NewID()
	if err != nil {
		return fmt.Errorf("job id: %w", err)
	}
	ctx := cmd.Context()
	store := appInstance.JobStore()
	if err := store.CreateJob(ctx, contact.NewJob(jobID, urls, appInstance.Now())); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	job, err := store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	appInstance.Worker().Process(ctx, job)

	job, err = store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job results: %w", err)
	}
	body, err := export.CSV(job.Results)
	if err != nil {
		return fmt.Errorf("render csv: %w", err)
	}
	body = append(body, '\n')

	if output == "" {
		if _, err := cmd.OutOrStdout().Write(body); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	} else if err := os.WriteFile(output, body, 0o644); err != nil { //nolint:gosec // exported results are meant to be shared
		return fmt.Errorf("write %s: %w", output, err)
	}
	appInstance.Logger().Info("extraction finished",
		zap.String("job_id", jobID),
		zap.Int("urls", len(urls)),
		zap.Int("emails", len(job.Results)),
		zap.Int("successful_urls", job.SuccessCount),
	)
	return nil
}
