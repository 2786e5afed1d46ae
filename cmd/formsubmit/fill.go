package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsubmit/pkg/component"
	"github.com/goliatone/go-formsubmit/pkg/prompt"
)

func fillCmd() *cobra.Command {
	var (
		referer  string
		attempts int
	)

	cmd := &cobra.Command{
		Use:   "fill <handle>",
		Short: "Fill in and submit a form from the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.close(context.Background()) }()

			c, err := component.New(a.forms, args[0],
				component.WithPipeline(a.pipeline),
				component.WithMetrics(a.metrics),
			)
			if err != nil {
				return err
			}

			filler := prompt.NewFiller(prompt.NewSurveyDriver(), prompt.WithAttempts(attempts))
			result, err := filler.Fill(cmd.Context(), c, referer)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if c.Flash() {
				fmt.Fprintln(out, "Submission received.")
			}
			if result.Stored {
				fmt.Fprintf(out, "Stored as %s\n", result.Submission.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&referer, "site-url", "", "page URL the form was filled on, used to pick the site")
	cmd.Flags().IntVar(&attempts, "attempts", 3, "how many times an invalid form is re-asked")
	return cmd
}
