package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsubmit/pkg/forms"
	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/store"
)

func formsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List the loaded form blueprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadRuntime()
			if err != nil {
				return err
			}
			registry, err := loadForms(cfg.FormsDir)
			if err != nil {
				return err
			}
			return printForms(cmd.OutOrStdout(), registry)
		},
	}
}

func submissionsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "submissions <handle>",
		Short: "List stored submissions of a form, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadRuntime()
			if err != nil {
				return err
			}
			st, err := openStore(cfg.Store)
			if err != nil {
				return err
			}
			if closer, ok := st.(io.Closer); ok {
				defer closer.Close()
			}
			return printSubmissions(cmd.Context(), cmd.OutOrStdout(), st, args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print submissions as JSON")
	return cmd
}

func printForms(out io.Writer, registry *forms.Registry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HANDLE\tTITLE\tFIELDS\tSTORE\tEMAILS")
	for _, form := range registry.All() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%d\n", form.Handle, form.Title, len(form.Fields), form.Store, len(form.Emails))
	}
	return tw.Flush()
}

func printSubmissions(ctx context.Context, out io.Writer, st store.Store, handle string, asJSON bool) error {
	submissions, err := st.List(ctx, handle)
	if err != nil {
		return err
	}
	if asJSON {
		if submissions == nil {
			submissions = []model.Submission{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(submissions)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tFIELDS")
	for _, sub := range submissions {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", sub.ID, sub.CreatedAt.Format(time.RFC3339), len(sub.Data))
	}
	return tw.Flush()
}
