package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wikimdb/internal/pipeline"
	"wikimdb/internal/rating"
)

type outcomeView struct {
	Subject    string  `json:"subject"`
	State      string  `json:"state"`
	ExternalID string  `json:"external_id,omitempty"`
	Rating     *string `json:"rating"`
	Badge      string  `json:"badge,omitempty"`
	Cached     bool    `json:"cached"`
	Reason     string  `json:"reason,omitempty"`
}

func newOutcomeView(o pipeline.Outcome) outcomeView {
	view := outcomeView{
		Subject: string(o.Subject),
		State:   o.State.String(),
		Rating:  o.Rating,
		Cached:  o.Cached,
		Reason:  o.Reason,
	}
	if o.ExternalID != nil {
		view.ExternalID = o.ExternalID.String()
	}
	if o.Rating != nil {
		view.Badge = rating.Badge(*o.Rating)
	}
	return view
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var current string

	cmd := &cobra.Command{
		Use:   "resolve <title>...",
		Short: "Resolve page titles to ratings",
		Long: "Resolve one or more encyclopedia page titles to a rating using the configured provider.\n" +
			"Titles may be bare (\"The Matrix\") or article paths (\"/wiki/The_Matrix\").",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjects := parseSubjects(args)
			if len(subjects) == 0 {
				return errors.New("no valid titles given")
			}
			return ctx.withRun(cmd, func(run *pipeline.Run) error {
				outcomes := run.ResolveOutcomes(cmd.Context(), parseSubject(current), subjects)
				views := make([]outcomeView, 0, len(outcomes))
				for _, o := range outcomes {
					views = append(views, newOutcomeView(o))
				}
				if jsonOutput {
					return writeJSON(cmd, views)
				}
				printOutcomes(cmd, views)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&current, "current", "", "Title resolved ahead of the others")
	return cmd
}

func printOutcomes(cmd *cobra.Command, views []outcomeView) {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		badge := "-"
		if v.Badge != "" {
			badge = v.Badge
		}
		rows = append(rows, []string{v.Subject, v.ExternalID, badge, yesNo(v.Cached), v.Reason})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(out, []string{"Subject", "ID", "Rating", "Cached", "Note"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft}))
}
