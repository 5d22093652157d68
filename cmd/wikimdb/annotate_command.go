package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wikimdb/internal/pagescan"
	"wikimdb/internal/pipeline"
	"wikimdb/internal/rating"
	"wikimdb/internal/subject"
)

type annotationView struct {
	Page   string      `json:"page"`
	Rating *string     `json:"rating"`
	Badge  string      `json:"badge,omitempty"`
	Links  []linkBadge `json:"links"`
}

type linkBadge struct {
	Subject string `json:"subject"`
	Links   int    `json:"links"`
	Badge   string `json:"badge,omitempty"`
}

func newAnnotateCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var showAll bool

	cmd := &cobra.Command{
		Use:   "annotate <title>",
		Short: "Rate a page and every article it links to",
		Long: "Fetch the rendered page, resolve its own rating first, then resolve each linked\n" +
			"article and print the badge it would carry.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current := parseSubject(args[0])
			if current == "" {
				return errors.New("page title required")
			}
			return ctx.withRun(cmd, func(run *pipeline.Run) error {
				html, err := run.Wiki.ArticleHTML(cmd.Context(), current)
				if err != nil {
					return fmt.Errorf("fetch %s: %w", current, err)
				}
				page, err := pagescan.Scan(html, current)
				if err != nil {
					return err
				}
				results := run.ResolveAll(cmd.Context(), current, page.Subjects())
				view := buildAnnotation(page, results, showAll)
				if jsonOutput {
					return writeJSON(cmd, view)
				}
				printAnnotation(cmd, view)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&showAll, "all", false, "Include links without a rating")
	return cmd
}

func buildAnnotation(page pagescan.Page, results map[subject.Subject]*string, showAll bool) annotationView {
	view := annotationView{Page: string(page.Current), Rating: results[page.Current], Links: []linkBadge{}}
	if view.Rating != nil {
		view.Badge = rating.Badge(*view.Rating)
	}
	for _, row := range pagescan.Annotate(page, results) {
		if row.Badge == "" && !showAll {
			continue
		}
		view.Links = append(view.Links, linkBadge{Subject: string(row.Subject), Links: row.Links, Badge: row.Badge})
	}
	return view
}

func printAnnotation(cmd *cobra.Command, view annotationView) {
	out := cmd.OutOrStdout()
	title := view.Page
	if view.Badge != "" {
		title += " " + view.Badge
	}
	fmt.Fprintln(out, title)
	if len(view.Links) == 0 {
		fmt.Fprintln(out, "No rated links")
		return
	}
	rows := make([][]string, 0, len(view.Links))
	for _, l := range view.Links {
		badge := l.Badge
		if badge == "" {
			badge = "-"
		}
		rows = append(rows, []string{l.Subject, strconv.Itoa(l.Links), badge})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Link", "Count", "Rating"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
}
