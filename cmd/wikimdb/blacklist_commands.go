package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wikimdb/internal/blacklist"
	"wikimdb/internal/logging"
)

func newBlacklistCommand(ctx *commandContext) *cobra.Command {
	var file string

	blacklistCmd := &cobra.Command{
		Use:         "blacklist",
		Short:       "Inspect the subject blacklist",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	blacklistCmd.PersistentFlags().StringVar(&file, "file", "", "Pattern file (defaults to blacklist.path, then the bundled list)")

	loadFilter := func() *blacklist.Filter {
		path := strings.TrimSpace(file)
		if path == "" {
			if cfg := ctx.configValue(); cfg != nil {
				path = cfg.Blacklist.Path
			}
		}
		logger, err := ctx.ensureLogger()
		if err != nil {
			logger = logging.NewNop()
		}
		return blacklist.Load(path, logger)
	}

	blacklistCmd.AddCommand(&cobra.Command{
		Use:   "check <title>...",
		Short: "Report whether titles are excluded",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := loadFilter()
			out := cmd.OutOrStdout()
			for _, subj := range parseSubjects(args) {
				if pattern, ok := filter.Match(subj); ok {
					fmt.Fprintf(out, "%s: excluded (%s)\n", subj, pattern)
					continue
				}
				fmt.Fprintf(out, "%s: allowed\n", subj)
			}
			return nil
		},
	})

	blacklistCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the active patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := loadFilter()
			out := cmd.OutOrStdout()
			for _, pattern := range filter.Patterns() {
				fmt.Fprintln(out, pattern)
			}
			return nil
		},
	})

	return blacklistCmd
}
