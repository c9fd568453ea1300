package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"quiz-performance-service/internal/performance"
	"quiz-performance-service/internal/report"
)

// NewReportCmd writes a user's filtered performance history as CSV.
func NewReportCmd(configPath *string) *cobra.Command {
	var (
		userID string
		filter string
		output string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export a user's performance history as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			service, cleanup, err := buildService(ctx, cfg)
			defer cleanup()
			if err != nil {
				return err
			}

			overview, err := service.Overview(ctx, userID, performance.ViewState{Filter: performance.ParseFilter(filter)})
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create report file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return report.WriteCSV(w, overview.View)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user whose attempts to export")
	cmd.Flags().StringVar(&filter, "filter", string(performance.FilterAll), "all, passed or failed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
