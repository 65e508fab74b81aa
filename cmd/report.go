package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/workload-radar/internal/dashboard"
	"github.com/spigell/workload-radar/internal/workload"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the workload summary, alerts and tables",
	Run: func(cmd *cobra.Command, _ []string) {
		runReport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("project", "p", "", "show only people on this project")
	reportCmd.Flags().StringSliceP("skill", "s", nil, "show only people holding one of these skills")
	reportCmd.Flags().Bool("items", false, "print the work item table too")
}

func runReport(cmd *cobra.Command) {
	ctx := context.Background()
	p := setup(ctx, "report")

	ds := p.dataset(ctx)

	summary := dashboard.Summarize(ds)
	p.logger.Info("summary",
		zap.Int("active_people", summary.ActivePeople),
		zap.Float64("mean_fte", summary.MeanFTE),
		zap.Float64("mean_actual_progress", summary.MeanActualProgress),
		zap.Float64("mean_planned_progress", summary.MeanPlannedProgress),
		zap.Int("items", summary.Items),
		zap.Int("behind_items", summary.BehindItems),
	)

	for _, alert := range dashboard.Alerts(ds, p.config.Alerts) {
		p.logger.Warn(alert.Message, zap.String("kind", string(alert.Kind)), zap.String("subject", alert.Subject))
	}

	project, _ := cmd.Flags().GetString("project")
	skills, _ := cmd.Flags().GetStringSlice("skill")
	people := dashboard.Run(ctx, p.logger, []dashboard.Filter{
		dashboard.NewProject(project),
		dashboard.NewSkills(skills),
	}, ds.People)

	if err := writePeople(os.Stdout, people); err != nil {
		p.logger.Fatal("printing people", zap.Error(err))
	}

	if withItems, _ := cmd.Flags().GetBool("items"); withItems {
		if err := writeItems(os.Stdout, ds.Items); err != nil {
			p.logger.Fatal("printing work items", zap.Error(err))
		}
	}
}

func writePeople(w io.Writer, people []workload.Person) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPROJECT\tFTE\tBURNOUT\tPRODUCTIVITY\tSKILLS")
	for _, p := range people {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%d\t%s\n",
			p.Name, p.CurrentProject, p.FTE, p.BurnoutRisk, p.Productivity, strings.Join(p.Skills, ", "))
	}
	return tw.Flush()
}

func writeItems(w io.Writer, items []workload.WorkItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tACTUAL\tPLANNED\tSTART\tEND")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%.0f%%\t%.0f%%\t%s\t%s\n",
			item.Title, item.ActualProgress*100, item.PlannedProgress*100, deref(item.Start), deref(item.End))
	}
	return tw.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
