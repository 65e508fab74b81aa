package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/workload-radar/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump the people and work item tables to a JSON file",
	Run: func(_ *cobra.Command, _ []string) {
		runExport()
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("dir", "o", "", "target directory (default is the system temp directory)")

	viper.BindPFlag("export.dir", exportCmd.Flags().Lookup("dir"))
}

func runExport() {
	ctx := context.Background()
	p := setup(ctx, "export")

	ds := p.dataset(ctx)

	filename, err := report.New(ds, time.Now()).WriteFile(p.config.exportDir())
	if err != nil {
		p.logger.Fatal("dump results to file", zap.Error(err))
	}

	p.logger.Info("dumping result to file", zap.String("filename", filename))
}
