package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <template>",
	Short: "Generate pre-defined reports",
	Long: `Generate formatted reports using pre-defined templates.

Available templates:
  daily   - Queue summary and today's photos
  backlog - Photos still waiting for upload, failed ones first

Examples:
  sitephoto report daily
  sitephoto report backlog`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	switch template := args[0]; template {
	case "daily":
		return generateDailyReport()
	case "backlog":
		return generateBacklogReport()
	default:
		return fmt.Errorf("unknown report template: %s (available: daily, backlog)", template)
	}
}

func generateDailyReport() error {
	fmt.Println("Daily Photo Report")
	fmt.Println("══════════════════")
	fmt.Println()

	fmt.Println("Summary")
	fmt.Println("───────")
	if err := withStatsFlags(func() error { return runStats(nil, nil) }); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Today's Photos")
	fmt.Println("──────────────")

	return withListFlags(func() error {
		listToday = true
		return runList(nil, nil)
	})
}

func generateBacklogReport() error {
	fmt.Println("Upload Backlog")
	fmt.Println("══════════════")
	fmt.Println()

	for _, status := range []string{"failed", "uploading", "pending"} {
		fmt.Printf("%s\n", status)
		err := withListFlags(func() error {
			listStatus = status
			return runList(nil, nil)
		})
		if err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

// withListFlags runs fn with the list flags cleared and restores them afterwards
func withListFlags(fn func() error) error {
	project, status, today, since, asJSON, asToon := listProject, listStatus, listToday, listSince, listJSON, listToon
	listProject, listStatus, listToday, listSince, listJSON, listToon = "", "", false, "", false, false
	defer func() {
		listProject, listStatus, listToday, listSince, listJSON, listToon = project, status, today, since, asJSON, asToon
	}()
	return fn()
}

func withStatsFlags(fn func() error) error {
	asJSON, asToon := statsJSON, statsToon
	statsJSON, statsToon = false, false
	defer func() { statsJSON, statsToon = asJSON, asToon }()
	return fn()
}
