package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pders01/sitephoto/internal/models"
	"github.com/pders01/sitephoto/internal/store"
	"github.com/spf13/cobra"
)

var (
	statsJSON bool
	statsToon bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show upload queue statistics",
	Long: `Display statistics about the capture queue including:
  - Total photo count
  - Photos by upload status
  - Photos by project and trade
  - Tag usage
  - Daily capture activity

Examples:
  sitephoto stats
  sitephoto stats --json
  sitephoto stats --toon`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().BoolVar(&statsToon, "toon", false, "Output in LLM-friendly toon format")
}

type queueStats struct {
	TotalPhotos   int             `json:"total_photos"`
	ByStatus      map[string]int  `json:"by_status"`
	ByProject     map[string]int  `json:"by_project"`
	ByTrade       map[string]int  `json:"by_trade"`
	WithGPS       int             `json:"with_gps"`
	OldestPhoto   *time.Time      `json:"oldest_photo,omitempty"`
	NewestPhoto   *time.Time      `json:"newest_photo,omitempty"`
	TopTags       []tagStat       `json:"top_tags"`
	DailyActivity []dailyActivity `json:"daily_activity"`
}

type tagStat struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type dailyActivity struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

var statusOrder = []models.UploadStatus{
	models.StatusPending,
	models.StatusUploading,
	models.StatusFailed,
	models.StatusUploaded,
}

func runStats(cmd *cobra.Command, args []string) error {
	queue, err := openQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	photos, err := queue.List(store.Filter{})
	if err != nil {
		return err
	}

	if len(photos) == 0 {
		fmt.Println("No photos in the queue")
		return nil
	}

	counts, err := queue.Counts()
	if err != nil {
		return err
	}

	stats := collectStats(photos, counts)

	if done, err := printStructured(stats, statsJSON, statsToon); done {
		return err
	}

	fmt.Println("Queue Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Total Photos: %d\n", stats.TotalPhotos)
	if stats.OldestPhoto != nil && stats.NewestPhoto != nil {
		fmt.Printf("Date Range:   %s to %s\n",
			stats.OldestPhoto.Format("2006-01-02"),
			stats.NewestPhoto.Format("2006-01-02"))
	}
	fmt.Printf("With GPS:     %d\n", stats.WithGPS)
	fmt.Println()

	fmt.Println("By Status:")
	for _, status := range statusOrder {
		if count := stats.ByStatus[string(status)]; count > 0 {
			percentage := float64(count) / float64(stats.TotalPhotos) * 100
			fmt.Printf("  %-10s %3d  (%.1f%%)\n", status, count, percentage)
		}
	}
	fmt.Println()

	printBreakdown("By Project:", stats.ByProject)
	printBreakdown("By Trade:", stats.ByTrade)

	if len(stats.TopTags) > 0 {
		fmt.Println("Top Tags:")
		for _, ts := range stats.TopTags[:min(10, len(stats.TopTags))] {
			fmt.Printf("  %-20s %3d\n", ts.Tag, ts.Count)
		}
		fmt.Println()
	}

	if len(stats.DailyActivity) > 0 {
		fmt.Println("Recent Activity:")
		for _, da := range stats.DailyActivity[:min(7, len(stats.DailyActivity))] {
			bar := strings.Repeat("█", min(da.Count, 20))
			fmt.Printf("  %s  %3d  %s\n", da.Date, da.Count, bar)
		}
	}

	return nil
}

func collectStats(photos []models.CapturedPhoto, counts map[models.UploadStatus]int) *queueStats {
	stats := &queueStats{
		TotalPhotos: len(photos),
		ByStatus:    make(map[string]int, len(counts)),
		ByProject:   make(map[string]int),
		ByTrade:     make(map[string]int),
	}
	for status, n := range counts {
		stats.ByStatus[string(status)] = n
	}

	byTag := make(map[string]int)
	byDate := make(map[string]int)

	for _, p := range photos {
		if stats.OldestPhoto == nil || p.TakenAt.Before(*stats.OldestPhoto) {
			t := p.TakenAt
			stats.OldestPhoto = &t
		}
		if stats.NewestPhoto == nil || p.TakenAt.After(*stats.NewestPhoto) {
			t := p.TakenAt
			stats.NewestPhoto = &t
		}

		stats.ByProject[p.ProjectID]++
		if p.TradeCategory != "" {
			stats.ByTrade[p.TradeCategory]++
		}
		if p.GPS != nil {
			stats.WithGPS++
		}
		for _, tag := range p.Tags {
			byTag[tag]++
		}
		byDate[p.TakenAt.Local().Format("2006-01-02")]++
	}

	for tag, count := range byTag {
		stats.TopTags = append(stats.TopTags, tagStat{Tag: tag, Count: count})
	}
	sort.Slice(stats.TopTags, func(i, j int) bool {
		if stats.TopTags[i].Count == stats.TopTags[j].Count {
			return stats.TopTags[i].Tag < stats.TopTags[j].Tag
		}
		return stats.TopTags[i].Count > stats.TopTags[j].Count
	})

	for date, count := range byDate {
		stats.DailyActivity = append(stats.DailyActivity, dailyActivity{Date: date, Count: count})
	}
	sort.Slice(stats.DailyActivity, func(i, j int) bool {
		return stats.DailyActivity[i].Date > stats.DailyActivity[j].Date
	})

	return stats
}

func printBreakdown(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println(title)
	for _, k := range keys {
		fmt.Printf("  %-20s %3d\n", k, counts[k])
	}
	fmt.Println()
}
