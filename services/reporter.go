package services

import (
	"fmt"
	"sort"
	"strings"

	"kickstarter-scraper/models"
)

// PrintRunReport formats and prints the run report to terminal
func PrintRunReport(report *models.RunReport) {
	border := strings.Repeat("═", 55)
	thin := strings.Repeat("─", 55)

	fmt.Printf("\n╔%s╗\n", border)
	fmt.Printf("║%s║\n", center("KICKSTARTER SCRAPE RUN REPORT ", 55))
	fmt.Printf("╚%s╝\n", border)

	fmt.Printf("\n OVERVIEW\n%s\n", thin)
	fmt.Printf("  Records Processed       : %d\n", report.Processed)
	fmt.Printf("  Newly Stored            : %d\n", report.Inserted)
	fmt.Printf("  Already Stored          : %d\n", report.AlreadyStored)
	fmt.Printf("  Deleted / Hidden        : %d\n", report.DeletedHidden)
	fmt.Printf("  Failed                  : %d\n", report.Failed)
	fmt.Printf("  Pledge Tiers Collected  : %d\n", report.TotalTiers)
	fmt.Printf("  Total Pledged (target)  : %.2f\n", report.TotalPledged)

	if len(report.ByStatus) > 0 {
		fmt.Printf("\n CAMPAIGNS PER STATUS\n%s\n", thin)
		printCountMap(report.ByStatus)
	}

	if len(report.ByCategory) > 0 {
		fmt.Printf("\n CAMPAIGNS PER CATEGORY\n%s\n", thin)
		printCountMap(report.ByCategory)
	}

	if len(report.MissingFields) > 0 {
		fmt.Printf("\n MISSING FIELDS (possible selector drift)\n%s\n", thin)
		printCountMap(report.MissingFields)
	}

	fmt.Printf("\n%s\n\n", border)
}

// printCountMap prints a map sorted by count descending with a bar per entry
func printCountMap(m map[string]int) {
	type entry struct {
		key   string
		count int
	}
	var entries []entry
	for k, v := range m {
		entries = append(entries, entry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	for _, e := range entries {
		bar := strings.Repeat("▓", min(e.count, 40))
		fmt.Printf("  %-25s %4d  %s\n", e.key+":", e.count, bar)
	}
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
