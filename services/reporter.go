package services

import (
	"fmt"
	"sort"
	"strings"

	"property-trawler/models"
	"property-trawler/utils"
)

// RunSummary holds the figures computed over a finished run.
type RunSummary struct {
	TotalScraped  int
	TotalRanked   int
	SourcesOK     int
	SourcesFailed int
	AveragePrice  float64
	MinPrice      float64
	MaxPrice      float64
	TopMatches    []*models.Property
	BySource      map[models.Source]int
}

// Reporter summarises a run result for the terminal.
type Reporter struct {
	logger *utils.Logger
}

func NewReporter(logger *utils.Logger) *Reporter {
	return &Reporter{logger: logger}
}

// Summarise computes the run summary from a result.
func (r *Reporter) Summarise(result *models.RunResult) *RunSummary {
	summary := &RunSummary{
		TotalScraped: result.TotalScraped,
		TotalRanked:  len(result.Properties),
		BySource:     make(map[models.Source]int),
	}

	for _, report := range result.Reports {
		if report.Status == models.StatusOK {
			summary.SourcesOK++
		} else {
			summary.SourcesFailed++
		}
	}

	var priced []*models.Property
	for _, p := range result.Properties {
		summary.BySource[p.Source]++
		if p.Price != nil {
			priced = append(priced, p)
		}
	}

	if len(priced) > 0 {
		summary.MinPrice = *priced[0].Price
		summary.MaxPrice = *priced[0].Price
		var total float64
		for _, p := range priced {
			total += *p.Price
			if *p.Price < summary.MinPrice {
				summary.MinPrice = *p.Price
			}
			if *p.Price > summary.MaxPrice {
				summary.MaxPrice = *p.Price
			}
		}
		summary.AveragePrice = round2(total / float64(len(priced)))
		summary.MinPrice = round2(summary.MinPrice)
		summary.MaxPrice = round2(summary.MaxPrice)
	}

	// Properties arrive already ranked by match score.
	if len(result.Properties) > 5 {
		summary.TopMatches = result.Properties[:5]
	} else {
		summary.TopMatches = result.Properties
	}

	return summary
}

// Print renders the summary and the per-source outcome breakdown.
func (r *Reporter) Print(summary *RunSummary, result *models.RunResult) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  PROPERTY TRAWL RESULTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Raw listings scraped   : \033[1m%d\033[0m\n", summary.TotalScraped)
	fmt.Printf("  Ranked after filtering : \033[1m%d\033[0m\n", summary.TotalRanked)
	fmt.Printf("  Sources ok / failed    : \033[1m%d / %d\033[0m\n", summary.SourcesOK, summary.SourcesFailed)
	fmt.Println()

	fmt.Printf("\033[1;33m  Per-source Outcome\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, report := range result.Reports {
		if report.Status == models.StatusOK {
			fmt.Printf("  %-14s \033[1;32m%-7s\033[0m %d listings\n",
				report.Source, report.Status, report.Listings)
		} else {
			fmt.Printf("  %-14s \033[1;31m%-7s\033[0m %s\n",
				report.Source, report.Status, truncate(report.Reason, 32))
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Price Statistics\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if summary.AveragePrice > 0 {
		fmt.Printf("  Average price : \033[1;32m£%.2f\033[0m\n", summary.AveragePrice)
		fmt.Printf("  Minimum price : \033[1;32m£%.2f\033[0m\n", summary.MinPrice)
		fmt.Printf("  Maximum price : \033[1;32m£%.2f\033[0m\n", summary.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Top Matches\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(summary.TopMatches) == 0 {
		fmt.Printf("  No properties matched the criteria\n")
	} else {
		for i, p := range summary.TopMatches {
			score := 0.0
			if p.MatchScore != nil {
				score = *p.MatchScore
			}
			fmt.Printf("  \033[1m%d.\033[0m %-40s \033[1;32m%5.1f\033[0m  %s\n",
				i+1, truncate(p.Title, 38), score, p.Source)
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Ranked Properties by Source\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(summary.BySource) == 0 {
		fmt.Printf("  No source data\n")
	} else {
		type srcCount struct {
			src   models.Source
			count int
		}
		var counts []srcCount
		for src, cnt := range summary.BySource {
			counts = append(counts, srcCount{src, cnt})
		}
		sort.Slice(counts, func(i, j int) bool {
			return counts[i].count > counts[j].count
		})
		for _, sc := range counts {
			bar := strings.Repeat("█", min(sc.count, 40))
			fmt.Printf("  %-14s %s (%d)\n", sc.src, bar, sc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
