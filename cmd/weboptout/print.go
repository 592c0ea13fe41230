package main

import (
	"fmt"
	"strings"

	"github.com/alexjc/weboptout/internal/domain"
	"github.com/alexjc/weboptout/internal/usecase"
)

func printHeading(label string) {
	fmt.Printf("\n\033[1;97m%-22s Opt-Out\033[0m\n\n", label)
}

func printReservation(source string, res domain.Reservation) {
	mark := "?"
	if res.Kind == domain.KindYes {
		mark = "✓"
	}
	fmt.Printf("  %-23s %s\n", source, mark)

	for _, record := range res.Process {
		status := "\033[91m✗\033[0m"
		if record.Status == domain.StatusSuccess {
			status = "\033[92m✓\033[0m"
		}
		fmt.Printf("  %s %s %v\n", status, record.Step, map[string]any(record.Context))
	}

	if res.Kind == domain.KindYes && res.Summary() != "" {
		fmt.Printf("\n   ❝%s❞\n", wrap(res.Summary(), 72, "     "))
	}
	fmt.Println()
}

func printDatasetSummary(top []usecase.DomainCount, results map[string]domain.Reservation) {
	fmt.Printf("%-35s %-20s %s\n\n", "Domain Name", "Opt-Out", "Items")

	var optOut, total, failed int64
	for _, entry := range top {
		total += entry.Count
		res := results[entry.Domain]
		switch res.Kind {
		case domain.KindYes:
			optOut += entry.Count
		case domain.KindError:
			failed++
		}
		fmt.Printf("%-35s %-20s %d\n", entry.Domain, res.Kind.String(), entry.Count)
	}

	fmt.Printf("\nChecked %d domains (%d failed); %.1f%% of items under an opt-out.\n",
		len(top), failed, percentage(optOut, total))
}

func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}

// wrap folds text to the given width, indenting continuation lines.
func wrap(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var b strings.Builder
	line := 0
	for i, word := range words {
		if i > 0 {
			if line+1+len(word) > width {
				b.WriteString("\n" + indent)
				line = 0
			} else {
				b.WriteByte(' ')
				line++
			}
		}
		b.WriteString(word)
		line += len(word)
	}
	return b.String()
}
