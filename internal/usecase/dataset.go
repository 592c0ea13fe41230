package usecase

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// DomainCount is one aggregated row of a dataset summary: a domain and how
// many items the dataset attributes to it.
type DomainCount struct {
	Domain string
	Count  int64
}

// ParseDataset reads a TSV of `domain<TAB>count` rows, aggregating repeated
// domains. Counts may carry thousands separators and decimal tails
// ("1,234.56" reads as 1234).
func ParseDataset(r io.Reader) ([]DomainCount, error) {
	totals := make(map[string]int64)
	var order []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		row := strings.TrimRight(scanner.Text(), "\n")
		if row == "" {
			continue
		}
		name, raw, ok := strings.Cut(row, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: expected domain<TAB>count", line)
		}

		raw = strings.ReplaceAll(raw, ",", "")
		if dot := strings.IndexByte(raw, '.'); dot >= 0 {
			raw = raw[:dot]
		}
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse count: %w", line, err)
		}

		if _, seen := totals[name]; !seen {
			order = append(order, name)
		}
		totals[name] += count
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	out := make([]DomainCount, 0, len(order))
	for _, name := range order {
		out = append(out, DomainCount{Domain: name, Count: totals[name]})
	}
	return out, nil
}

// TopDomains returns the k highest-count entries, largest first. Ties keep
// dataset order.
func TopDomains(entries []DomainCount, k int) []DomainCount {
	sorted := make([]DomainCount, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })
	if k > 0 && k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted
}
