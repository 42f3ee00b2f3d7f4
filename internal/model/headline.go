package model

import "strings"

// Scored pairs a submitted headline with the label the classifier assigned.
type Scored struct {
	Headline string
	Label    string
}

// Pair zips headlines with labels positionally. Callers must pass slices of
// equal length; extra elements on either side are ignored.
func Pair(headlines, labels []string) []Scored {
	n := min(len(headlines), len(labels))
	out := make([]Scored, n)
	for i := 0; i < n; i++ {
		out[i] = Scored{Headline: headlines[i], Label: labels[i]}
	}
	return out
}

// Clean trims every entry and drops the ones left empty, preserving order.
func Clean(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}
