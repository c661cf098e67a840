package search

import (
	"strconv"
	"strings"
)

const defaultLimit = 10

// Query decouples the raw search input from the index engine requirements.
type Query struct {
	RawInput string
	Terms    string
	Limit    int
}

// ParseQuery extracts command-line style arguments from a raw search string.
// Example: `deploy script --limit 25`.
func ParseQuery(input string) Query {
	query := Query{RawInput: input, Limit: defaultLimit}

	parts := strings.Fields(input)
	var terms []string
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			if strings.TrimPrefix(part, "--") == "limit" {
				if n, err := strconv.Atoi(parts[i+1]); err == nil && n > 0 {
					query.Limit = n
				}
			}
			i++
			continue
		}
		terms = append(terms, part)
	}
	query.Terms = strings.Join(terms, " ")
	return query
}
