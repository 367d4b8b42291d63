package cmd

import "strings"

// maxSuggestDistance caps how different a candidate may be before we
// stop suggesting it.
const maxSuggestDistance = 3

// suggestCommand finds the command name closest to the unknown input,
// or "" when nothing is within the edit-distance cap.
func suggestCommand(unknown string, commands []string) string {
	return closest(strings.ToLower(unknown), commands, func(c string) string {
		return strings.ToLower(c)
	})
}

// suggestFlag finds the closest known flag. Dashes are ignored for the
// comparison; the match keeps its original prefix.
func suggestFlag(unknown string, flags []string) string {
	stripped := strings.ToLower(strings.TrimLeft(unknown, "-"))
	if stripped == "" {
		return ""
	}
	return closest(stripped, flags, func(f string) string {
		return strings.ToLower(strings.TrimLeft(f, "-"))
	})
}

// closest returns the candidate whose normalized form has the smallest
// edit distance to input, within maxSuggestDistance.
func closest(input string, candidates []string, normalize func(string) string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, c := range candidates {
		if d := editDistance(input, normalize(c)); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// editDistance computes the Levenshtein distance between a and b using a
// single working row.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			ins := row[j-1] + 1
			del := row[j] + 1
			sub := diag
			if a[i-1] != b[j-1] {
				sub++
			}
			diag = row[j]
			row[j] = minInt(ins, minInt(del, sub))
		}
	}
	return row[len(b)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
