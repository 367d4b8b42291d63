package cmd

import "testing"

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"crawl", "craw", 1},
		{"links", "lynks", 1},
	}
	for _, tc := range cases {
		if got := editDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []string{"get", "links", "embeds", "crawl", "auth", "cache", "version"}

	cases := []struct {
		input string
		want  string
	}{
		{"lnks", "links"},
		{"crall", "crawl"},
		{"GET", "get"},
		{"embds", "embeds"},
		{"zzzzzzzzz", ""},
	}
	for _, tc := range cases {
		if got := suggestCommand(tc.input, commands); got != tc.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flagNames := []string{"--follow", "--param", "--data", "--raw", "--json", "-f"}

	cases := []struct {
		input string
		want  string
	}{
		{"--folow", "--follow"},
		{"--pram", "--param"},
		{"--jsn", "--json"},
		{"--completelywrong", ""},
		{"--", ""},
	}
	for _, tc := range cases {
		if got := suggestFlag(tc.input, flagNames); got != tc.want {
			t.Errorf("suggestFlag(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
