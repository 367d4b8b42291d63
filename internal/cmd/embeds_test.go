package cmd

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

const embedsDoc = `{
	"total": 3,
	"_embedded": {
		"orders": [
			{"id": 1, "state": "open"},
			{"id": 2, "state": "shipped"}
		],
		"promo": {"code": "SAVE10"}
	}
}`

func TestEmbeds_ListsRelations(t *testing.T) {
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		writeHal(w, embedsDoc)
	})

	out, _, err := runCLI(t, "embeds", "--json")
	if err != nil {
		t.Fatalf("embeds: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	counts := make(map[string]float64)
	for _, row := range rows {
		counts[row["rel"].(string)] = row["count"].(float64)
	}
	if counts["orders"] != 2 {
		t.Errorf("orders count = %v, want 2", counts["orders"])
	}
	if counts["promo"] != 1 {
		t.Errorf("promo count = %v, want 1 (single object wrapped)", counts["promo"])
	}
}

func TestEmbeds_ExtractRel(t *testing.T) {
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		writeHal(w, embedsDoc)
	})

	out, _, err := runCLI(t, "embeds", "--rel", "orders", "--json")
	if err != nil {
		t.Fatalf("embeds --rel: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0]["state"] != "open" {
		t.Errorf("items[0].state = %v, want open", items[0]["state"])
	}
}

func TestEmbeds_AbsentRelIsEmpty(t *testing.T) {
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		writeHal(w, embedsDoc)
	})

	out, _, err := runCLI(t, "embeds", "--rel", "invoices", "--json")
	if err != nil {
		t.Fatalf("embeds --rel invoices: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("output = %q, want empty array", out)
	}
}

func TestEmbeds_NoEmbeds(t *testing.T) {
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		writeHal(w, `{"name": "bare"}`)
	})

	out, stderr, err := runCLI(t, "embeds")
	if err != nil {
		t.Fatalf("embeds: %v", err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want empty", out)
	}
	if !strings.Contains(stderr, "no embedded resources") {
		t.Errorf("stderr = %q, want empty notice", stderr)
	}
}
