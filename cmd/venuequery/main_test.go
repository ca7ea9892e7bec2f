package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
)

func TestWriteJSON(t *testing.T) {
	report := venueperf.Report{
		State:           venueperf.StateDone,
		SeasonsAnalyzed: []int{2023},
		SeasonStats: map[int]venueperf.SeasonStatBlock{
			2024: {Season: 2024},
			2023: {Season: 2023},
		},
	}

	var compact bytes.Buffer
	if err := writeJSON(&compact, report, false); err != nil {
		t.Fatalf("write compact: %v", err)
	}
	out := compact.String()
	if !strings.HasSuffix(out, "\n") || strings.Count(out, "\n") != 1 {
		t.Fatalf("expected a single JSON line, got %q", out)
	}
	if strings.Index(out, `"2023"`) > strings.Index(out, `"2024"`) {
		t.Fatalf("expected sorted season keys: %s", out)
	}

	var pretty bytes.Buffer
	if err := writeJSON(&pretty, report, true); err != nil {
		t.Fatalf("write pretty: %v", err)
	}
	if !strings.Contains(pretty.String(), "\n  \"state\": \"done\"") {
		t.Fatalf("expected indented output, got %s", pretty.String())
	}
}

func TestReportCmdRequiresFlags(t *testing.T) {
	var out bytes.Buffer
	root := rootCmd(&out)
	root.SetArgs([]string{"report", "--player", "Judge"})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Fatalf("expected missing flag error")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no report output, got %q", out.String())
	}
}

func TestGetCmdRequiresID(t *testing.T) {
	root := rootCmd(&bytes.Buffer{})
	root.SetArgs([]string{"get"})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Fatalf("expected argument error")
	}
}
