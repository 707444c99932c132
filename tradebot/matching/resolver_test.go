package matching

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Blue Shell", want: "blue shell"},
		{name: "collapses inner whitespace", input: "blue   shell", want: "blue shell"},
		{name: "trims edges", input: "  blue shell \t", want: "blue shell"},
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestScore_TierGuard(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		wantZero  bool
	}{
		{name: "different tiers blocked", query: "Widget II", candidate: "Widget III", wantZero: true},
		{name: "same tier allowed", query: "widget iii", candidate: "Widget III", wantZero: false},
		{name: "case insensitive tiers", query: "Widget IV", candidate: "widget iv", wantZero: false},
		{name: "tier vs no tier allowed", query: "Widget II", candidate: "Widget", wantZero: false},
		{name: "no tiers at all", query: "blue shell", candidate: "blue shell", wantZero: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.query, tt.candidate)
			if tt.wantZero && got != 0 {
				t.Errorf("Score(%q, %q) = %d, want 0", tt.query, tt.candidate, got)
			}
			if !tt.wantZero && got == 0 {
				t.Errorf("Score(%q, %q) = 0, want > 0", tt.query, tt.candidate)
			}
		})
	}
}

func TestScore_Identical(t *testing.T) {
	if got := Score("Blue Shell", "blue  shell"); got != 100 {
		t.Errorf("Score on normalized-identical names = %d, want 100", got)
	}
}

func TestResolve(t *testing.T) {
	candidates := []string{"Blue Shell", "Red Shell", "Widget III", "Widget II"}

	tests := []struct {
		name      string
		query     string
		threshold int
		wantMatch string
		wantOK    bool
	}{
		{name: "exact hit", query: "blue shell", threshold: ThresholdStrict, wantMatch: "Blue Shell", wantOK: true},
		{name: "typo above strict", query: "blue shel", threshold: ThresholdStrict, wantMatch: "Blue Shell", wantOK: true},
		{name: "vague below strict", query: "shell", threshold: ThresholdStrict, wantOK: false},
		{name: "vague passes loose", query: "blue sh", threshold: ThresholdLoose, wantMatch: "Blue Shell", wantOK: true},
		{name: "tier guard respected", query: "Widget II", threshold: ThresholdLoose, wantMatch: "Widget II", wantOK: true},
		{name: "garbage", query: "zzzzqqq", threshold: ThresholdLoose, wantOK: false},
		{name: "empty query", query: "", threshold: ThresholdLoose, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, score, ok := Resolve(tt.query, candidates, tt.threshold)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q) ok = %v (score %d), want %v", tt.query, ok, score, tt.wantOK)
			}
			if ok && match != tt.wantMatch {
				t.Errorf("Resolve(%q) = %q, want %q", tt.query, match, tt.wantMatch)
			}
		})
	}
}

func TestResolve_NoCandidates(t *testing.T) {
	if _, _, ok := Resolve("anything", nil, ThresholdLoose); ok {
		t.Error("Resolve with no candidates should not match")
	}
}
