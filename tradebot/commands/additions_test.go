package commands

import "testing"

func TestPlanAddition(t *testing.T) {
	owned := []string{"Blue Shell", "Golden Mushroom", "Thunder Cloud"}

	tests := []struct {
		name          string
		item          string
		owned         []string
		wantCorrected string
		wantMerges    bool
	}{
		{
			name:          "exact match merges",
			item:          "Blue Shell",
			owned:         owned,
			wantCorrected: "Blue Shell",
			wantMerges:    true,
		},
		{
			name:          "near spelling snaps to stored name",
			item:          "blue shel",
			owned:         owned,
			wantCorrected: "Blue Shell",
			wantMerges:    true,
		},
		{
			name:          "unrelated item stays new",
			item:          "Fire Flower",
			owned:         owned,
			wantCorrected: "Fire Flower",
			wantMerges:    false,
		},
		{
			name:          "no entries yet stays new",
			item:          "Blue Shell",
			owned:         nil,
			wantCorrected: "Blue Shell",
			wantMerges:    false,
		},
		{
			name:          "other people's spellings are not candidates",
			item:          "Red Shell",
			owned:         []string{"Green Shell"},
			wantCorrected: "Red Shell",
			wantMerges:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corrected, merges := planAddition(tt.item, tt.owned)
			if corrected != tt.wantCorrected || merges != tt.wantMerges {
				t.Errorf("planAddition(%q) = (%q, %v), want (%q, %v)",
					tt.item, corrected, merges, tt.wantCorrected, tt.wantMerges)
			}
		})
	}
}
