package cldb

import "testing"

func Test_ParseQueryID(t *testing.T) {
	tests := []struct {
		name        string
		queryID     string
		wantLocus   string
		wantKind    QueryKind
		wantOrdinal int
	}{
		{"spacer with ordinal", "locus12_spacer_3", "locus12", QuerySpacer, 3},
		{"DR with ordinal", "locus12_DR_1", "locus12", QueryRepeat, 1},
		{"lower case kind", "locus12_dr_2", "locus12", QueryRepeat, 2},
		{"repeat synonym", "locus12_repeat_4", "locus12", QueryRepeat, 4},
		{"locus with underscores", "E_coli_K12_spacer_7", "E_coli_K12", QuerySpacer, 7},
		{"kind without ordinal", "locus12_DR", "locus12", QueryRepeat, 0},
		{"foreign id", "some_other_query", "some_other_query", QueryUnknown, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locus, kind, ordinal := ParseQueryID(tt.queryID)
			if locus != tt.wantLocus || kind != tt.wantKind || ordinal != tt.wantOrdinal {
				t.Errorf(
					"ParseQueryID(%q) = %q/%v/%d, want %q/%v/%d",
					tt.queryID, locus, kind, ordinal,
					tt.wantLocus, tt.wantKind, tt.wantOrdinal,
				)
			}
		})
	}
}

func Test_SpacerRegion_RepeatOverhangs(t *testing.T) {
	// 4 bp of repeat 5' of the spacer, 2 bp 3'
	region := SpacerRegion{RegionStart: 10, RegionEnd: 45, SpacerStart: 14, SpacerEnd: 43}
	up, down := region.RepeatOverhangs()
	if up != 4 || down != 2 {
		t.Errorf("RepeatOverhangs() = %d/%d, want 4/2", up, down)
	}

	// the zero value means no overhang, not a negative one
	up, down = SpacerRegion{}.RepeatOverhangs()
	if up != 0 || down != 0 {
		t.Errorf("RepeatOverhangs() on zero value = %d/%d, want 0/0", up, down)
	}
}

func Test_HSP_Strand(t *testing.T) {
	plus := HSP{SubjectStart: 10, SubjectEnd: 20}
	minus := HSP{SubjectStart: 20, SubjectEnd: 10}
	if plus.Strand() != 1 || minus.Strand() != -1 {
		t.Errorf("Strand() = %d/%d, want 1/-1", plus.Strand(), minus.Strand())
	}
}

func Test_Record_Key(t *testing.T) {
	rec := Record{QueryID: "locus1_spacer_1", SubjectID: "scaffold_A", Ordinal: 2}
	if got, want := rec.Key(), "locus1_spacer_1/scaffold_A/2"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}
