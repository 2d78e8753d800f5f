package cldb

import "testing"

// one good DR hit on each side of position ~230 of scaffold_A, plus one
// that fails the quality floor
func testDRHits() []DRHit {
	return []DRHit{
		{
			SubjectID:   "scaffold_A",
			QueryLength: 30,
			HSP:         HSP{QueryStart: 1, QueryEnd: 30, SubjectStart: 200, SubjectEnd: 230, Evalue: 0.001, AlignLen: 30},
		},
		{
			SubjectID:   "scaffold_A",
			QueryLength: 30,
			HSP:         HSP{QueryStart: 1, QueryEnd: 30, SubjectStart: 260, SubjectEnd: 290, Evalue: 0.001, AlignLen: 30},
		},
		// aligns only 10/30 of the query: excluded by the quality floor
		{
			SubjectID:   "scaffold_A",
			QueryLength: 30,
			HSP:         HSP{QueryStart: 1, QueryEnd: 10, SubjectStart: 400, SubjectEnd: 409, Evalue: 0.001, AlignLen: 10},
		},
	}
}

func Test_DRIndex_Classify(t *testing.T) {
	index, err := NewDRIndex(testDRHits(), 5, 0.66, 10)
	if err != nil {
		t.Fatalf("NewDRIndex() error: %v", err)
	}

	if index.Kept != 2 || index.Filtered != 1 {
		t.Fatalf("NewDRIndex() kept %d filtered %d, want 2 and 1", index.Kept, index.Filtered)
	}

	type args struct {
		subject          string
		strand           int
		start, end       int
		minAdjacentSides int
	}
	tests := []struct {
		name string
		args args
		want bool
	}{
		{
			// spacer between the two DR windows
			"DR hits on both sides, strictness 2",
			args{"scaffold_A", 1, 235, 255, 2},
			true,
		},
		{
			"DR hits on both sides, strictness 1",
			args{"scaffold_A", 1, 235, 255, 1},
			true,
		},
		{
			// [235,250] touches only the left window ([195,235] padded)
			"one adjacent side, strictness 1",
			args{"scaffold_A", 1, 235, 250, 1},
			true,
		},
		{
			"one adjacent side, strictness 2",
			args{"scaffold_A", 1, 235, 250, 2},
			false,
		},
		{
			"no DR window in range",
			args{"scaffold_A", 1, 600, 620, 1},
			false,
		},
		{
			// the [400,409] DR hit was filtered out, so nothing is
			// adjacent here
			"filtered DR hits don't count",
			args{"scaffold_A", 1, 412, 430, 1},
			false,
		},
		{
			// no tree for the minus strand at all: default protospacer
			"no index for the strand",
			args{"scaffold_A", -1, 235, 255, 1},
			false,
		},
		{
			"no index for the subject",
			args{"scaffold_B", 1, 235, 255, 1},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := index.Classify(tt.args.subject, tt.args.strand, tt.args.start, tt.args.end, tt.args.minAdjacentSides)
			if got != tt.want {
				t.Errorf("Classify(%+v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

// a spacer hit flanked on both sides stays an array hit at either
// strictness; a one-sided hit flips with the strictness setting
func Test_DRIndex_strictness(t *testing.T) {
	index, err := NewDRIndex(testDRHits(), 5, 0.66, 10)
	if err != nil {
		t.Fatalf("NewDRIndex() error: %v", err)
	}

	for _, sides := range []int{1, 2} {
		if !index.Classify("scaffold_A", 1, 232, 258, sides) {
			t.Errorf("both-sided spacer hit not an array hit at strictness %d", sides)
		}
	}

	// [290,310] only reaches the padded window of the [260,290] DR hit
	one := index.Classify("scaffold_A", 1, 290, 310, 1)
	two := index.Classify("scaffold_A", 1, 290, 310, 2)
	if !one || two {
		t.Errorf("one-sided spacer hit = %v/%v at strictness 1/2, want true/false", one, two)
	}
}

// minus strand DR hits key their own tree
func Test_DRIndex_strands(t *testing.T) {
	hits := []DRHit{
		{
			SubjectID:   "scaffold_A",
			QueryLength: 30,
			// minus strand: raw subject coordinates reversed
			HSP: HSP{QueryStart: 1, QueryEnd: 30, SubjectStart: 230, SubjectEnd: 200, Evalue: 0.001, AlignLen: 30},
		},
	}

	index, err := NewDRIndex(hits, 5, 0.66, 10)
	if err != nil {
		t.Fatalf("NewDRIndex() error: %v", err)
	}

	if index.Classify("scaffold_A", 1, 235, 250, 1) {
		t.Error("plus strand spacer hit matched a minus strand DR window")
	}
	if !index.Classify("scaffold_A", -1, 235, 250, 1) {
		t.Error("minus strand spacer hit missed the minus strand DR window")
	}
}
