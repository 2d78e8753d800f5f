package cldb

import (
	"strings"
	"testing"
)

func Test_MarkFlanks(t *testing.T) {
	type args struct {
		aln                Alignment
		protoUp, protoDown int
		crUp, crDown       int
	}
	tests := []struct {
		name    string
		args    args
		want    Alignment
		wantErr bool
	}{
		{
			"mark extension flanks on the protospacer",
			args{
				aln: Alignment{
					CrRNA:       "---ACGTACGT---",
					Protospacer: "AAGACGTACGTTAG",
				},
				protoUp:   3,
				protoDown: 3,
			},
			Alignment{
				CrRNA:       "---ACGTACGT---",
				Protospacer: "aagACGTACGTtag",
			},
			false,
		},
		{
			// gaps are skipped, not counted: three non-gap characters
			// are lower-cased on each end regardless of gap placement
			"skip gaps while marking",
			args{
				aln: Alignment{
					CrRNA:       "----ACGTACGT---",
					Protospacer: "AA-GACGTACGTTAG",
				},
				protoUp:   3,
				protoDown: 3,
			},
			Alignment{
				CrRNA:       "----ACGTACGT---",
				Protospacer: "aa-gACGTACGTtag",
			},
			false,
		},
		{
			"mark repeat-derived bases on the crRNA",
			args{
				aln: Alignment{
					CrRNA:       "TTACGTACGTCC",
					Protospacer: "GGACGTACGTAA",
				},
				crUp:   2,
				crDown: 2,
			},
			Alignment{
				CrRNA:       "ttACGTACGTcc",
				Protospacer: "GGACGTACGTAA",
			},
			false,
		},
		{
			"reject unequal lengths",
			args{
				aln: Alignment{CrRNA: "ACGT", Protospacer: "ACGTT"},
			},
			Alignment{},
			true,
		},
		{
			"reject flanks longer than the sequence",
			args{
				aln:     Alignment{CrRNA: "ACGT", Protospacer: "ACGT"},
				protoUp: 5,
			},
			Alignment{},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarkFlanks(tt.args.aln, tt.args.protoUp, tt.args.protoDown, tt.args.crUp, tt.args.crDown)
			if (err != nil) != tt.wantErr {
				t.Errorf("MarkFlanks() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("MarkFlanks() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func Test_NWAligner(t *testing.T) {
	a := NewNWAligner()

	// identical sequences align gap-free
	aln, err := a.Align("ACGTACGTAC", "ACGTACGTAC")
	if err != nil {
		t.Fatalf("Align() error: %v", err)
	}
	if aln.CrRNA != "ACGTACGTAC" || aln.Protospacer != "ACGTACGTAC" {
		t.Errorf("Align() = %+v, want identity alignment", aln)
	}

	// a shorter query still comes back gap-padded to equal length
	aln, err = a.Align("ACGTACGT", "TTACGTACGTTT")
	if err != nil {
		t.Fatalf("Align() error: %v", err)
	}
	if len(aln.CrRNA) != len(aln.Protospacer) {
		t.Errorf("Align() returned unequal lengths %d and %d", len(aln.CrRNA), len(aln.Protospacer))
	}

	if _, err := a.Align("", "ACGT"); err == nil {
		t.Error("Align() accepted an empty sequence")
	}
}

// the aligner's rendered output must feed cleanly into flank marking
// and seed analysis
func Test_NWAligner_annotation(t *testing.T) {
	a := NewNWAligner()

	crRNA := "ACGTACGTAC"
	extSeq := "ttACGTACGTACgg"

	aln, err := a.Align(crRNA, extSeq)
	if err != nil {
		t.Fatalf("Align() error: %v", err)
	}
	if len(aln.CrRNA) != len(aln.Protospacer) {
		t.Fatalf("Align() returned unequal lengths %d and %d", len(aln.CrRNA), len(aln.Protospacer))
	}
	if got := strings.ReplaceAll(aln.CrRNA, "-", ""); got != crRNA {
		t.Errorf("gap-stripped crRNA = %q, want %q", got, crRNA)
	}
	if got := strings.ReplaceAll(aln.Protospacer, "-", ""); got != strings.ToUpper(extSeq) {
		t.Errorf("gap-stripped protospacer = %q, want %q", got, strings.ToUpper(extSeq))
	}

	marked, err := MarkFlanks(aln, 2, 2, 0, 0)
	if err != nil {
		t.Fatalf("MarkFlanks() error: %v", err)
	}

	summary, profile, err := AnalyzeSeed(marked, SeedIndex{First: 1, Last: 8, Side: "up"}, true)
	if err != nil {
		t.Fatalf("AnalyzeSeed() error: %v", err)
	}
	if summary.Protospacer.Positions != 10 || summary.Protospacer.Mismatches != 0 {
		t.Errorf("protospacer stat = %+v, want 10 mismatch-free positions", summary.Protospacer)
	}
	if summary.Seed.Positions != 8 || summary.Seed.Mismatches != 0 {
		t.Errorf("seed stat = %+v, want 8 mismatch-free positions", summary.Seed)
	}
	if len(profile) != 10 {
		t.Errorf("profile has %d positions, want 10", len(profile))
	}
}
