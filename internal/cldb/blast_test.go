package cldb

import (
	"reflect"
	"testing"
)

const testBlastOutput = `# BLASTN 2.12.0+
# Query: locus1_spacer_1
# Database: test_db
# Fields: query id, query length, subject id, subject length, q. start, q. end, s. start, s. end, evalue, bit score, alignment length, identical, gaps
locus1_spacer_1	20	scaffold_A	300	1	20	100	119	1e-09	40.1	20	20	0
locus1_spacer_1	20	scaffold_A	300	2	19	210	227	0.004	22.3	18	16	0
locus1_spacer_1	20	scaffold_B	500	1	20	50	31	1e-08	38.2	20	19	0
# Query: locus1_DR_1
locus1_DR_1	25	scaffold_A	300	1	25	80	104	1e-05	30.0	25	25	0
# BLAST processed 2 queries
`

func Test_Decode(t *testing.T) {
	run, err := Decode(testBlastOutput, "test_db")
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if run.DatabaseID != "test_db" {
		t.Errorf("DatabaseID = %s, want test_db", run.DatabaseID)
	}
	if len(run.Iterations) != 2 {
		t.Fatalf("decoded %d iterations, want 2", len(run.Iterations))
	}

	it := run.Iterations[0]
	if it.QueryID != "locus1_spacer_1" || it.QueryLength != 20 {
		t.Errorf("iteration = %s/%d, want locus1_spacer_1/20", it.QueryID, it.QueryLength)
	}
	if len(it.Hits) != 2 {
		t.Fatalf("locus1_spacer_1 has %d hits, want 2 (grouped by subject)", len(it.Hits))
	}
	if len(it.Hits[0].HSPs) != 2 {
		t.Errorf("scaffold_A hit has %d HSPs, want 2", len(it.Hits[0].HSPs))
	}
	if it.Hits[1].SubjectID != "scaffold_B" || it.Hits[1].SubjectLength != 500 {
		t.Errorf("hit = %s/%d, want scaffold_B/500", it.Hits[1].SubjectID, it.Hits[1].SubjectLength)
	}

	want := HSP{
		QueryStart: 1, QueryEnd: 20,
		SubjectStart: 100, SubjectEnd: 119,
		Evalue: 1e-09, BitScore: 40.1,
		AlignLen: 20, Identity: 20, Gaps: 0,
	}
	if got := it.Hits[0].HSPs[0]; !reflect.DeepEqual(got, want) {
		t.Errorf("HSP = %+v, want %+v", got, want)
	}

	// minus strand raw coordinates survive the decode un-normalized
	if hsp := it.Hits[1].HSPs[0]; hsp.SubjectStart != 50 || hsp.SubjectEnd != 31 {
		t.Errorf("minus strand HSP = [%d,%d], want raw [50,31]", hsp.SubjectStart, hsp.SubjectEnd)
	}
	if hsp := it.Hits[1].HSPs[0]; hsp.Strand() != -1 {
		t.Errorf("minus strand HSP strand = %d, want -1", hsp.Strand())
	}
}

// a result that doesn't fit the tabular shape aborts the whole decode
func Test_Decode_malformed(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"wrong column count", "locus1_spacer_1\t20\tscaffold_A\t300\t1\t20\n"},
		{"non-numeric coordinate", "locus1_spacer_1	20	scaffold_A	300	1	x	100	119	1e-09	40.1	20	20	0\n"},
		{"non-numeric evalue", "locus1_spacer_1	20	scaffold_A	300	1	20	100	119	bad	40.1	20	20	0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.output, "test_db"); err == nil {
				t.Error("Decode() accepted malformed output")
			}
		})
	}
}

func Test_Decode_empty(t *testing.T) {
	run, err := Decode("# BLASTN 2.12.0+\n# BLAST processed 5 queries\n", "test_db")
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(run.Iterations) != 0 {
		t.Errorf("decoded %d iterations from a hitless run, want 0", len(run.Iterations))
	}
}
