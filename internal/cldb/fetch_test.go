package cldb

import (
	"errors"
	"testing"
)

func Test_MapFetcher(t *testing.T) {
	fetcher := MapFetcher{"scaffold_A": "AACGTTGGCA"}

	type args struct {
		subject    string
		start, end int
		strand     int
	}
	tests := []struct {
		name    string
		args    args
		want    string
		wantErr error
	}{
		{
			"plus strand slice",
			args{"scaffold_A", 2, 5, 1},
			"ACGT",
			nil,
		},
		{
			"whole sequence",
			args{"scaffold_A", 1, 10, 1},
			"AACGTTGGCA",
			nil,
		},
		{
			"minus strand reverse complement",
			args{"scaffold_A", 1, 4, -1},
			"CGTT",
			nil,
		},
		{
			"unknown subject",
			args{"scaffold_B", 1, 4, 1},
			"",
			&NotFoundError{},
		},
		{
			"inverted range",
			args{"scaffold_A", 5, 2, 1},
			"",
			&RangeError{},
		},
		{
			"range past the sequence end",
			args{"scaffold_A", 8, 12, 1},
			"",
			&RangeError{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fetcher.Fetch(tt.args.subject, tt.args.start, tt.args.end, tt.args.strand)

			switch want := tt.wantErr.(type) {
			case *NotFoundError:
				var nf *NotFoundError
				if !errors.As(err, &nf) {
					t.Errorf("Fetch() error = %v, want NotFoundError", err)
				}
				return
			case *RangeError:
				var re *RangeError
				if !errors.As(err, &re) {
					t.Errorf("Fetch() error = %v, want RangeError", err)
				}
				return
			case nil:
				// fallthrough to the value check
			default:
				t.Fatalf("unhandled wantErr %T", want)
			}

			if err != nil {
				t.Errorf("Fetch() error: %v", err)
				return
			}
			if got != tt.want {
				t.Errorf("Fetch() = %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_MapFetcher_Length(t *testing.T) {
	fetcher := MapFetcher{"scaffold_A": "AACGTTGGCA"}

	if length, ok := fetcher.Length("scaffold_A"); !ok || length != 10 {
		t.Errorf("Length() = %d/%v, want 10/true", length, ok)
	}
	if _, ok := fetcher.Length("scaffold_B"); ok {
		t.Error("Length() found an unknown subject")
	}
}

func Test_MapFetcher_badStrand(t *testing.T) {
	fetcher := MapFetcher{"scaffold_A": "AACGTTGGCA"}
	if _, err := fetcher.Fetch("scaffold_A", 1, 4, 0); err == nil {
		t.Error("Fetch() accepted strand 0")
	}
}

func Test_reverseComplement(t *testing.T) {
	tests := []struct {
		seq  string
		want string
	}{
		{"AACG", "CGTT"},
		{"acgt", "acgt"},
		// IUPAC codes complement too
		{"ACGTN", "NACGT"},
	}
	for _, tt := range tests {
		got, err := reverseComplement(tt.seq)
		if err != nil {
			t.Errorf("reverseComplement(%q) error: %v", tt.seq, err)
			continue
		}
		if got != tt.want {
			t.Errorf("reverseComplement(%q) = %q, want %q", tt.seq, got, tt.want)
		}
	}
}

func Test_sanitizeDNA(t *testing.T) {
	// R and N collapse to A, Y to C; case and gaps survive
	if got, want := sanitizeDNA("ACGTNRYacgtn-"), "ACGTAACacgta-"; got != want {
		t.Errorf("sanitizeDNA() = %q, want %q", got, want)
	}
}
