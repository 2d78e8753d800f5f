package cldb

import (
	"fmt"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fai"
)

// Fetcher retrieves a subsequence of a subject from a sequence index.
// Coordinates are 1-based inclusive; strand -1 returns the reverse
// complement of the forward-strand slice. Implementations are read-only
// and safe to call concurrently for different subjects.
type Fetcher interface {
	Fetch(subjectID string, start, end, strand int) (string, error)

	// Length reports a subject's total length, false if unknown
	Length(subjectID string) (int, bool)
}

// NotFoundError means the subject id is absent from the sequence index.
type NotFoundError struct {
	SubjectID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("subject %q not found in sequence index", e.SubjectID)
}

// RangeError means the requested range is malformed or outside the
// subject's bounds.
type RangeError struct {
	SubjectID  string
	Start, End int
	Length     int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf(
		"range [%d,%d] is invalid for subject %q (%d bp)",
		e.Start, e.End, e.SubjectID, e.Length,
	)
}

// checkRange validates a fetch request against a known subject length.
func checkRange(subjectID string, start, end, length, strand int) error {
	if start < 1 || start > end || end > length {
		return &RangeError{SubjectID: subjectID, Start: start, End: end, Length: length}
	}
	if strand != 1 && strand != -1 {
		return fmt.Errorf("strand must be +1 or -1, got %d", strand)
	}
	return nil
}

// reverseComplement returns the reverse complement of a DNA sequence,
// preserving case and IUPAC ambiguity codes.
func reverseComplement(s string) (string, error) {
	ds, err := seq.NewSeq(seq.DNAredundant, []byte(s))
	if err != nil {
		return "", fmt.Errorf("failed to reverse complement %q: %v", s, err)
	}
	ds.RevComInplace()
	return string(ds.Seq), nil
}

// FaidxFetcher serves subsequences out of a faidx-indexed FASTA file of
// subject genomes. The ".fai" index is created on first open if absent.
type FaidxFetcher struct {
	faidx   *fai.Faidx
	lengths map[string]int
}

// NewFaidxFetcher opens (indexing if needed) a FASTA file of subject
// sequences. Subject ids must match those in the BLAST results exactly.
func NewFaidxFetcher(path string) (*FaidxFetcher, error) {
	faidx, err := fai.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FASTA index for %s: %v", path, err)
	}

	lengths := make(map[string]int, len(faidx.Index))
	for name, record := range faidx.Index {
		lengths[name] = int(record.Length)
	}

	return &FaidxFetcher{faidx: faidx, lengths: lengths}, nil
}

// Fetch implements Fetcher.
func (f *FaidxFetcher) Fetch(subjectID string, start, end, strand int) (string, error) {
	length, ok := f.lengths[subjectID]
	if !ok {
		return "", &NotFoundError{SubjectID: subjectID}
	}
	if err := checkRange(subjectID, start, end, length, strand); err != nil {
		return "", err
	}

	sub, err := f.faidx.SubSeq(subjectID, start, end)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s:[%d,%d]: %v", subjectID, start, end, err)
	}

	if strand == -1 {
		return reverseComplement(string(sub))
	}
	return string(sub), nil
}

// Length implements Fetcher.
func (f *FaidxFetcher) Length(subjectID string) (int, bool) {
	length, ok := f.lengths[subjectID]
	return length, ok
}

// Close releases the underlying FASTA file handle.
func (f *FaidxFetcher) Close() error {
	return f.faidx.Close()
}

// MapFetcher is an in-memory Fetcher over a map of subject id to
// forward-strand sequence. It backs tests and small ad hoc runs where
// indexing a FASTA file is overkill.
type MapFetcher map[string]string

// Fetch implements Fetcher.
func (m MapFetcher) Fetch(subjectID string, start, end, strand int) (string, error) {
	full, ok := m[subjectID]
	if !ok {
		return "", &NotFoundError{SubjectID: subjectID}
	}
	if err := checkRange(subjectID, start, end, len(full), strand); err != nil {
		return "", err
	}

	sub := full[start-1 : end]
	if strand == -1 {
		return reverseComplement(sub)
	}
	return sub, nil
}

// Length implements Fetcher.
func (m MapFetcher) Length(subjectID string) (int, bool) {
	full, ok := m[subjectID]
	return len(full), ok
}

// sanitizeDNA maps IUPAC ambiguity codes down to a representative base
// so strict-alphabet collaborators (the pairwise aligner) accept the
// sequence. Case is preserved; gap characters pass through.
func sanitizeDNA(s string) string {
	mapBase := func(r rune) rune {
		switch r {
		case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't', '-':
			return r
		case 'U':
			return 'T'
		case 'u':
			return 't'
		case 'R', 'W', 'M', 'D', 'H', 'V', 'N':
			return 'A'
		case 'r', 'w', 'm', 'd', 'h', 'v', 'n':
			return 'a'
		case 'Y', 'S', 'B':
			return 'C'
		case 'y', 's', 'b':
			return 'c'
		}
		return 'A'
	}
	return strings.Map(mapBase, s)
}
