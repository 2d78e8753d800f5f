package cldb

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/biogo/biogo/align"
	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"
)

// Aligner is the external pairwise aligner collaborator: it takes two
// sequences and returns a gapped, equal-length pair. Global or
// semi-global, no further contract assumed.
type Aligner interface {
	Align(crRNA, protospacer string) (Alignment, error)
}

// NWAligner aligns with Needleman-Wunsch over the gapped DNA alphabet.
//
//	w(gap) = -5, w(match) = +2, w(mismatch) = -1
type NWAligner struct {
	nw align.NW
}

// NewNWAligner returns a ready-to-use global aligner.
func NewNWAligner() *NWAligner {
	return &NWAligner{
		nw: align.NW{
			{-5, -5, -5, -5, -5},
			{-5, 2, -1, -1, -1},
			{-5, -1, 2, -1, -1},
			{-5, -1, -1, 2, -1},
			{-5, -1, -1, -1, 2},
		},
	}
}

// Align implements Aligner. Ambiguity codes are collapsed before
// alignment because the scoring matrix only covers ACGT.
func (a *NWAligner) Align(crRNA, protospacer string) (Alignment, error) {
	if len(crRNA) == 0 || len(protospacer) == 0 {
		return Alignment{}, fmt.Errorf("cannot align an empty sequence pair")
	}

	fsa := &linear.Seq{Seq: alphabet.BytesToLetters([]byte(strings.ToUpper(sanitizeDNA(crRNA))))}
	fsa.Alpha = alphabet.DNAgapped
	fsb := &linear.Seq{Seq: alphabet.BytesToLetters([]byte(strings.ToUpper(sanitizeDNA(protospacer))))}
	fsb.Alpha = alphabet.DNAgapped

	aln, err := a.nw.Align(fsa, fsb)
	if err != nil {
		return Alignment{}, fmt.Errorf("pairwise alignment failed: %v", err)
	}

	fa := align.Format(fsa, fsb, aln, '-')
	return Alignment{
		CrRNA:       fmt.Sprint(fa[0]),
		Protospacer: fmt.Sprint(fa[1]),
	}, nil
}

// MarkFlanks lower-cases the non-spacer portions of a gapped alignment:
// protoUp/protoDown non-gap characters walked in from each end of the
// protospacer (the flank extension), and crUp/crDown non-gap characters
// walked in from each end of the crRNA (repeat-derived read-out). All
// counts are in reading orientation, so callers must strand-correct
// them first (see Extension.LeadingFlank). Everything not lower-cased
// is upper-cased, making the spacer/protospacer spans the contiguous
// upper-case runs downstream analysis keys on.
func MarkFlanks(aln Alignment, protoUp, protoDown, crUp, crDown int) (Alignment, error) {
	if len(aln.CrRNA) != len(aln.Protospacer) {
		return Alignment{}, fmt.Errorf(
			"aligned pair length mismatch: crRNA %d vs protospacer %d",
			len(aln.CrRNA), len(aln.Protospacer),
		)
	}
	if len(aln.CrRNA) == 0 {
		return Alignment{}, fmt.Errorf("aligned pair is empty")
	}

	proto, err := markEnds(strings.ToUpper(aln.Protospacer), protoUp, protoDown)
	if err != nil {
		return Alignment{}, err
	}
	cr, err := markEnds(strings.ToUpper(aln.CrRNA), crUp, crDown)
	if err != nil {
		return Alignment{}, err
	}

	return Alignment{CrRNA: cr, Protospacer: proto}, nil
}

// markEnds lower-cases exactly lead non-gap characters from the front
// of a gapped string and trail from the back. O(n) two-pointer scan.
func markEnds(s string, lead, trail int) (string, error) {
	if lead < 0 || trail < 0 {
		return "", fmt.Errorf("flank lengths must be >= 0, got %d and %d", lead, trail)
	}

	b := []byte(s)
	for i := 0; i < len(b) && lead > 0; i++ {
		if b[i] == '-' {
			continue
		}
		b[i] = byte(unicode.ToLower(rune(b[i])))
		lead--
	}
	for i := len(b) - 1; i >= 0 && trail > 0; i-- {
		if b[i] == '-' {
			continue
		}
		b[i] = byte(unicode.ToLower(rune(b[i])))
		trail--
	}
	if lead > 0 || trail > 0 {
		return "", fmt.Errorf("flank lengths exceed the sequence's non-gap length")
	}
	return string(b), nil
}
