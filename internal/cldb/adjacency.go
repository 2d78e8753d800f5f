package cldb

import (
	"github.com/biogo/store/interval"
)

// drWindow is one padded direct repeat hit window stored in the
// adjacency index. hitStart/hitEnd keep the unpadded DR hit bounds for
// the upstream/downstream side test during classification.
type drWindow struct {
	start, end       int // padded bounds, what the tree indexes
	hitStart, hitEnd int // raw DR hit bounds
	id               uintptr
}

// Overlap implements interval.IntOverlapper; bounds are inclusive.
func (w drWindow) Overlap(b interval.IntRange) bool {
	return w.end >= b.Start && w.start <= b.End
}

// ID implements interval.IntInterface.
func (w drWindow) ID() uintptr { return w.id }

// Range implements interval.IntInterface.
func (w drWindow) Range() interval.IntRange {
	return interval.IntRange{Start: w.start, End: w.end}
}

// treeKey partitions the index per subject sequence and strand.
type treeKey struct {
	subject string
	strand  int
}

// DRHit is one direct repeat HSP offered to the adjacency index,
// together with its query's full length (needed for the aligned
// fraction quality test).
type DRHit struct {
	SubjectID   string
	QueryLength int
	HSP         HSP
}

// DRIndex answers "is this spacer hit flanked by direct repeat hits?".
// Build it once per batch from all DR hits, then classify spacer hits
// against it; the index is immutable after NewDRIndex so concurrent
// classification needs no locking.
type DRIndex struct {
	trees map[treeKey]*interval.IntTree

	// Kept and Filtered count DR hits that entered vs failed the
	// quality floor; reported in end-of-run stats
	Kept, Filtered int
}

// NewDRIndex builds per-(subject,strand) interval trees from direct
// repeat hit windows. Hits aligning less than minAlignFraction of their
// query, or scoring worse than maxEvalue, are excluded from the index
// but still counted. Windows are padded on both sides so spacer hits
// merely near a DR hit still register as adjacent; padding is floored
// at the sequence start.
func NewDRIndex(hits []DRHit, padding int, minAlignFraction, maxEvalue float64) (*DRIndex, error) {
	x := &DRIndex{trees: make(map[treeKey]*interval.IntTree)}

	var id uintptr
	for _, dr := range hits {
		if dr.QueryLength < 1 {
			continue
		}
		if float64(dr.HSP.AlignLen)/float64(dr.QueryLength) < minAlignFraction ||
			dr.HSP.Evalue > maxEvalue {
			x.Filtered++
			continue
		}
		x.Kept++

		strand := dr.HSP.Strand()
		start, end := dr.HSP.SubjectStart, dr.HSP.SubjectEnd
		if start > end {
			start, end = end, start
		}

		paddedStart := start - padding
		if paddedStart < 1 {
			paddedStart = 1
		}

		key := treeKey{subject: dr.SubjectID, strand: strand}
		tree, ok := x.trees[key]
		if !ok {
			tree = &interval.IntTree{}
			x.trees[key] = tree
		}

		id++
		w := drWindow{
			start:    paddedStart,
			end:      end + padding,
			hitStart: start,
			hitEnd:   end,
			id:       id,
		}
		if err := tree.Insert(w, true); err != nil {
			return nil, err
		}
	}

	for _, tree := range x.trees {
		tree.AdjustRanges()
	}
	return x, nil
}

// Classify reports whether a spacer hit most likely lies inside a
// CRISPR array. start/end must be strand-normalized (start <= end).
// A hit is an array hit when padded DR windows flank it on both sides,
// or on at least one side when minAdjacentSides is 1. A subject/strand
// with no DR hits on record classifies as a protospacer.
func (x *DRIndex) Classify(subjectID string, strand, start, end, minAdjacentSides int) bool {
	tree, ok := x.trees[treeKey{subject: subjectID, strand: strand}]
	if !ok {
		return false
	}

	var left, right bool
	q := drWindow{start: start, end: end}
	for _, iv := range tree.Get(q) {
		w := iv.(drWindow)
		// side tests use the unpadded DR bounds: the window only
		// counts as flanking when the DR hit itself clears the spacer
		if w.hitEnd <= start {
			left = true
		}
		if w.hitStart >= end {
			right = true
		}
	}

	if left && right {
		return true
	}
	return minAdjacentSides == 1 && (left || right)
}
