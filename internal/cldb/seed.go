package cldb

import (
	"fmt"
	"strings"

	"github.com/biogo/store/interval"
)

// SeedIndex declares the seed region of a protospacer: a 1-based,
// inclusive offset window counted from the protospacer's 5' end (Side
// "up") or 3' end (Side "down"). Offsets are positive and
// First <= Last.
type SeedIndex struct {
	First int    `json:"first"`
	Last  int    `json:"last"`
	Side  string `json:"side"`
}

// Valid rejects malformed seed definitions.
func (s SeedIndex) Valid() error {
	if s.First < 1 || s.Last < s.First {
		return fmt.Errorf("seed window [%d,%d] is not a positive 1-based range", s.First, s.Last)
	}
	if s.Side != "up" && s.Side != "down" {
		return fmt.Errorf("seed side must be \"up\" or \"down\", got %q", s.Side)
	}
	return nil
}

// Region names for the by-position mismatch profile.
const (
	RegionSeed      = "seed"
	RegionNonSeed5p = "nonseed-5p"
	RegionNonSeed3p = "nonseed-3p"
)

// RegionStat aggregates mismatches over one alignment region.
type RegionStat struct {
	Mismatches int     `json:"mismatches"`
	Positions  int     `json:"positions"`
	Rate       float64 `json:"rate"`
}

// SeedSummary holds the region aggregates for one aligned pair. The
// seed and non-seed rows always partition the protospacer row.
type SeedSummary struct {
	Protospacer RegionStat `json:"protospacer"`
	Seed        RegionStat `json:"seed"`
	NonSeed     RegionStat `json:"nonSeed"`
}

// PositionMismatch is one column of the by-position profile: a
// position's mismatch value keyed by its distance from the seed start
// (offset 0 = seed start, negative = 5' of the seed).
type PositionMismatch struct {
	Offset   int    `json:"offset"`
	Mismatch int    `json:"mismatch"`
	Region   string `json:"region"`
}

// posMark is one alignment column in the mismatch map: a
// single-position interval carrying the column's mismatch value.
type posMark struct {
	pos, value int
	id         uintptr
}

// Overlap implements interval.IntOverlapper; bounds are inclusive.
func (p posMark) Overlap(b interval.IntRange) bool {
	return p.pos >= b.Start && p.pos <= b.End
}

// ID implements interval.IntInterface.
func (p posMark) ID() uintptr { return p.id }

// Range implements interval.IntInterface.
func (p posMark) Range() interval.IntRange {
	return interval.IntRange{Start: p.pos, End: p.pos}
}

// posRange is a payload-free interval for range queries.
type posRange struct {
	start, end int
}

func (q posRange) Overlap(b interval.IntRange) bool {
	return q.end >= b.Start && q.start <= b.End
}
func (q posRange) ID() uintptr { return 0 }
func (q posRange) Range() interval.IntRange {
	return interval.IntRange{Start: q.start, End: q.end}
}

// MismatchMap is a position-indexed mismatch profile over one gapped
// alignment, stored as single-position intervals so region summaries
// are range-sum queries. Positions are 0-based alignment columns.
type MismatchMap struct {
	tree   *interval.IntTree
	length int
}

// NewMismatchMap profiles an aligned pair. A column mismatches (value
// 1) unless both characters match case-insensitively; with ignoreGaps
// set, any column where either sequence is gapped is forced to 0 rather
// than compared. An unequal-length or empty pair violates the input
// contract and is rejected.
func NewMismatchMap(aln Alignment, ignoreGaps bool) (*MismatchMap, error) {
	if len(aln.CrRNA) != len(aln.Protospacer) {
		return nil, fmt.Errorf(
			"aligned pair length mismatch: crRNA %d vs protospacer %d",
			len(aln.CrRNA), len(aln.Protospacer),
		)
	}
	if len(aln.CrRNA) == 0 {
		return nil, fmt.Errorf("aligned pair is empty")
	}

	a := strings.ToUpper(aln.CrRNA)
	b := strings.ToUpper(aln.Protospacer)

	tree := &interval.IntTree{}
	for i := 0; i < len(a); i++ {
		value := 0
		gapped := a[i] == '-' || b[i] == '-'
		switch {
		case gapped && ignoreGaps:
			// forced to 0, not compared
		case a[i] != b[i]:
			value = 1
		}

		if err := tree.Insert(posMark{pos: i, value: value, id: uintptr(i + 1)}, true); err != nil {
			return nil, err
		}
	}
	tree.AdjustRanges()

	return &MismatchMap{tree: tree, length: len(a)}, nil
}

// Len returns the alignment length.
func (m *MismatchMap) Len() int { return m.length }

// Sum returns total mismatches and column count over the inclusive
// 0-based range [start,end]. An inverted range is an empty region.
func (m *MismatchMap) Sum(start, end int) (mismatches, positions int) {
	if start > end {
		return 0, 0
	}
	m.tree.DoMatching(func(iv interval.IntInterface) (done bool) {
		mismatches += iv.(posMark).value
		positions++
		return
	}, posRange{start: start, end: end})
	return mismatches, positions
}

// Value returns the mismatch value of one alignment column.
func (m *MismatchMap) Value(pos int) int {
	v, _ := m.Sum(pos, pos)
	return v
}

// AnalyzeSeed quantifies how mismatches between a crRNA and its
// protospacer concentrate inside vs outside the seed region. The
// protospacer span is located as the contiguous upper-case run in the
// gapped protospacer (flanks are lower-case, see MarkFlanks); seed
// offsets are then mapped onto absolute alignment columns, mirrored
// from the 3' end when idx.Side is "down". A seed window reaching past
// the protospacer span is clamped to it.
func AnalyzeSeed(aln Alignment, idx SeedIndex, ignoreGaps bool) (SeedSummary, []PositionMismatch, error) {
	if err := idx.Valid(); err != nil {
		return SeedSummary{}, nil, err
	}

	mm, err := NewMismatchMap(aln, ignoreGaps)
	if err != nil {
		return SeedSummary{}, nil, err
	}

	protoStart, protoEnd, err := protoSpan(aln.Protospacer)
	if err != nil {
		return SeedSummary{}, nil, err
	}

	var seedStart, seedEnd int
	if idx.Side == "up" {
		seedStart = protoStart + idx.First - 1
		seedEnd = protoStart + idx.Last - 1
	} else {
		seedStart = protoEnd - idx.Last + 1
		seedEnd = protoEnd - idx.First + 1
	}
	if seedStart < protoStart {
		seedStart = protoStart
	}
	if seedEnd > protoEnd {
		seedEnd = protoEnd
	}
	if seedStart > seedEnd {
		return SeedSummary{}, nil, fmt.Errorf(
			"seed window [%d,%d] (%s) lies outside the %d bp protospacer span",
			idx.First, idx.Last, idx.Side, protoEnd-protoStart+1,
		)
	}

	var summary SeedSummary
	summary.Protospacer = regionStat(mm, protoStart, protoEnd)
	summary.Seed = regionStat(mm, seedStart, seedEnd)

	// the two non-seed pieces; either may be empty and is then skipped
	m5, p5 := mm.Sum(protoStart, seedStart-1)
	m3, p3 := mm.Sum(seedEnd+1, protoEnd)
	summary.NonSeed = newRegionStat(m5+m3, p5+p3)

	profile := make([]PositionMismatch, 0, protoEnd-protoStart+1)
	for pos := protoStart; pos <= protoEnd; pos++ {
		region := RegionSeed
		if pos < seedStart {
			region = RegionNonSeed5p
		} else if pos > seedEnd {
			region = RegionNonSeed3p
		}
		profile = append(profile, PositionMismatch{
			Offset:   pos - seedStart,
			Mismatch: mm.Value(pos),
			Region:   region,
		})
	}

	return summary, profile, nil
}

// protoSpan locates the protospacer within a gapped, case-marked
// alignment string: the columns from the first to the last upper-case
// letter. 0-based inclusive.
func protoSpan(marked string) (start, end int, err error) {
	start, end = -1, -1
	for i := 0; i < len(marked); i++ {
		c := marked[i]
		if c >= 'A' && c <= 'Z' {
			if start == -1 {
				start = i
			}
			end = i
		}
	}
	if start == -1 {
		return 0, 0, fmt.Errorf("no upper-case protospacer span in alignment %q", marked)
	}
	return start, end, nil
}

func regionStat(mm *MismatchMap, start, end int) RegionStat {
	m, p := mm.Sum(start, end)
	return newRegionStat(m, p)
}

func newRegionStat(mismatches, positions int) RegionStat {
	s := RegionStat{Mismatches: mismatches, Positions: positions}
	if positions > 0 {
		s.Rate = float64(mismatches) / float64(positions)
	}
	return s
}
