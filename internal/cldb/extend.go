package cldb

import "fmt"

// Extension holds the strand-normalized, full-length protospacer
// coordinates derived from one HSP. All coordinates are 1-based,
// inclusive, and Start <= End on every pair.
type Extension struct {
	// Strand of the hit: +1 or -1
	Strand int `json:"strand"`

	// normalized aligned subject region
	SubjectStart int `json:"subjectStart"`
	SubjectEnd   int `json:"subjectEnd"`

	// full-length protospacer bounds: the aligned region grown by the
	// query's unaligned overhangs, clamped to the subject
	ProtoFullStart int `json:"protoFullStart"`
	ProtoFullEnd   int `json:"protoFullEnd"`

	// flank-extended bounds
	ProtoFullXStart int `json:"protoFullXStart"`
	ProtoFullXEnd   int `json:"protoFullXEnd"`

	// bp actually added on the low/high coordinate side to reach the
	// full-length bounds (post-clamp, so possibly short of the overhang)
	UpExt   int `json:"upExt"`
	DownExt int `json:"downExt"`

	// bp of flank actually added on each side (post-clamp)
	XUp   int `json:"xUp"`
	XDown int `json:"xDown"`
}

// FullLength returns the length of the full protospacer region.
func (e Extension) FullLength() int {
	return e.ProtoFullEnd - e.ProtoFullStart + 1
}

// ExtendedLength returns the length of the flank-extended region.
func (e Extension) ExtendedLength() int {
	return e.ProtoFullXEnd - e.ProtoFullXStart + 1
}

// LeadingFlank returns how many bp of flank precede the protospacer in
// the extended sequence, in reading orientation. On a minus strand hit
// the fetched sequence is reverse complemented, so the high-coordinate
// flank comes first.
func (e Extension) LeadingFlank() int {
	if e.Strand == -1 {
		return e.XDown
	}
	return e.XUp
}

// TrailingFlank is the reading-orientation counterpart of LeadingFlank.
func (e Extension) TrailingFlank() int {
	if e.Strand == -1 {
		return e.XUp
	}
	return e.XDown
}

// Extend computes the full-length protospacer bounds for one HSP by
// redistributing the query's unaligned overhangs onto the subject, then
// growing the result by flank bp of context on each side. Coordinates
// at the subject's edges are truncated, never an error.
//
// On a minus strand hit the query's 5' end maps to the subject's
// high-coordinate end, so the two overhangs swap sides.
func Extend(h HSP, queryLength, subjectLength, flank int) (Extension, error) {
	if queryLength < 1 {
		return Extension{}, fmt.Errorf("query length must be positive, got %d", queryLength)
	}
	if subjectLength < 1 {
		return Extension{}, fmt.Errorf("subject length must be positive, got %d", subjectLength)
	}
	if flank < 0 {
		return Extension{}, fmt.Errorf("flank must be >= 0, got %d", flank)
	}
	if h.QueryStart < 1 || h.QueryEnd < h.QueryStart || h.QueryEnd > queryLength {
		return Extension{}, fmt.Errorf(
			"query range [%d,%d] is not a 1-based range within the %d bp query",
			h.QueryStart, h.QueryEnd, queryLength,
		)
	}
	if h.SubjectStart < 1 || h.SubjectEnd < 1 {
		return Extension{}, fmt.Errorf(
			"subject range [%d,%d] is not 1-based", h.SubjectStart, h.SubjectEnd,
		)
	}

	// normalize strand so subject coordinates read low to high
	strand := 1
	start, end := h.SubjectStart, h.SubjectEnd
	if start > end {
		strand = -1
		start, end = end, start
	}
	if end > subjectLength {
		return Extension{}, fmt.Errorf(
			"subject range [%d,%d] exceeds the %d bp subject", start, end, subjectLength,
		)
	}

	// unaligned query overhangs to redistribute onto the subject
	up := h.QueryStart - 1
	down := queryLength - h.QueryEnd
	if strand == -1 {
		up, down = down, up
	}

	fullStart := start - up
	fullEnd := end + down
	if fullStart < 1 {
		fullStart = 1
	}
	if fullEnd > subjectLength {
		fullEnd = subjectLength
	}

	xStart := fullStart - flank
	xEnd := fullEnd + flank
	if xStart < 1 {
		xStart = 1
	}
	if xEnd > subjectLength {
		xEnd = subjectLength
	}

	return Extension{
		Strand:          strand,
		SubjectStart:    start,
		SubjectEnd:      end,
		ProtoFullStart:  fullStart,
		ProtoFullEnd:    fullEnd,
		ProtoFullXStart: xStart,
		ProtoFullXEnd:   xEnd,
		UpExt:           start - fullStart,
		DownExt:         fullEnd - end,
		XUp:             fullStart - xStart,
		XDown:           xEnd - fullEnd,
	}, nil
}
