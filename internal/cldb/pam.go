package cldb

import (
	"fmt"
	"strings"
)

// Window is a 1-based offset window counted outward from a protospacer
// boundary. Both offsets negative selects the upstream flank (offset -1
// is the base immediately 5' of the protospacer), both positive the
// downstream flank (offset 1 immediately 3'). Mixed signs are a
// configuration error.
type Window struct {
	Start, End int
}

// upstream reports which flank the window selects.
func (w Window) upstream() (bool, error) {
	switch {
	case w.Start == 0 || w.End == 0:
		return false, fmt.Errorf("PAM window offsets are 1-based, got [%d,%d]", w.Start, w.End)
	case w.Start < 0 && w.End < 0:
		return true, nil
	case w.Start > 0 && w.End > 0:
		return false, nil
	}
	return false, fmt.Errorf("PAM window [%d,%d] mixes upstream and downstream offsets", w.Start, w.End)
}

// ExtractPAM slices the requested window out of the flanks of a
// flank-extended protospacer sequence. protoStart/protoEnd locate the
// protospacer within extSeq (1-based, inclusive). A window reaching
// past the available flank is clamped: the result may be short or
// empty, never an error.
func ExtractPAM(extSeq string, protoStart, protoEnd int, w Window) (string, error) {
	if protoStart < 1 || protoEnd < protoStart || protoEnd > len(extSeq) {
		return "", fmt.Errorf(
			"protospacer span [%d,%d] is invalid for a %d bp sequence",
			protoStart, protoEnd, len(extSeq),
		)
	}

	up, err := w.upstream()
	if err != nil {
		return "", err
	}

	if up {
		// reverse the upstream flank so offset 1 is nearest the
		// protospacer, slice, then restore orientation
		flank := reverseString(extSeq[:protoStart-1])
		lo, hi := -w.End, -w.Start
		return reverseString(sliceClamped(flank, lo, hi)), nil
	}

	flank := extSeq[protoEnd:]
	return sliceClamped(flank, w.Start, w.End), nil
}

// sliceClamped returns s[lo-1:hi] with both offsets clamped to the
// string's bounds; an out-of-range window yields "".
func sliceClamped(s string, lo, hi int) string {
	if lo < 1 {
		lo = 1
	}
	if hi > len(s) {
		hi = len(s)
	}
	if lo > hi {
		return ""
	}
	return s[lo-1 : hi]
}

// reverseString reverses a sequence byte-wise.
func reverseString(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// CaseMark renders a flank-extended sequence for display: the
// protospacer span upper-case, both flanks lower-case.
func CaseMark(extSeq string, protoStart, protoEnd int) (string, error) {
	if protoStart < 1 || protoEnd < protoStart || protoEnd > len(extSeq) {
		return "", fmt.Errorf(
			"protospacer span [%d,%d] is invalid for a %d bp sequence",
			protoStart, protoEnd, len(extSeq),
		)
	}

	return strings.ToLower(extSeq[:protoStart-1]) +
		strings.ToUpper(extSeq[protoStart-1:protoEnd]) +
		strings.ToLower(extSeq[protoEnd:]), nil
}
