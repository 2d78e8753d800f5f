// Package cldb post-processes spacer and direct repeat BLAST hits against
// genome databases: it reconstructs full-length protospacers from partial
// local alignments, classifies spacer hits as array hits vs genuine
// protospacers, extracts candidate PAM regions and profiles mismatches
// against a declared seed region.
package cldb

import (
	"fmt"
	"strconv"
	"strings"
)

// QueryKind says whether a query sequence was a spacer or a direct repeat.
type QueryKind int

const (
	// QueryUnknown is for query ids that don't encode a kind
	QueryUnknown QueryKind = iota

	// QuerySpacer is a spacer query
	QuerySpacer

	// QueryRepeat is a direct repeat query
	QueryRepeat
)

// String display method
func (k QueryKind) String() string {
	switch k {
	case QuerySpacer:
		return "spacer"
	case QueryRepeat:
		return "DR"
	}
	return "unknown"
}

// Run is one BLAST search of all queries against one subject database.
// Immutable after decode.
type Run struct {
	// DatabaseID is the path/identifier of the subject sequence collection
	DatabaseID string

	// Iterations holds one entry per query sequence
	Iterations []Iteration
}

// Iteration is one query sequence's results. A query with no hits has an
// empty Hits slice.
type Iteration struct {
	// QueryID names the query. It encodes the locus/group and whether the
	// query is a spacer or a direct repeat, eg "locus12_spacer_3"
	QueryID string

	// QueryLength is the full length of the query sequence
	QueryLength int

	// Hits holds one entry per subject sequence the query aligned to
	Hits []Hit
}

// Hit is one subject sequence (scaffold/contig) a query aligned to.
type Hit struct {
	// SubjectID names the subject sequence in the database
	SubjectID string

	// SubjectLength is the full length of the subject sequence
	SubjectLength int

	// HSPs holds the local alignments against this subject
	HSPs []HSP
}

// HSP is one local alignment between a query and a subject. All
// coordinates are 1-based and inclusive. QueryStart <= QueryEnd always;
// SubjectStart > SubjectEnd encodes a minus strand hit until the HSP is
// strand-normalized by Extend.
type HSP struct {
	// QueryStart of the aligned query region
	QueryStart int

	// QueryEnd of the aligned query region
	QueryEnd int

	// SubjectStart of the aligned subject region (raw, strand-encoding)
	SubjectStart int

	// SubjectEnd of the aligned subject region (raw, strand-encoding)
	SubjectEnd int

	// Evalue of the alignment
	Evalue float64

	// BitScore of the alignment
	BitScore float64

	// Identity is the count of matching aligned positions
	Identity int

	// AlignLen is the length of the alignment, gaps included
	AlignLen int

	// Gaps is the count of gap positions in the alignment
	Gaps int
}

// Strand returns the strand encoded by the HSP's raw subject
// coordinates: +1 for plus, -1 for minus.
func (h HSP) Strand() int {
	if h.SubjectStart > h.SubjectEnd {
		return -1
	}
	return 1
}

// Alignment is a gapped crRNA/protospacer pair. Both strings are the
// same length; '-' is the gap character. Flank-derived characters are
// lower-case, the protospacer and spacer proper are upper-case.
type Alignment struct {
	CrRNA       string `json:"crRNA"`
	Protospacer string `json:"protospacer"`
}

// Record is one fully annotated spacer HSP: the accumulated output of
// every pipeline stage for a single unit of work. Stages only ever add
// fields; a zero value means the stage didn't run for this record.
type Record struct {
	// identity of the unit: query, subject and the HSP's ordinal
	// within its Hit
	QueryID   string `json:"queryId"`
	SubjectID string `json:"subjectId"`
	Ordinal   int    `json:"ordinal"`

	// Locus parsed out of the query id
	Locus string `json:"locus"`

	// Extension holds the strand-normalized, extended coordinates
	Extension Extension `json:"extension"`

	// ArrayHit is true when the spacer hit lies inside a CRISPR array
	ArrayHit bool `json:"arrayHit"`

	// Classified is true once the adjacency index has been consulted
	Classified bool `json:"classified"`

	// ProtoSeq is the full-length protospacer sequence, strand-corrected
	ProtoSeq string `json:"protoSeq,omitempty"`

	// ProtoSeqExtended is ProtoSeq with up to flank bp of context on
	// each side; protospacer upper-case, flanks lower-case
	ProtoSeqExtended string `json:"protoSeqExtended,omitempty"`

	// PAM5 is the candidate PAM upstream of the protospacer 5' end
	PAM5 string `json:"pam5p,omitempty"`

	// PAM3 is the candidate PAM downstream of the protospacer 3' end
	PAM3 string `json:"pam3p,omitempty"`

	// Alignment of the crRNA against the extended protospacer
	Alignment Alignment `json:"alignment,omitempty"`

	// Seed summarizes mismatch counts by region
	Seed SeedSummary `json:"seed,omitempty"`

	// Profile is the per-position mismatch profile, keyed by distance
	// from the seed start
	Profile []PositionMismatch `json:"profile,omitempty"`
}

// Key uniquely identifies a record within a batch.
func (r Record) Key() string {
	return fmt.Sprintf("%s/%s/%d", r.QueryID, r.SubjectID, r.Ordinal)
}

// ParseQueryID splits a query id of the form "<locus>_spacer_<n>" or
// "<locus>_DR_<n>" into its locus, kind and ordinal. Ids that don't
// follow the convention come back as QueryUnknown with the whole id as
// the locus, so foreign queries survive a decode without erroring.
func ParseQueryID(queryID string) (locus string, kind QueryKind, ordinal int) {
	parts := strings.Split(queryID, "_")
	for i, part := range parts {
		var k QueryKind
		switch strings.ToLower(part) {
		case "spacer":
			k = QuerySpacer
		case "dr", "repeat":
			k = QueryRepeat
		default:
			continue
		}

		locus = strings.Join(parts[:i], "_")
		if i+1 < len(parts) {
			ordinal, _ = strconv.Atoi(parts[i+1])
		}
		return locus, k, ordinal
	}

	return queryID, QueryUnknown, 0
}

// SpacerRegion describes how a crRNA read relates to the spacer proper:
// the read may include repeat-derived bases on either side. Coordinates
// are 1-based positions on the source locus.
type SpacerRegion struct {
	// bounds of the read-out region, repeats included
	RegionStart int `json:"regionStart"`
	RegionEnd   int `json:"regionEnd"`

	// bounds of the spacer proper within the region
	SpacerStart int `json:"spacerStart"`
	SpacerEnd   int `json:"spacerEnd"`
}

// RepeatOverhangs returns how many repeat-derived bases flank the
// spacer on its 5' and 3' ends within the crRNA read.
func (r SpacerRegion) RepeatOverhangs() (up, down int) {
	up = r.SpacerStart - r.RegionStart
	down = r.RegionEnd - r.SpacerEnd
	if up < 0 {
		up = 0
	}
	if down < 0 {
		down = 0
	}
	return up, down
}

// Query bundles a query's sequence with its optional region metadata.
type Query struct {
	// Seq is the full query (crRNA) sequence
	Seq string

	// Region is the spacer/repeat boundary metadata; zero value means
	// the read is the spacer proper with no repeat overhang
	Region SpacerRegion
}
