package cldb

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/multierr"
)

// Options are the operator-set knobs of the post-processing pipeline.
type Options struct {
	// bp of context fetched beyond the full-length protospacer
	Flank int

	// bp of slack on each side of a DR hit window for adjacency tests
	Padding int

	// DR hit quality floor
	MinAlignFraction float64
	MaxEvalue        float64

	// 1 or 2 flanking DR sides required for an array-hit call
	MinAdjacentSides int

	// seed region definition
	Seed SeedIndex

	// whether gapped columns are excluded from mismatch counts
	IgnoreGaps bool

	// PAM windows; zero-value windows disable extraction on that side
	PAMUp, PAMDown Window

	// worker pool size
	Threads int

	// render a progress bar while processing
	Progress bool
}

// Stats are the end-of-run counts reported so silent data loss can't
// go unnoticed.
type Stats struct {
	// spacer HSPs submitted for processing
	Total int `json:"total"`

	// DR hits excluded from the adjacency index by the quality floor
	FilteredDR int `json:"filteredDR"`

	// DR hits that entered the adjacency index
	KeptDR int `json:"keptDR"`

	// spacer HSPs classified as hits back into a CRISPR array
	ArrayHits int `json:"arrayHits"`

	// spacer HSPs classified as genuine protospacers
	Protospacers int `json:"protospacers"`

	// units that failed on a sequence-index lookup
	LookupFailures int `json:"lookupFailures"`

	// units rejected for violating the input contract
	ContractFailures int `json:"contractFailures"`
}

// String display method, for the end-of-run log line.
func (s Stats) String() string {
	return fmt.Sprintf(
		"total=%d filtered-DR=%d array=%d protospacer=%d lookup-failures=%d contract-failures=%d",
		s.Total, s.FilteredDR, s.ArrayHits, s.Protospacers, s.LookupFailures, s.ContractFailures,
	)
}

// unit is one spacer HSP's worth of work: everything a worker needs
// without touching shared state.
type unit struct {
	queryID       string
	locus         string
	queryLength   int
	subjectID     string
	subjectLength int
	ordinal       int
	hsp           HSP
	query         Query
	haveQuery     bool
}

// unitError ties a per-unit failure to the unit's identity for the
// aggregated error report.
type unitError struct {
	key   string
	cause error
}

func (e *unitError) Error() string {
	return fmt.Sprintf("%s: %v", e.key, e.cause)
}

func (e *unitError) Unwrap() error { return e.cause }

// Process runs the full post-processing chain over every spacer HSP in
// runs: coordinate extension, array-vs-protospacer classification,
// sequence retrieval, PAM extraction, alignment annotation and seed
// mismatch analysis. queries maps query ids to their sequences and
// region metadata; units whose query sequence is unknown skip the
// alignment stages. Per-unit failures never abort the batch: they are
// aggregated into the returned error and counted in Stats.
func Process(runs []Run, queries map[string]Query, fetcher Fetcher, aligner Aligner, opt Options) ([]Record, Stats, error) {
	drHits, units := partition(runs)

	index, err := NewDRIndex(drHits, opt.Padding, opt.MinAlignFraction, opt.MaxEvalue)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to build DR adjacency index: %v", err)
	}

	stats := Stats{
		Total:      len(units),
		FilteredDR: index.Filtered,
		KeptDR:     index.Kept,
	}

	threads := opt.Threads
	if threads < 1 {
		threads = 1
	}

	type result struct {
		rec Record
		err error
	}

	jobs := make(chan unit, threads*2)
	results := make(chan result, threads*2)

	var wg sync.WaitGroup
	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer wg.Done()
			for u := range jobs {
				rec, err := processUnit(u, index, fetcher, aligner, opt)
				results <- result{rec: rec, err: err}
			}
		}()
	}

	go func() {
		for _, u := range units {
			if q, ok := queries[u.queryID]; ok {
				u.query = q
				u.haveQuery = true
			}
			jobs <- u
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var bar *pb.ProgressBar
	if opt.Progress {
		bar = pb.StartNew(len(units))
	}

	// single collector: the only writer of the merged output
	var (
		records []Record
		merr    error
	)
	for res := range results {
		if bar != nil {
			bar.Increment()
		}

		if res.err != nil {
			merr = multierr.Append(merr, res.err)

			var nf *NotFoundError
			var re *RangeError
			if errors.As(res.err, &nf) || errors.As(res.err, &re) {
				stats.LookupFailures++
			} else {
				stats.ContractFailures++
			}
			continue
		}

		if res.rec.ArrayHit {
			stats.ArrayHits++
		} else {
			stats.Protospacers++
		}
		records = append(records, res.rec)
	}
	if bar != nil {
		bar.Finish()
	}

	// merge by key, not arrival order
	sort.Slice(records, func(i, j int) bool {
		if records[i].SubjectID != records[j].SubjectID {
			return records[i].SubjectID < records[j].SubjectID
		}
		if records[i].QueryID != records[j].QueryID {
			return records[i].QueryID < records[j].QueryID
		}
		return records[i].Ordinal < records[j].Ordinal
	})

	return records, stats, merr
}

// partition splits the decoded runs into DR hits (index input) and
// spacer units (pipeline input). Queries of unknown kind are ignored.
func partition(runs []Run) (drHits []DRHit, units []unit) {
	for _, run := range runs {
		for _, it := range run.Iterations {
			locus, kind, _ := ParseQueryID(it.QueryID)

			for _, hit := range it.Hits {
				for ord, hsp := range hit.HSPs {
					switch kind {
					case QueryRepeat:
						drHits = append(drHits, DRHit{
							SubjectID:   hit.SubjectID,
							QueryLength: it.QueryLength,
							HSP:         hsp,
						})
					case QuerySpacer:
						units = append(units, unit{
							queryID:       it.QueryID,
							locus:         locus,
							queryLength:   it.QueryLength,
							subjectID:     hit.SubjectID,
							subjectLength: hit.SubjectLength,
							ordinal:       ord,
							hsp:           hsp,
						})
					}
				}
			}
		}
	}
	return drHits, units
}

// processUnit runs the strictly sequential per-HSP chain:
// extend -> classify -> fetch -> extract/align -> seed-analyze.
func processUnit(u unit, index *DRIndex, fetcher Fetcher, aligner Aligner, opt Options) (Record, error) {
	key := fmt.Sprintf("%s/%s/%d", u.queryID, u.subjectID, u.ordinal)
	fail := func(err error) (Record, error) {
		return Record{}, &unitError{key: key, cause: err}
	}

	ext, err := Extend(u.hsp, u.queryLength, u.subjectLength, opt.Flank)
	if err != nil {
		return fail(err)
	}

	rec := Record{
		QueryID:    u.queryID,
		SubjectID:  u.subjectID,
		Ordinal:    u.ordinal,
		Locus:      u.locus,
		Extension:  ext,
		ArrayHit:   index.Classify(u.subjectID, ext.Strand, ext.SubjectStart, ext.SubjectEnd, opt.MinAdjacentSides),
		Classified: true,
	}

	rec.ProtoSeq, err = fetcher.Fetch(u.subjectID, ext.ProtoFullStart, ext.ProtoFullEnd, ext.Strand)
	if err != nil {
		return fail(err)
	}
	extSeq, err := fetcher.Fetch(u.subjectID, ext.ProtoFullXStart, ext.ProtoFullXEnd, ext.Strand)
	if err != nil {
		return fail(err)
	}

	// the protospacer's position within the extended sequence, in
	// reading orientation
	protoStart := ext.LeadingFlank() + 1
	protoEnd := ext.LeadingFlank() + ext.FullLength()

	rec.ProtoSeqExtended, err = CaseMark(extSeq, protoStart, protoEnd)
	if err != nil {
		return fail(err)
	}

	if (opt.PAMUp != Window{}) {
		if rec.PAM5, err = ExtractPAM(extSeq, protoStart, protoEnd, opt.PAMUp); err != nil {
			return fail(err)
		}
	}
	if (opt.PAMDown != Window{}) {
		if rec.PAM3, err = ExtractPAM(extSeq, protoStart, protoEnd, opt.PAMDown); err != nil {
			return fail(err)
		}
	}

	// alignment and seed analysis need the crRNA sequence; without it
	// the record stops here, fully classified and PAM-annotated
	if !u.haveQuery || aligner == nil {
		return rec, nil
	}

	aln, err := aligner.Align(u.query.Seq, extSeq)
	if err != nil {
		return fail(err)
	}

	crUp, crDown := u.query.Region.RepeatOverhangs()
	rec.Alignment, err = MarkFlanks(aln, ext.LeadingFlank(), ext.TrailingFlank(), crUp, crDown)
	if err != nil {
		return fail(err)
	}

	rec.Seed, rec.Profile, err = AnalyzeSeed(rec.Alignment, opt.Seed, opt.IgnoreGaps)
	if err != nil {
		return fail(err)
	}

	return rec, nil
}
