package cldb

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// unwantedChars strips whitespace and other non-sequence characters
// from FASTA sequence lines. Ambiguity codes survive.
var unwantedChars = regexp.MustCompile(`(?im)[^acgturywsmkhbvdn]`)

// ReadQueryFASTA reads the spacer/DR query FASTA into a map of query id
// to Query. Only the first whitespace-delimited token of each header is
// kept, matching what BLAST reports as qseqid.
func ReadQueryFASTA(path string) (map[string]Query, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fasta file %s: %v", path, err)
	}

	queries := map[string]Query{}
	var id string
	var seq strings.Builder

	flush := func() {
		if id != "" {
			queries[id] = Query{Seq: seq.String()}
		}
		seq.Reset()
	}

	for n, line := range strings.Split(string(dat), "\n") {
		if strings.HasPrefix(line, ">") {
			flush()
			fields := strings.Fields(line[1:])
			if len(fields) == 0 {
				return nil, fmt.Errorf("fasta file %s line %d: header without a sequence id", path, n+1)
			}
			id = fields[0]
			continue
		}
		seq.WriteString(unwantedChars.ReplaceAllString(line, ""))
	}
	flush()

	if len(queries) == 0 {
		return nil, fmt.Errorf("no sequences in fasta file %s", path)
	}
	return queries, nil
}

// ReadRegions overlays spacer region metadata onto queries from a TSV
// of: query_id, region_start, region_end, spacer_start, spacer_end.
// The region bounds say how much repeat-derived sequence flanks the
// spacer in each crRNA read. Lines starting with '#' are skipped.
// Queries absent from the file keep a zero region (no repeat overhang).
func ReadRegions(path string, queries map[string]Query) error {
	dat, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to open regions file %s: %v", path, err)
	}

	for n, line := range strings.Split(string(dat), "\n") {
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		cols := strings.Fields(line)
		if len(cols) != 5 {
			return fmt.Errorf("regions file %s line %d: expected 5 columns, got %d", path, n+1, len(cols))
		}

		q, ok := queries[cols[0]]
		if !ok {
			continue
		}

		var vals [4]int
		for i := 0; i < 4; i++ {
			if vals[i], err = strconv.Atoi(cols[i+1]); err != nil {
				return fmt.Errorf("regions file %s line %d: bad coordinate: %v", path, n+1, err)
			}
		}

		region := SpacerRegion{
			RegionStart: vals[0],
			RegionEnd:   vals[1],
			SpacerStart: vals[2],
			SpacerEnd:   vals[3],
		}
		if region.RegionStart > region.SpacerStart || region.SpacerEnd > region.RegionEnd ||
			region.SpacerStart > region.SpacerEnd {
			return fmt.Errorf(
				"regions file %s line %d: spacer [%d,%d] not within region [%d,%d]",
				path, n+1, region.SpacerStart, region.SpacerEnd, region.RegionStart, region.RegionEnd,
			)
		}

		q.Region = region
		queries[cols[0]] = q
	}
	return nil
}
