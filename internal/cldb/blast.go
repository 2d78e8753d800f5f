package cldb

import (
	"fmt"
	"os"
	"os/exec"
	"path"
	"strconv"
	"strings"
)

// outfmt is the custom tabular format requested from blastn and
// expected by Decode. Column order matters.
const outfmt = "7 qseqid qlen sseqid slen qstart qend sstart send evalue bitscore length nident gaps"

// blastExec is a small utility struct for executing BLAST on the
// spacer/DR query set.
type blastExec struct {
	// the name and sequences of the queries we're BLASTing
	queries map[string]Query

	// the path to the database we're BLASTing against
	db string

	// the path to the input BLAST file
	in string

	// the path for the BLAST output
	out string

	// path to the blastn executable
	blastn string

	// number of threads blastn may use
	threads int
}

// Blast writes the queries to a FASTA file, runs blastn against db and
// decodes the tabular output into a Run. dir holds the intermediate
// files.
func Blast(queries map[string]Query, db, dir, blastn string, threads int) (Run, error) {
	if _, err := os.Stat(db + ".nsq"); os.IsNotExist(err) {
		if _, err := os.Stat(db); os.IsNotExist(err) {
			return Run{}, fmt.Errorf("failed to find a BLAST database at %s", db)
		}
	}

	b := &blastExec{
		queries: queries,
		db:      db,
		in:      path.Join(dir, "queries.input.fa"),
		out:     path.Join(dir, "queries.output"),
		blastn:  blastn,
		threads: threads,
	}

	if err := b.create(); err != nil {
		return Run{}, fmt.Errorf("failed at creating BLAST input file at %s: %v", b.in, err)
	}

	if err := b.run(); err != nil {
		return Run{}, fmt.Errorf("failed executing BLAST: %v", err)
	}

	file, err := os.ReadFile(b.out)
	if err != nil {
		return Run{}, fmt.Errorf("failed to read BLAST output: %v", err)
	}

	run, err := Decode(string(file), b.db)
	if err != nil {
		return Run{}, fmt.Errorf("failed to parse BLAST output: %v", err)
	}
	return run, nil
}

// create makes the input file for BLAST: every query on its own record.
func (b *blastExec) create() error {
	var sb strings.Builder
	for id, q := range b.queries {
		fmt.Fprintf(&sb, ">%s\n%s\n", id, q.Seq)
	}
	return os.WriteFile(b.in, []byte(sb.String()), 0666)
}

// run calls the external blastn binary on the input library.
func (b *blastExec) run() error {
	threads := b.threads
	if threads < 1 {
		threads = 1
	}

	// create the blast command
	// https://www.ncbi.nlm.nih.gov/books/NBK279682/
	blastCmd := exec.Command(
		b.blastn,
		"-task", "blastn-short",
		"-db", b.db,
		"-query", b.in,
		"-out", b.out,
		"-outfmt", outfmt,
		"-num_threads", strconv.Itoa(threads),
	)

	// execute BLAST and wait on it to finish
	if output, err := blastCmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to execute blastn against db, %s: %v: %s", b.db, err, string(output))
	}
	return nil
}

// Decode parses blastn tabular output (see outfmt) into a Run.
// Rows are grouped into one Iteration per query and one Hit per subject,
// in file order. Comment lines are skipped; a malformed data row aborts
// the whole decode because the batch-level shape contract is broken.
// Queries with zero hits only appear as comments in tabular output, so
// their Iterations are absent rather than empty.
func Decode(output, databaseID string) (Run, error) {
	run := Run{DatabaseID: databaseID}

	// index of each query's Iteration and each (query, subject) Hit
	iterIndex := map[string]int{}
	hitIndex := map[string]int{}

	for n, line := range strings.Split(output, "\n") {
		// comment lines start with a #
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		cols := strings.Fields(line)
		if len(cols) != 13 {
			return Run{}, fmt.Errorf(
				"line %d: expected 13 columns of %q output, got %d", n+1, outfmt, len(cols),
			)
		}

		queryID := cols[0]
		subjectID := cols[2]

		var (
			hsp  HSP
			qlen, slen int
			err  error
		)
		for _, field := range []struct {
			dst *int
			col int
		}{
			{&qlen, 1}, {&slen, 3},
			{&hsp.QueryStart, 4}, {&hsp.QueryEnd, 5},
			{&hsp.SubjectStart, 6}, {&hsp.SubjectEnd, 7},
			{&hsp.AlignLen, 10}, {&hsp.Identity, 11}, {&hsp.Gaps, 12},
		} {
			if *field.dst, err = strconv.Atoi(cols[field.col]); err != nil {
				return Run{}, fmt.Errorf("line %d: bad integer in column %d: %v", n+1, field.col+1, err)
			}
		}
		if hsp.Evalue, err = strconv.ParseFloat(cols[8], 64); err != nil {
			return Run{}, fmt.Errorf("line %d: bad evalue: %v", n+1, err)
		}
		if hsp.BitScore, err = strconv.ParseFloat(cols[9], 64); err != nil {
			return Run{}, fmt.Errorf("line %d: bad bit score: %v", n+1, err)
		}

		i, ok := iterIndex[queryID]
		if !ok {
			i = len(run.Iterations)
			iterIndex[queryID] = i
			run.Iterations = append(run.Iterations, Iteration{
				QueryID:     queryID,
				QueryLength: qlen,
			})
		}

		hitKey := queryID + "\x00" + subjectID
		j, ok := hitIndex[hitKey]
		if !ok {
			j = len(run.Iterations[i].Hits)
			hitIndex[hitKey] = j
			run.Iterations[i].Hits = append(run.Iterations[i].Hits, Hit{
				SubjectID:     subjectID,
				SubjectLength: slen,
			})
		}

		run.Iterations[i].Hits[j].HSPs = append(run.Iterations[i].Hits[j].HSPs, hsp)
	}

	return run, nil
}

// DBFetcher retrieves subject subsequences with blastdbcmd, so the
// pipeline can run off the same BLAST database it searched, without a
// separate FASTA copy of the genomes. Subject lengths come from the
// decoded Run (the slen column).
type DBFetcher struct {
	// the BLAST database to fetch from
	db string

	// path to the blastdbcmd executable
	blastdbcmd string

	// subject id -> length, from the decoded hits
	lengths map[string]int
}

// NewDBFetcher builds a blastdbcmd-backed Fetcher for the subjects
// named in run.
func NewDBFetcher(run Run, db, blastdbcmd string) *DBFetcher {
	lengths := map[string]int{}
	for _, it := range run.Iterations {
		for _, hit := range it.Hits {
			lengths[hit.SubjectID] = hit.SubjectLength
		}
	}
	return &DBFetcher{db: db, blastdbcmd: blastdbcmd, lengths: lengths}
}

// Fetch implements Fetcher.
func (f *DBFetcher) Fetch(subjectID string, start, end, strand int) (string, error) {
	length, ok := f.lengths[subjectID]
	if !ok {
		return "", &NotFoundError{SubjectID: subjectID}
	}
	if err := checkRange(subjectID, start, end, length, strand); err != nil {
		return "", err
	}

	strandArg := "plus"
	if strand == -1 {
		strandArg = "minus"
	}

	// make a blastdbcmd command (for querying a DB, very different from blastn)
	queryCmd := exec.Command(
		f.blastdbcmd,
		"-db", f.db,
		"-entry", subjectID,
		"-range", fmt.Sprintf("%d-%d", start, end),
		"-strand", strandArg,
		"-outfmt", "%s", // sequence data without a defline
	)

	output, err := queryCmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf(
			"failed to execute blastdbcmd for %s:[%d,%d]: %v: %s",
			subjectID, start, end, err, string(output),
		)
	}

	return strings.TrimSpace(string(output)), nil
}

// Length implements Fetcher.
func (f *DBFetcher) Length(subjectID string) (int, bool) {
	length, ok := f.lengths[subjectID]
	return length, ok
}
