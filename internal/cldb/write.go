package cldb

import (
	"fmt"
	"io"
	"strings"
)

// hit table columns, one row per annotated spacer HSP
var hitHeader = []string{
	"locus", "query", "subject", "hsp",
	"strand", "proto_start", "proto_end", "proto_x_start", "proto_x_end",
	"array_hit", "pam_5p", "pam_3p",
	"proto_seq_extended",
	"seed_mismatches", "seed_positions", "seed_rate",
	"nonseed_mismatches", "nonseed_positions", "nonseed_rate",
	"crRNA_aln", "proto_aln",
}

// WriteHitsTSV writes the classified/annotated hit table, CLdb's main
// protospacer report.
func WriteHitsTSV(w io.Writer, records []Record) error {
	if _, err := fmt.Fprintln(w, strings.Join(hitHeader, "\t")); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Locus, r.QueryID, r.SubjectID, fmt.Sprintf("%d", r.Ordinal),
			fmt.Sprintf("%+d", r.Extension.Strand),
			fmt.Sprintf("%d", r.Extension.ProtoFullStart),
			fmt.Sprintf("%d", r.Extension.ProtoFullEnd),
			fmt.Sprintf("%d", r.Extension.ProtoFullXStart),
			fmt.Sprintf("%d", r.Extension.ProtoFullXEnd),
			fmt.Sprintf("%t", r.ArrayHit),
			r.PAM5, r.PAM3,
			r.ProtoSeqExtended,
			fmt.Sprintf("%d", r.Seed.Seed.Mismatches),
			fmt.Sprintf("%d", r.Seed.Seed.Positions),
			fmt.Sprintf("%.4f", r.Seed.Seed.Rate),
			fmt.Sprintf("%d", r.Seed.NonSeed.Mismatches),
			fmt.Sprintf("%d", r.Seed.NonSeed.Positions),
			fmt.Sprintf("%.4f", r.Seed.NonSeed.Rate),
			r.Alignment.CrRNA, r.Alignment.Protospacer,
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// WriteProfileTSV writes the by-position mismatch profile: one row per
// protospacer position per record, keyed by distance from the seed
// start. Feeds the "mismatches by distance from seed" table/plot.
func WriteProfileTSV(w io.Writer, records []Record) error {
	header := []string{"locus", "query", "subject", "hsp", "offset", "mismatch", "region"}
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}

	for _, r := range records {
		for _, p := range r.Profile {
			row := []string{
				r.Locus, r.QueryID, r.SubjectID, fmt.Sprintf("%d", r.Ordinal),
				fmt.Sprintf("%d", p.Offset),
				fmt.Sprintf("%d", p.Mismatch),
				p.Region,
			}
			if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
				return err
			}
		}
	}
	return nil
}
