// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

type VCFOptions struct {
	// Skip records with QUAL below MinQual. Records without QUAL
	// are kept.
	MinQual float64 `yaml:"min_qual" envconfig:"GENOMICS_VCF_MIN_QUAL"`

	// Skip records whose FILTER is not PASS or ".".
	DropFiltered bool `yaml:"drop_filtered" envconfig:"GENOMICS_VCF_DROP_FILTERED"`

	// Stop after this many variants (0 = no limit).
	MaxVariants int `yaml:"max_variants" envconfig:"GENOMICS_VCF_MAX_VARIANTS"`
}

// ReadVCFFile reads a plain or compressed VCF file (see zopen).
func ReadVCFFile(ctx context.Context, fnm string, opts VCFOptions) (*Dataset, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := ReadVCF(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	return ds, nil
}

// ReadVCF reads VCF text into a dataset, one column per record and
// one sample per VCF sample column. GQ values are used as genotype
// scores.
func ReadVCF(ctx context.Context, r io.Reader, opts VCFOptions) (*Dataset, error) {
	scanner := bufio.NewScanner(r)
	const maxCapacity = 64 * 1000000
	scanner.Buffer(make([]byte, 1<<20), maxCapacity)
	var ds *Dataset
	lineno, skipped := 0, 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if strings.HasPrefix(line, "##") {
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			ds = NewDataset(vcfSamples(strings.Split(line, "\t")))
			continue
		}
		if line == "" {
			continue
		}
		if ds == nil {
			return nil, fmt.Errorf("line %d: record before #CHROM header", lineno)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ga, err := parseVCFRecord(line, len(ds.Samples), opts)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		if ga == nil {
			skipped++
			continue
		}
		if err := ds.AddColumn(ga); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		if opts.MaxVariants > 0 && len(ds.Columns) >= opts.MaxVariants {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, fmt.Errorf("no #CHROM header line")
	}
	log.Infof("read %d variants x %d samples from VCF, skipped %d records", len(ds.Columns), len(ds.Samples), skipped)
	return ds, nil
}

func vcfSamples(header []string) []Sample {
	if len(header) <= 9 {
		return nil
	}
	samples := make([]Sample, len(header)-9)
	for i, name := range header[9:] {
		samples[i] = Sample{FID: name, IID: name, Phenotype: nan}
	}
	return samples
}

// parseVCFRecord returns nil (and no error) for records excluded by
// opts.
func parseVCFRecord(line string, nsamples int, opts VCFOptions) (*GenotypeArray, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, fmt.Errorf("expected at least 8 tab-delimited fields, found %d", len(fields))
	}
	if nsamples > 0 && len(fields) != 9+nsamples {
		return nil, fmt.Errorf("expected %d fields (%d samples), found %d", 9+nsamples, nsamples, len(fields))
	}
	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("bad POS: %w", err)
	}
	score := MissingScore
	if qual := fields[5]; qual != "." {
		q, err := strconv.ParseFloat(qual, 64)
		if err != nil {
			return nil, fmt.Errorf("bad QUAL: %w", err)
		}
		if q < opts.MinQual {
			return nil, nil
		}
		score = int(math.Round(q))
	}
	if opts.DropFiltered && fields[6] != "PASS" && fields[6] != "." {
		return nil, nil
	}
	id, ref := fields[2], fields[3]
	if id == "." {
		id = ""
	}
	if ref == "." {
		ref = ""
	}
	var alt []string
	if fields[4] != "." {
		alt = strings.Split(fields[4], ",")
	}
	v, err := NewVariant(fields[0], pos, id, ref, alt)
	if err != nil {
		return nil, err
	}
	v.Score = score

	gts := make([][]int, nsamples)
	gqs := make([]float64, nsamples)
	if nsamples > 0 {
		gtIdx, gqIdx := -1, -1
		for i, key := range strings.Split(fields[8], ":") {
			switch key {
			case "GT":
				gtIdx = i
			case "GQ":
				gqIdx = i
			}
		}
		if gtIdx < 0 {
			return nil, fmt.Errorf("no GT in FORMAT %q", fields[8])
		}
		for i, sample := range fields[9:] {
			values := strings.Split(sample, ":")
			gqs[i] = nan
			if gtIdx < len(values) {
				gts[i], err = parseGT(values[gtIdx])
				if err != nil {
					return nil, fmt.Errorf("sample %d: %w", i+1, err)
				}
			}
			if gqIdx >= 0 && gqIdx < len(values) && values[gqIdx] != "." {
				gq, err := strconv.ParseFloat(values[gqIdx], 64)
				if err != nil {
					return nil, fmt.Errorf("sample %d: bad GQ: %w", i+1, err)
				}
				gqs[i] = math.Max(0, math.Min(100, gq))
			}
		}
	}
	v.Ploidy = vcfPloidy(gts)
	calls := make([]Call, nsamples)
	for i, gt := range gts {
		calls[i].Score = gqs[i]
		calls[i].Alleles = make([]uint8, v.Ploidy)
		if len(gt) != v.Ploidy {
			if !allMissing(gt) {
				return nil, fmt.Errorf("%w: sample %d has ploidy %d, variant %s has %d", ErrIncompatiblePloidy, i+1, len(gt), v.ID, v.Ploidy)
			}
			for j := range calls[i].Alleles {
				calls[i].Alleles[j] = MissingIdx
			}
			continue
		}
		for j, a := range gt {
			switch {
			case a < 0:
				calls[i].Alleles[j] = MissingIdx
			case a >= len(v.Alleles):
				return nil, fmt.Errorf("%w: sample %d allele %d, variant %s has %d alleles", ErrUnknownAllele, i+1, a, v.ID, len(v.Alleles))
			default:
				calls[i].Alleles[j] = uint8(a)
			}
		}
	}
	return NewGenotypeArrayFromCalls(v, calls)
}

// parseGT parses a GT value like "0/1", "1|0", or "./.". Missing
// alleles are -1.
func parseGT(s string) ([]int, error) {
	var gt []int
	for _, a := range strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '|' }) {
		if a == "." {
			gt = append(gt, -1)
			continue
		}
		n, err := strconv.Atoi(a)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad GT %q", s)
		}
		gt = append(gt, n)
	}
	return gt, nil
}

// vcfPloidy returns the ploidy of the first call with a known
// allele, or 2.
func vcfPloidy(gts [][]int) int {
	for _, gt := range gts {
		if len(gt) > 0 && !allMissing(gt) {
			return len(gt)
		}
	}
	return 2
}

func allMissing(gt []int) bool {
	for _, a := range gt {
		if a >= 0 {
			return false
		}
	}
	return true
}

// WriteVCF writes ds as VCFv4.2 with GT and GQ sample fields.
func WriteVCF(w io.Writer, ds *Dataset) error {
	bufw := bufio.NewWriterSize(w, 1<<20)
	fmt.Fprintln(bufw, "##fileformat=VCFv4.2")
	fmt.Fprintln(bufw, "##source=genomics")
	seen := map[string]bool{}
	for _, ga := range ds.Columns {
		if chr := ga.variant.Chromosome; !seen[chr] {
			seen[chr] = true
			fmt.Fprintf(bufw, "##contig=<ID=%s>\n", chr)
		}
	}
	fmt.Fprintln(bufw, `##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`)
	fmt.Fprintln(bufw, `##FORMAT=<ID=GQ,Number=1,Type=Integer,Description="Genotype Quality">`)
	bufw.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT")
	for _, s := range ds.Samples {
		bufw.WriteString("\t" + s.IID)
	}
	bufw.WriteString("\n")
	for _, ga := range ds.Columns {
		v := ga.variant
		ref, alt, qual := v.Ref(), strings.Join(v.Alt(), ","), "."
		if ref == "" {
			ref = "N"
		}
		if alt == "" {
			alt = "."
		}
		if v.Score != MissingScore {
			qual = strconv.Itoa(v.Score)
		}
		fmt.Fprintf(bufw, "%s\t%d\t%s\t%s\t%s\t%s\t.\t.\tGT:GQ", v.Chromosome, v.Position, v.ID, ref, alt, qual)
		for _, call := range ga.Calls() {
			bufw.WriteString("\t")
			for j, a := range call.Alleles {
				if j > 0 {
					bufw.WriteString("/")
				}
				if a == MissingIdx {
					bufw.WriteString(".")
				} else {
					bufw.WriteString(strconv.Itoa(int(a)))
				}
			}
			if math.IsNaN(call.Score) {
				bufw.WriteString(":.")
			} else {
				fmt.Fprintf(bufw, ":%d", int(math.Round(call.Score)))
			}
		}
		if _, err := bufw.WriteString("\n"); err != nil {
			return err
		}
	}
	return bufw.Flush()
}
