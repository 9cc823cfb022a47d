// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

var plinkMagic = []byte{0x6c, 0x1b, 0x01}

// plinkBitAlleles maps a 2-bit .bed code to allele indices, where
// allele2 (ref) is index 0 and allele1 (alt) is index 1.
var plinkBitAlleles = [4][2]uint8{
	0b00: {1, 1},
	0b01: {MissingIdx, MissingIdx},
	0b10: {0, 1},
	0b11: {0, 0},
}

// Columns of a .bim file
const (
	bimChromosome int = iota
	bimVariantID
	bimMorgans
	bimCoordinate
	bimAllele1
	bimAllele2
)

type PlinkOptions struct {
	// Use allele1 instead of allele2 as the reference allele.
	SwapAlleles bool `yaml:"swap_alleles" envconfig:"GENOMICS_PLINK_SWAP_ALLELES"`

	// Stop after this many variants (0 = no limit).
	MaxVariants int `yaml:"max_variants" envconfig:"GENOMICS_PLINK_MAX_VARIANTS"`

	// Load .fam phenotypes as-is (-9 = missing). Otherwise 1 and 2
	// are loaded as 0 (control) and 1 (case), and anything else is
	// missing.
	RawPhenotype bool `yaml:"raw_phenotype" envconfig:"GENOMICS_PLINK_RAW_PHENOTYPE"`
}

// ReadPlink reads prefix.bed, prefix.bim, and prefix.fam.
func ReadPlink(ctx context.Context, prefix string, opts PlinkOptions) (*Dataset, error) {
	if opts.MaxVariants < 0 {
		return nil, fmt.Errorf("invalid max variants %d", opts.MaxVariants)
	}
	fam, err := os.Open(prefix + ".fam")
	if err != nil {
		return nil, err
	}
	defer fam.Close()
	samples, err := readFam(fam, opts.RawPhenotype)
	if err != nil {
		return nil, fmt.Errorf("%s.fam: %w", prefix, err)
	}
	log.Infof("loaded information for %d samples from %s.fam", len(samples), prefix)

	bim, err := os.Open(prefix + ".bim")
	if err != nil {
		return nil, err
	}
	defer bim.Close()
	variants, err := readBim(bim, opts.MaxVariants)
	if err != nil {
		return nil, fmt.Errorf("%s.bim: %w", prefix, err)
	}
	log.Infof("loaded information for %d variants from %s.bim", len(variants), prefix)

	bed, err := os.Open(prefix + ".bed")
	if err != nil {
		return nil, err
	}
	defer bed.Close()
	ds := NewDataset(samples)
	err = readBed(ctx, bufio.NewReaderSize(bed, 1<<22), ds, variants, opts.SwapAlleles)
	if err != nil {
		return nil, fmt.Errorf("%s.bed: %w", prefix, err)
	}
	return ds, nil
}

func readFam(r io.Reader, rawPhenotype bool) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 6 {
			return nil, fmt.Errorf("line %d: expected 6 fields, found %d", lineno, len(fields))
		}
		sex, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad sex code: %w", lineno, err)
		}
		if sex < 0 || sex > 2 {
			sex = 0
		}
		pheno, err := strconv.ParseFloat(fields[5], 64)
		if err != nil {
			pheno = nan
		}
		switch {
		case rawPhenotype && pheno == -9:
			pheno = nan
		case rawPhenotype:
		case pheno == 1:
			pheno = 0
		case pheno == 2:
			pheno = 1
		default:
			pheno = nan
		}
		samples = append(samples, Sample{
			FID:       fields[0],
			IID:       fields[1],
			Father:    fields[2],
			Mother:    fields[3],
			Sex:       sex,
			Phenotype: pheno,
		})
	}
	return samples, scanner.Err()
}

func readBim(r io.Reader, maxVariants int) ([]*Variant, error) {
	var variants []*Variant
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() && (maxVariants == 0 || len(variants) < maxVariants) {
		lineno++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 6 {
			return nil, fmt.Errorf("line %d: expected 6 fields, found %d", lineno, len(fields))
		}
		pos, err := strconv.Atoi(fields[bimCoordinate])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad coordinate: %w", lineno, err)
		}
		// "0" is a missing allele
		ref, alt := fields[bimAllele2], []string{fields[bimAllele1]}
		if ref == "0" {
			ref = ""
		}
		if alt[0] == "0" {
			alt = nil
		}
		v, err := NewVariant(fields[bimChromosome], pos, fields[bimVariantID], ref, alt)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		variants = append(variants, v)
	}
	return variants, scanner.Err()
}

func readBed(ctx context.Context, r io.Reader, ds *Dataset, variants []*Variant, swap bool) error {
	magic := make([]byte, len(plinkMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return err
	}
	if !bytes.Equal(magic, plinkMagic) {
		return fmt.Errorf("bad magic number %x, file may be corrupt or not in SNP-major mode", magic)
	}
	nsamples := len(ds.Samples)
	buf := make([]byte, (nsamples+3)/4)
	calls := make([]Call, nsamples)
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("reading genotypes for %s: %w", v.ID, err)
		}
		for s := range calls {
			bits := (buf[s/4] >> (2 * (s % 4))) & 0b11
			alleles := plinkBitAlleles[bits]
			calls[s] = Call{Alleles: alleles[:], Score: nan}
		}
		ga, err := NewGenotypeArrayFromCalls(v, calls)
		if err != nil {
			return err
		}
		if swap && len(v.Alleles) == 2 {
			if err := ga.SetReferenceIdx(1); err != nil {
				return err
			}
		}
		if err := ds.AddColumn(ga); err != nil {
			return err
		}
	}
	return nil
}

// WritePlink writes ds to prefix.bed, prefix.bim, and prefix.fam.
// Every column must be diploid with at most two alleles.
func WritePlink(prefix string, ds *Dataset) error {
	for _, ga := range ds.Columns {
		if len(ga.variant.Alleles) > 2 {
			return fmt.Errorf("%w: variant %s is not biallelic (it has %d alleles) and cannot be saved in plink format", ErrUnsupported, ga.variant.ID, len(ga.variant.Alleles))
		}
		if ga.variant.Ploidy != 2 {
			return fmt.Errorf("%w: variant %s has ploidy %d, plink requires 2", ErrUnsupported, ga.variant.ID, ga.variant.Ploidy)
		}
	}
	for _, part := range []struct {
		suffix string
		write  func(io.Writer, *Dataset) error
	}{
		{".fam", writeFam},
		{".bim", writeBim},
		{".bed", writeBed},
	} {
		f, err := os.Create(prefix + part.suffix)
		if err != nil {
			return err
		}
		bufw := bufio.NewWriterSize(f, 1<<22)
		err = part.write(bufw, ds)
		if err == nil {
			err = bufw.Flush()
		}
		if err == nil {
			err = f.Close()
		} else {
			f.Close()
		}
		if err != nil {
			return fmt.Errorf("%s%s: %w", prefix, part.suffix, err)
		}
	}
	return nil
}

func writeFam(w io.Writer, ds *Dataset) error {
	binary := isBinary(ds.Phenotypes())
	orZero := func(s string) string {
		if s == "" {
			return "0"
		}
		return s
	}
	for _, s := range ds.Samples {
		fid := s.FID
		if fid == "" {
			fid = s.IID
		}
		pheno := "-9"
		switch {
		case math.IsNaN(s.Phenotype):
		case binary:
			pheno = strconv.Itoa(int(s.Phenotype) + 1)
		default:
			pheno = strconv.FormatFloat(s.Phenotype, 'g', -1, 64)
		}
		_, err := fmt.Fprintf(w, "%s %s %s %s %d %s\n", fid, orZero(s.IID), orZero(s.Father), orZero(s.Mother), s.Sex, pheno)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeBim(w io.Writer, ds *Dataset) error {
	for _, ga := range ds.Columns {
		v := ga.variant
		allele1, allele2 := "0", v.Ref()
		if allele2 == "" {
			allele2 = "0"
		}
		if len(v.Alleles) > 1 {
			allele1 = v.Alleles[1]
		}
		_, err := fmt.Fprintf(w, "%s\t%s\t0\t%d\t%s\t%s\n", v.Chromosome, v.ID, v.Position, allele1, allele2)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeBed(w io.Writer, ds *Dataset) error {
	if _, err := w.Write(plinkMagic); err != nil {
		return err
	}
	buf := make([]byte, (len(ds.Samples)+3)/4)
	for _, ga := range ds.Columns {
		for i := range buf {
			buf[i] = 0
		}
		var err error
		ga.eachCall(func(s int, alleles []uint8, missing bool) {
			var bits byte
			switch {
			case missing:
				bits = 0b01
			case alleles[0] == 0 && alleles[1] == 0:
				bits = 0b11
			case alleles[0] == 0 && alleles[1] == 1:
				bits = 0b10
			case alleles[0] == 1 && alleles[1] == 1:
				bits = 0b00
			default:
				err = fmt.Errorf("%w: %s has allele index > 1", ErrUnsupported, ga.variant.ID)
			}
			buf[s/4] |= bits << (2 * (s % 4))
		})
		if err != nil {
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
