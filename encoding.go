// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"fmt"
	"math"
	"strings"
)

// Codominant is the genotype class used for codominant encoding.
// Classes are ordered Ref < Het < Hom.
type Codominant int8

const (
	CodominantNA Codominant = iota - 1
	CodominantRef
	CodominantHet
	CodominantHom
)

func (c Codominant) String() string {
	switch c {
	case CodominantRef:
		return "Ref"
	case CodominantHet:
		return "Het"
	case CodominantHom:
		return "Hom"
	default:
		return "NA"
	}
}

// Encoding names a numeric genotype encoding.
type Encoding string

const (
	EncodingAdditive   Encoding = "additive"
	EncodingDominant   Encoding = "dominant"
	EncodingRecessive  Encoding = "recessive"
	EncodingCodominant Encoding = "codominant"
	EncodingEdge       Encoding = "edge"
)

// ParseEncoding accepts an encoding name in any case.
func ParseEncoding(s string) (Encoding, error) {
	e := Encoding(strings.ToLower(s))
	switch e {
	case EncodingAdditive, EncodingDominant, EncodingRecessive, EncodingCodominant, EncodingEdge:
		return e, nil
	}
	return "", fmt.Errorf("unknown encoding %q", s)
}

// encodeNonRef maps each non-missing row to fn(number of non-ref
// alleles, ploidy). Missing rows are NaN.
func (ga *GenotypeArray) encodeNonRef(fn func(nonref, ploidy int) float64) []float64 {
	out := make([]float64, len(ga.calls))
	ga.eachCall(func(i int, alleles []uint8, missing bool) {
		if missing {
			out[i] = nan
			return
		}
		nonref := 0
		for _, a := range alleles {
			if a != 0 {
				nonref++
			}
		}
		out[i] = fn(nonref, len(alleles))
	})
	return out
}

// EncodeAdditive returns the number of non-reference alleles per row.
func (ga *GenotypeArray) EncodeAdditive() []float64 {
	return ga.encodeNonRef(func(nonref, _ int) float64 {
		return float64(nonref)
	})
}

// EncodeDominant returns 1 for rows with any non-reference allele,
// else 0.
func (ga *GenotypeArray) EncodeDominant() []float64 {
	return ga.encodeNonRef(func(nonref, _ int) float64 {
		if nonref > 0 {
			return 1
		}
		return 0
	})
}

// EncodeRecessive returns 1 for rows with only non-reference alleles,
// else 0.
func (ga *GenotypeArray) EncodeRecessive() []float64 {
	return ga.encodeNonRef(func(nonref, ploidy int) float64 {
		if nonref == ploidy {
			return 1
		}
		return 0
	})
}

// EncodeCodominant classifies diploid rows by the number of
// non-reference alleles.
func (ga *GenotypeArray) EncodeCodominant() ([]Codominant, error) {
	if ga.variant.Ploidy != 2 {
		return nil, fmt.Errorf("%w: codominant encoding requires diploid genotypes, %s has ploidy %d", ErrUnsupported, ga.variant.ID, ga.variant.Ploidy)
	}
	out := make([]Codominant, len(ga.calls))
	for i, x := range ga.EncodeAdditive() {
		if math.IsNaN(x) {
			out[i] = CodominantNA
		} else {
			out[i] = Codominant(x)
		}
	}
	return out, nil
}

// EdgeEncodingInfo holds the parameters of edge (weighted) encoding
// for one variant, as computed by CalculateEdgeEncodingValues.
type EdgeEncodingInfo struct {
	VariantID string  `yaml:"variant_id"`
	Alpha     float64 `yaml:"alpha"`
	RefAllele string  `yaml:"ref_allele"`
	AltAllele string  `yaml:"alt_allele"`
	MAF       float64 `yaml:"maf"`
}

// EncodeEdge returns 0 for rows homozygous for info.RefAllele, 1 for
// rows homozygous for info.AltAllele, info.Alpha for ref/alt
// heterozygotes, and NaN for anything else.
func (ga *GenotypeArray) EncodeEdge(info EdgeEncodingInfo) ([]float64, error) {
	if ga.variant.Ploidy != 2 {
		return nil, fmt.Errorf("%w: edge encoding requires diploid genotypes, %s has ploidy %d", ErrUnsupported, ga.variant.ID, ga.variant.Ploidy)
	}
	refIdx, err := ga.variant.IdxFromAllele(info.RefAllele)
	if err != nil {
		return nil, err
	}
	altIdx, err := ga.variant.IdxFromAllele(info.AltAllele)
	if err != nil {
		return nil, err
	}
	lo, hi := uint8(refIdx), uint8(altIdx)
	if lo > hi {
		lo, hi = hi, lo
	}
	out := make([]float64, len(ga.calls))
	ga.eachCall(func(i int, alleles []uint8, missing bool) {
		switch {
		case missing:
			out[i] = nan
		case alleles[0] == uint8(refIdx) && alleles[1] == uint8(refIdx):
			out[i] = 0
		case alleles[0] == uint8(altIdx) && alleles[1] == uint8(altIdx):
			out[i] = 1
		case alleles[0] == lo && alleles[1] == hi:
			out[i] = info.Alpha
		default:
			out[i] = nan
		}
	})
	return out, nil
}

// Encode returns the given encoding as float64 values. Codominant
// classes are returned as 0, 1, 2 (NaN for missing). Edge encoding
// needs EncodeEdge.
func (ga *GenotypeArray) Encode(kind Encoding) ([]float64, error) {
	switch kind {
	case EncodingAdditive:
		return ga.EncodeAdditive(), nil
	case EncodingDominant:
		return ga.EncodeDominant(), nil
	case EncodingRecessive:
		return ga.EncodeRecessive(), nil
	case EncodingCodominant:
		classes, err := ga.EncodeCodominant()
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(classes))
		for i, c := range classes {
			if c == CodominantNA {
				out[i] = nan
			} else {
				out[i] = float64(c)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: encoding %q cannot be applied without parameters", ErrUnsupported, kind)
	}
}
