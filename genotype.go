// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

var nan = math.NaN()

// Genotype is a call at a single variant. Alleles are indices into
// Variant.Alleles, sorted ascending. Score is a quality in [0,100],
// or NaN if unknown.
type Genotype struct {
	Variant *Variant
	Alleles []uint8
	Score   float64
}

// NewGenotype validates and sorts alleles. A call with any missing
// allele becomes an all-missing call.
func NewGenotype(v *Variant, alleles []uint8, score float64) (Genotype, error) {
	if len(alleles) < 1 || len(alleles) > MaxPloidy {
		return Genotype{}, fmt.Errorf("%w: %d alleles (max %d)", ErrIncompatiblePloidy, len(alleles), MaxPloidy)
	}
	if !math.IsNaN(score) && (score < 0 || score > 100) {
		return Genotype{}, fmt.Errorf("genotype score %v out of range [0, 100]", score)
	}
	gt := Genotype{
		Variant: v,
		Alleles: append([]uint8(nil), alleles...),
		Score:   score,
	}
	missing := false
	for _, a := range gt.Alleles {
		if !v.ValidAlleleIdx(int(a)) {
			return Genotype{}, fmt.Errorf("%w: invalid allele index %d for %s", ErrUnknownAllele, a, v)
		}
		if a == MissingIdx {
			missing = true
		}
	}
	if missing {
		for i := range gt.Alleles {
			gt.Alleles[i] = MissingIdx
		}
	}
	sort.Slice(gt.Alleles, func(i, j int) bool { return gt.Alleles[i] < gt.Alleles[j] })
	return gt, nil
}

// MissingGenotype returns an all-missing call with v's ploidy.
func MissingGenotype(v *Variant) Genotype {
	idxs := make([]uint8, v.Ploidy)
	for i := range idxs {
		idxs[i] = MissingIdx
	}
	return Genotype{Variant: v, Alleles: idxs, Score: nan}
}

func (gt Genotype) Ploidy() int { return len(gt.Alleles) }

func (gt Genotype) IsMissing() bool {
	for _, a := range gt.Alleles {
		if a == MissingIdx {
			return true
		}
	}
	return false
}

func (gt Genotype) IsHomozygous() bool {
	if gt.IsMissing() {
		return false
	}
	for _, a := range gt.Alleles[1:] {
		if a != gt.Alleles[0] {
			return false
		}
	}
	return true
}

func (gt Genotype) IsHomozygousRef() bool {
	return gt.IsHomozygous() && gt.Alleles[0] == 0
}

func (gt Genotype) IsHomozygousAlt() bool {
	return gt.IsHomozygous() && gt.Alleles[0] > 0
}

func (gt Genotype) IsHeterozygous() bool {
	return !gt.IsMissing() && !gt.IsHomozygous()
}

// Equal compares allele indices and variants. Scores are ignored.
func (gt Genotype) Equal(other Genotype) bool {
	if !gt.Variant.Equal(other.Variant) || len(gt.Alleles) != len(other.Alleles) {
		return false
	}
	for i, a := range gt.Alleles {
		if a != other.Alleles[i] {
			return false
		}
	}
	return true
}

// Less orders genotypes of the same variant by allele index,
// first allele first.
func (gt Genotype) Less(other Genotype) bool {
	for i := 0; i < len(gt.Alleles) && i < len(other.Alleles); i++ {
		if gt.Alleles[i] != other.Alleles[i] {
			return gt.Alleles[i] < other.Alleles[i]
		}
	}
	return len(gt.Alleles) < len(other.Alleles)
}

// Format renders the genotype using sep between alleles, e.g.
// "A/C". Missing calls render as "<Missing>".
func (gt Genotype) Format(sep string) string {
	if gt.IsMissing() {
		return "<Missing>"
	}
	strs := make([]string, len(gt.Alleles))
	for i, a := range gt.Alleles {
		if gt.Variant != nil && int(a) < len(gt.Variant.Alleles) && gt.Variant.Alleles[a] != "" {
			strs[i] = gt.Variant.Alleles[a]
		} else {
			strs[i] = fmt.Sprintf("%d", a)
		}
	}
	return strings.Join(strs, sep)
}

func (gt Genotype) String() string { return gt.Format("/") }
