// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"fmt"
)

// eachCall calls fn with the unpacked alleles of each row. The
// alleles slice is reused between calls.
func (ga *GenotypeArray) eachCall(fn func(row int, alleles []uint8, missing bool)) {
	missing := missingCall(ga.variant.Ploidy)
	buf := make([]uint8, ga.variant.Ploidy)
	for i, c := range ga.calls {
		unpackAlleles(c, buf)
		fn(i, buf, c == missing)
	}
}

func (ga *GenotypeArray) rowMask(fn func(gt Genotype) bool) []bool {
	out := make([]bool, len(ga.calls))
	gt := Genotype{Variant: ga.variant}
	ga.eachCall(func(i int, alleles []uint8, _ bool) {
		gt.Alleles = alleles
		out[i] = fn(gt)
	})
	return out
}

func (ga *GenotypeArray) IsMissing() []bool {
	return ga.rowMask(Genotype.IsMissing)
}

func (ga *GenotypeArray) IsHomozygous() []bool {
	return ga.rowMask(Genotype.IsHomozygous)
}

func (ga *GenotypeArray) IsHeterozygous() []bool {
	return ga.rowMask(Genotype.IsHeterozygous)
}

func (ga *GenotypeArray) IsHomozygousRef() []bool {
	return ga.rowMask(Genotype.IsHomozygousRef)
}

func (ga *GenotypeArray) IsHomozygousAlt() []bool {
	return ga.rowMask(Genotype.IsHomozygousAlt)
}

// AlleleCounts returns the number of times each allele index occurs
// in non-missing calls, and the total number of non-missing alleles.
func (ga *GenotypeArray) AlleleCounts() (counts []int, total int) {
	counts = make([]int, len(ga.variant.Alleles))
	ga.eachCall(func(_ int, alleles []uint8, missing bool) {
		if missing {
			return
		}
		for _, a := range alleles {
			for int(a) >= len(counts) {
				// only possible while the ref allele is unknown
				counts = append(counts, 0)
			}
			counts[a]++
			total++
		}
	})
	return
}

// MAF returns the frequency of the most common non-reference allele
// among non-missing alleles. With more than one alternate allele,
// only the most common one is considered. MAF is NaN if there are no
// non-missing calls, and 0 if only the reference allele is observed.
func (ga *GenotypeArray) MAF() float64 {
	counts, total := ga.AlleleCounts()
	if total == 0 {
		return nan
	}
	max := 0
	for _, n := range counts[1:] {
		if n > max {
			max = n
		}
	}
	return float64(max) / float64(total)
}

// HWEPval returns the Hardy-Weinberg equilibrium chi-square p-value.
// The column must be diploid, with at most two distinct alleles
// observed; otherwise the error wraps ErrUnsupported. The result is
// NaN if all calls are missing, and 1 if only one allele is observed.
func (ga *GenotypeArray) HWEPval() (float64, error) {
	if ga.variant.Ploidy != 2 {
		return nan, fmt.Errorf("%w: HWE test requires diploid genotypes, %s has ploidy %d", ErrUnsupported, ga.variant.ID, ga.variant.Ploidy)
	}
	counts, total := ga.AlleleCounts()
	if total == 0 {
		return nan, nil
	}
	var observed []uint8
	for idx, n := range counts {
		if n > 0 {
			observed = append(observed, uint8(idx))
		}
	}
	if len(observed) > 2 {
		return nan, fmt.Errorf("%w: HWE test requires at most two observed alleles, %s has %d", ErrUnsupported, ga.variant.ID, len(observed))
	}
	if len(observed) == 1 {
		return 1, nil
	}
	var homA, het, homB int
	ga.eachCall(func(_ int, alleles []uint8, missing bool) {
		switch {
		case missing:
		case alleles[0] != alleles[1]:
			het++
		case alleles[0] == observed[0]:
			homA++
		default:
			homB++
		}
	})
	return hwePvalue(homA, het, homB), nil
}
