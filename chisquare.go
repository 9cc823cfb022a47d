// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var chisquared = distuv.ChiSquared{K: 1, Src: rand.NewSource(rand.Uint64())}

// hwePvalue returns the chi-square goodness-of-fit p-value (1 degree
// of freedom) for diploid genotype class counts, given as homozygous
// for allele a, heterozygous a/b, and homozygous for allele b.
func hwePvalue(homA, het, homB int) float64 {
	n := float64(homA + het + homB)
	if n == 0 {
		return nan
	}
	p := (2*float64(homA) + float64(het)) / (2 * n)
	q := 1 - p
	if p == 0 || q == 0 {
		return 1
	}
	var (
		obs = [3]float64{float64(homA), float64(het), float64(homB)}
		exp = [3]float64{n * p * p, 2 * n * p * q, n * q * q}
		sum float64
	)
	for i := range exp {
		d := obs[i] - exp[i]
		sum += d * d / exp[i]
	}
	return chisquared.Survival(sum)
}
