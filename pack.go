// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import "math"

// A packed call holds ploidy allele indices as base-256 digits, first
// allele in the most significant digit, so packed values of one
// ploidy sort the same way as their genotypes.
const (
	packRadix = MissingIdx + 1

	// MissingScoreByte is the packed representation of an unknown
	// genotype score. Known scores are scaled to 0..254.
	MissingScoreByte = 255
	scoreScale       = 254
)

// missingCall returns the packed value of an all-missing call.
func missingCall(ploidy int) uint64 {
	var packed uint64
	for i := 0; i < ploidy; i++ {
		packed = packed*packRadix + MissingIdx
	}
	return packed
}

// packAlleles encodes sorted allele indices. Any missing allele
// yields the missing sentinel.
func packAlleles(alleles []uint8) uint64 {
	var packed uint64
	for _, a := range alleles {
		if a == MissingIdx {
			return missingCall(len(alleles))
		}
		packed = packed*packRadix + uint64(a)
	}
	return packed
}

// unpackAlleles decodes a packed call into dst, which must have
// length ploidy.
func unpackAlleles(packed uint64, dst []uint8) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = uint8(packed % packRadix)
		packed /= packRadix
	}
}

func packScore(score float64) uint8 {
	if math.IsNaN(score) {
		return MissingScoreByte
	}
	if score <= 0 {
		return 0
	}
	if score >= 100 {
		return scoreScale
	}
	return uint8(math.Round(score * scoreScale / 100))
}

func unpackScore(b uint8) float64 {
	if b == MissingScoreByte {
		return nan
	}
	return float64(b) * 100 / scoreScale
}
