// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"fmt"
	"sort"
)

// Call is one genotype without its variant, as exchanged with file
// readers and writers.
type Call struct {
	Alleles []uint8
	Score   float64
}

// GenotypeArray is a column of genotypes sharing one variant, stored
// as one packed integer and one score byte per row.
//
// The array owns its variant: constructors copy it, so SetReference
// never affects other arrays or genotypes.
type GenotypeArray struct {
	variant *Variant
	calls   []uint64
	scores  []uint8
}

// NewGenotypeArray returns an empty array for a copy of v.
func NewGenotypeArray(v *Variant) (*GenotypeArray, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &GenotypeArray{variant: v.Copy()}, nil
}

// NewGenotypeArrayFromGenotypes builds an array from genotypes that
// must all have the same variant (by value) and ploidy. If v is nil,
// the first genotype's variant is used.
func NewGenotypeArrayFromGenotypes(v *Variant, gts []Genotype) (*GenotypeArray, error) {
	if v == nil {
		if len(gts) == 0 {
			return nil, fmt.Errorf("%w: no variant and no genotypes", ErrInvalidVariant)
		}
		v = gts[0].Variant
	}
	ga, err := NewGenotypeArray(v)
	if err != nil {
		return nil, err
	}
	if err := ga.Append(gts...); err != nil {
		return nil, err
	}
	return ga, nil
}

// NewGenotypeArrayFromStrings parses genotype strings like "A/C"
// using v's alleles. Unknown alleles are an error.
func NewGenotypeArrayFromStrings(v *Variant, strs []string, sep string) (*GenotypeArray, error) {
	ga, err := NewGenotypeArray(v)
	if err != nil {
		return nil, err
	}
	for i, s := range strs {
		gt, err := ga.variant.MakeGenotypeFromString(s, sep, false)
		if err != nil {
			return nil, fmt.Errorf("genotype %d (%q): %w", i, s, err)
		}
		if err := ga.appendOne(gt.Alleles, gt.Score); err != nil {
			return nil, fmt.Errorf("genotype %d (%q): %w", i, s, err)
		}
	}
	return ga, nil
}

// NewGenotypeArrayFromCalls builds an array from calls read from a
// file, e.g., VCF GT fields.
func NewGenotypeArrayFromCalls(v *Variant, calls []Call) (*GenotypeArray, error) {
	ga, err := NewGenotypeArray(v)
	if err != nil {
		return nil, err
	}
	ga.calls = make([]uint64, 0, len(calls))
	ga.scores = make([]uint8, 0, len(calls))
	for i, call := range calls {
		gt, err := NewGenotype(ga.variant, call.Alleles, call.Score)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		if err := ga.appendOne(gt.Alleles, gt.Score); err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
	}
	return ga, nil
}

// Variant returns the array's variant. Callers must not modify it.
func (ga *GenotypeArray) Variant() *Variant { return ga.variant }

func (ga *GenotypeArray) Ploidy() int { return ga.variant.Ploidy }

func (ga *GenotypeArray) Len() int { return len(ga.calls) }

// NBytes returns the size of the packed data.
func (ga *GenotypeArray) NBytes() int { return len(ga.calls)*8 + len(ga.scores) }

func (ga *GenotypeArray) appendOne(alleles []uint8, score float64) error {
	if len(alleles) != ga.variant.Ploidy {
		return fmt.Errorf("%w: genotype has ploidy %d, array has %d", ErrIncompatiblePloidy, len(alleles), ga.variant.Ploidy)
	}
	ga.calls = append(ga.calls, packAlleles(alleles))
	ga.scores = append(ga.scores, packScore(score))
	return nil
}

func (ga *GenotypeArray) checkGenotype(gt Genotype) error {
	if !ga.variant.Equal(gt.Variant) {
		return fmt.Errorf("%w: genotype variant %s does not match %s", ErrIncompatibleVariant, gt.Variant, ga.variant)
	}
	if len(gt.Alleles) != ga.variant.Ploidy {
		return fmt.Errorf("%w: genotype has ploidy %d, array has %d", ErrIncompatiblePloidy, len(gt.Alleles), ga.variant.Ploidy)
	}
	return nil
}

// Append adds genotypes to the end of the array. Nothing is appended
// if any genotype is incompatible.
func (ga *GenotypeArray) Append(gts ...Genotype) error {
	for i, gt := range gts {
		if err := ga.checkGenotype(gt); err != nil {
			return fmt.Errorf("genotype %d of %d: %w", i, len(gts), err)
		}
	}
	for _, gt := range gts {
		ga.appendOne(gt.Alleles, gt.Score)
	}
	return nil
}

// At returns the genotype at row i.
func (ga *GenotypeArray) At(i int) Genotype {
	alleles := make([]uint8, ga.variant.Ploidy)
	unpackAlleles(ga.calls[i], alleles)
	return Genotype{
		Variant: ga.variant,
		Alleles: alleles,
		Score:   unpackScore(ga.scores[i]),
	}
}

// Set replaces the genotype at row i.
func (ga *GenotypeArray) Set(i int, gt Genotype) error {
	if err := ga.checkGenotype(gt); err != nil {
		return err
	}
	ga.calls[i] = packAlleles(gt.Alleles)
	ga.scores[i] = packScore(gt.Score)
	return nil
}

// Delete removes row i.
func (ga *GenotypeArray) Delete(i int) {
	ga.calls = append(ga.calls[:i], ga.calls[i+1:]...)
	ga.scores = append(ga.scores[:i], ga.scores[i+1:]...)
}

// Calls returns all rows in file-writer form.
func (ga *GenotypeArray) Calls() []Call {
	calls := make([]Call, len(ga.calls))
	for i := range ga.calls {
		gt := ga.At(i)
		calls[i] = Call{Alleles: gt.Alleles, Score: gt.Score}
	}
	return calls
}

// GTScores returns genotype scores, NaN where unknown.
func (ga *GenotypeArray) GTScores() []float64 {
	out := make([]float64, len(ga.scores))
	for i, b := range ga.scores {
		out[i] = unpackScore(b)
	}
	return out
}

// Copy returns a deep copy, including the variant.
func (ga *GenotypeArray) Copy() *GenotypeArray {
	return &GenotypeArray{
		variant: ga.variant.Copy(),
		calls:   append([]uint64(nil), ga.calls...),
		scores:  append([]uint8(nil), ga.scores...),
	}
}

// Slice returns a copy of rows [i, j).
func (ga *GenotypeArray) Slice(i, j int) *GenotypeArray {
	return &GenotypeArray{
		variant: ga.variant.Copy(),
		calls:   append([]uint64(nil), ga.calls[i:j]...),
		scores:  append([]uint8(nil), ga.scores[i:j]...),
	}
}

// Take returns a new array with the given rows. Index -1 yields a
// missing genotype.
func (ga *GenotypeArray) Take(idx []int) *GenotypeArray {
	out := &GenotypeArray{
		variant: ga.variant.Copy(),
		calls:   make([]uint64, len(idx)),
		scores:  make([]uint8, len(idx)),
	}
	for i, row := range idx {
		if row < 0 {
			out.calls[i] = missingCall(ga.variant.Ploidy)
			out.scores[i] = MissingScoreByte
		} else {
			out.calls[i] = ga.calls[row]
			out.scores[i] = ga.scores[row]
		}
	}
	return out
}

// Filter returns a new array with the rows where keep is true.
func (ga *GenotypeArray) Filter(keep []bool) (*GenotypeArray, error) {
	if len(keep) != len(ga.calls) {
		return nil, fmt.Errorf("filter length %d != array length %d", len(keep), len(ga.calls))
	}
	var idx []int
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return ga.Take(idx), nil
}

// Concat returns a new array with the rows of all given arrays,
// which must have equal variants.
func Concat(arrays ...*GenotypeArray) (*GenotypeArray, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrInvalidVariant)
	}
	first := arrays[0]
	out := first.Copy()
	for _, ga := range arrays[1:] {
		if ga.variant.Ploidy != first.variant.Ploidy {
			return nil, fmt.Errorf("%w: cannot concatenate ploidy %d with %d", ErrIncompatiblePloidy, first.variant.Ploidy, ga.variant.Ploidy)
		}
		if !ga.variant.Equal(first.variant) {
			return nil, fmt.Errorf("%w: cannot concatenate %s with %s", ErrIncompatibleVariant, first.variant, ga.variant)
		}
		out.calls = append(out.calls, ga.calls...)
		out.scores = append(out.scores, ga.scores...)
	}
	return out, nil
}

// Equal reports, per row, whether the genotype equals gt. Scores are
// ignored.
func (ga *GenotypeArray) Equal(gt Genotype) ([]bool, error) {
	if err := ga.checkGenotype(gt); err != nil {
		return nil, err
	}
	want := packAlleles(gt.Alleles)
	out := make([]bool, len(ga.calls))
	for i, c := range ga.calls {
		out[i] = c == want
	}
	return out, nil
}

// Compare returns, per row, -1, 0, or 1 as the row's genotype sorts
// before, equal to, or after gt.
func (ga *GenotypeArray) Compare(gt Genotype) ([]int, error) {
	if err := ga.checkGenotype(gt); err != nil {
		return nil, err
	}
	want := packAlleles(gt.Alleles)
	out := make([]int, len(ga.calls))
	for i, c := range ga.calls {
		switch {
		case c < want:
			out[i] = -1
		case c > want:
			out[i] = 1
		}
	}
	return out, nil
}

// GenotypeCount is one entry of ValueCounts.
type GenotypeCount struct {
	Genotype Genotype
	Count    int
}

// ValueCounts returns the number of rows for each distinct genotype,
// sorted by genotype. Missing calls are included only if dropna is
// false.
func (ga *GenotypeArray) ValueCounts(dropna bool) []GenotypeCount {
	counts := map[uint64]int{}
	for _, c := range ga.calls {
		counts[c]++
	}
	missing := missingCall(ga.variant.Ploidy)
	var packed []uint64
	for c := range counts {
		if dropna && c == missing {
			continue
		}
		packed = append(packed, c)
	}
	sort.Slice(packed, func(i, j int) bool { return packed[i] < packed[j] })
	out := make([]GenotypeCount, len(packed))
	for i, c := range packed {
		alleles := make([]uint8, ga.variant.Ploidy)
		unpackAlleles(c, alleles)
		out[i] = GenotypeCount{
			Genotype: Genotype{Variant: ga.variant, Alleles: alleles, Score: nan},
			Count:    counts[c],
		}
	}
	return out
}

// Factorize returns, for each row, the index of its genotype in
// uniques (in order of first appearance), or -1 for missing rows.
func (ga *GenotypeArray) Factorize() (codes []int, uniques []Genotype) {
	missing := missingCall(ga.variant.Ploidy)
	seen := map[uint64]int{}
	codes = make([]int, len(ga.calls))
	for i, c := range ga.calls {
		if c == missing {
			codes[i] = -1
			continue
		}
		code, ok := seen[c]
		if !ok {
			code = len(uniques)
			seen[c] = code
			uniques = append(uniques, ga.At(i))
			uniques[code].Score = nan
		}
		codes[i] = code
	}
	return
}

// SetReference makes allele the reference allele: the alleles at
// index 0 and the given allele's index are swapped in the variant,
// and every stored call is rewritten accordingly.
func (ga *GenotypeArray) SetReference(allele string) error {
	idx, err := ga.variant.IdxFromAllele(allele)
	if err != nil {
		return err
	}
	return ga.SetReferenceIdx(idx)
}

// SetReferenceIdx is like SetReference, with an allele index.
func (ga *GenotypeArray) SetReferenceIdx(idx int) error {
	if idx < 0 || idx >= len(ga.variant.Alleles) {
		return fmt.Errorf("%w: %d is not a valid allele index, %s has %d alleles", ErrUnknownAllele, idx, ga.variant, len(ga.variant.Alleles))
	}
	if idx == 0 {
		return nil
	}
	alleles := ga.variant.Alleles
	alleles[0], alleles[idx] = alleles[idx], alleles[0]

	missing := missingCall(ga.variant.Ploidy)
	buf := make([]uint8, ga.variant.Ploidy)
	for i, c := range ga.calls {
		if c == missing {
			continue
		}
		unpackAlleles(c, buf)
		for j, a := range buf {
			switch int(a) {
			case 0:
				buf[j] = uint8(idx)
			case idx:
				buf[j] = 0
			}
		}
		sort.Slice(buf, func(x, y int) bool { return buf[x] < buf[y] })
		ga.calls[i] = packAlleles(buf)
	}
	return nil
}
