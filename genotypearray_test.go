// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"errors"
	"math"

	"gopkg.in/check.v1"
)

type genotypeArraySuite struct{}

var _ = check.Suite(&genotypeArraySuite{})

func (s *genotypeArraySuite) TestFromStrings(c *check.C) {
	v := testVariant("1", 100, "rs1", "A", "C")
	ga := testColumn(v, "C/C", "A/C", "A/A", "", "C/A")
	c.Check(ga.Len(), check.Equals, 5)
	c.Check(ga.Ploidy(), check.Equals, 2)
	c.Check(ga.NBytes(), check.Equals, 5*9)
	c.Check(ga.At(0).String(), check.Equals, "C/C")
	c.Check(ga.At(3).IsMissing(), check.Equals, true)
	c.Check(ga.At(4).String(), check.Equals, "A/C")
	c.Check(ga.IsMissing(), check.DeepEquals, []bool{false, false, false, true, false})
	c.Check(ga.IsHeterozygous(), check.DeepEquals, []bool{false, true, false, false, true})
	c.Check(ga.IsHomozygousRef(), check.DeepEquals, []bool{false, false, true, false, false})
	c.Check(ga.IsHomozygousAlt(), check.DeepEquals, []bool{true, false, false, false, false})

	_, err := NewGenotypeArrayFromStrings(v, []string{"A/G"}, "/")
	c.Check(errors.Is(err, ErrUnknownAllele), check.Equals, true)
	_, err = NewGenotypeArrayFromStrings(v, []string{"A/C/C"}, "/")
	c.Check(errors.Is(err, ErrIncompatiblePloidy), check.Equals, true)
}

func (s *genotypeArraySuite) TestOwnsVariant(c *check.C) {
	v := testVariant("1", 100, "rs1", "A", "C")
	ga := testColumn(v, "A/C")
	ga.SetReference("C")
	c.Check(v.Ref(), check.Equals, "A")
	c.Check(ga.Variant().Ref(), check.Equals, "C")
}

func (s *genotypeArraySuite) TestAppendAndSet(c *check.C) {
	v := testVariant("1", 100, "rs1", "A", "C")
	ga, err := NewGenotypeArray(v)
	c.Assert(err, check.IsNil)
	ac, _ := v.MakeGenotype("A", "C")
	ac.Score = 40
	err = ga.Append(ac, MissingGenotype(v))
	c.Assert(err, check.IsNil)
	c.Check(ga.Len(), check.Equals, 2)
	scores := ga.GTScores()
	c.Check(math.Abs(scores[0]-40) < 0.5, check.Equals, true)
	c.Check(math.IsNaN(scores[1]), check.Equals, true)

	other := testVariant("1", 101, "rs2", "A", "C")
	gt, _ := other.MakeGenotype("A", "A")
	err = ga.Append(gt)
	c.Check(errors.Is(err, ErrIncompatibleVariant), check.Equals, true)
	c.Check(ga.Len(), check.Equals, 2)

	haploid := v.Copy()
	gt, _ = haploid.MakeGenotype("C")
	err = ga.Set(0, gt)
	c.Check(errors.Is(err, ErrIncompatiblePloidy), check.Equals, true)

	cc, _ := v.MakeGenotype("C", "C")
	c.Check(ga.Set(1, cc), check.IsNil)
	c.Check(ga.At(1).String(), check.Equals, "C/C")

	ga.Delete(0)
	c.Check(ga.Len(), check.Equals, 1)
	c.Check(ga.At(0).String(), check.Equals, "C/C")
}

func (s *genotypeArraySuite) TestFromGenotypes(c *check.C) {
	v := testVariant("1", 100, "rs1", "A", "C")
	aa, _ := v.MakeGenotype("A", "A")
	cc, _ := v.MakeGenotype("C", "C")
	ga, err := NewGenotypeArrayFromGenotypes(nil, []Genotype{aa, cc})
	c.Assert(err, check.IsNil)
	c.Check(ga.Len(), check.Equals, 2)
	_, err = NewGenotypeArrayFromGenotypes(nil, nil)
	c.Check(err, check.NotNil)
}

func (s *genotypeArraySuite) TestSliceTakeFilter(c *check.C) {
	v := testVariant("1", 100, "rs1", "A", "C")
	ga := testColumn(v, "A/A", "A/C", "C/C", "A/C")

	sl := ga.Slice(1, 3)
	c.Check(sl.Len(), check.Equals, 2)
	c.Check(sl.At(0).String(), check.Equals, "A/C")

	tk := ga.Take([]int{2, -1, 0})
	c.Check(tk.At(0).String(), check.Equals, "C/C")
	c.Check(tk.At(1).IsMissing(), check.Equals, true)
	c.Check(tk.At(2).String(), check.Equals, "A/A")

	f, err := ga.Filter([]bool{false, true, false, true})
	c.Assert(err, check.IsNil)
	c.Check(f.Len(), check.Equals, 2)
	_, err = ga.Filter([]bool{true})
	c.Check(err, check.NotNil)

	cp := ga.Copy()
	cp.Delete(0)
	c.Check(ga.Len(), check.Equals, 4)
}

func (s *genotypeArraySuite) TestConcat(c *check.C) {
	v := testVariant("1", 100, "rs1", "A", "C")
	a := testColumn(v, "A/A", "A/C")
	b := testColumn(v, "C/C")
	out, err := Concat(a, b)
	c.Assert(err, check.IsNil)
	c.Check(out.Len(), check.Equals, 3)
	c.Check(out.At(2).String(), check.Equals, "C/C")

	_, err = Concat(a, testColumn(testVariant("1", 100, "rs1", "A", "G"), "A/G"))
	c.Check(errors.Is(err, ErrIncompatibleVariant), check.Equals, true)

	// same site, different id
	_, err = Concat(a, testColumn(testVariant("1", 100, "rs2", "A", "C"), "A/C"))
	c.Check(errors.Is(err, ErrIncompatibleVariant), check.Equals, true)

	// quality differs, variant is the same
	q := v.Copy()
	q.Score = 30
	out, err = Concat(a, testColumn(q, "C/C"))
	c.Assert(err, check.IsNil)
	c.Check(out.Len(), check.Equals, 3)
	c.Check(out.At(2).String(), check.Equals, "C/C")

	tri := v.Copy()
	tri.Ploidy = 3
	_, err = Concat(a, testColumn(tri, "A/A/C"))
	c.Check(errors.Is(err, ErrIncompatiblePloidy), check.Equals, true)

	_, err = Concat()
	c.Check(err, check.NotNil)
}

func (s *genotypeArraySuite) TestCompareAndCount(c *check.C) {
	v := testVariant("1", 100, "rs1", "A", "C")
	ga := testColumn(v, "C/C", "A/C", "", "A/C", "A/A")
	ac, _ := v.MakeGenotype("A", "C")

	eq, err := ga.Equal(ac)
	c.Assert(err, check.IsNil)
	c.Check(eq, check.DeepEquals, []bool{false, true, false, true, false})

	cmp, err := ga.Compare(ac)
	c.Assert(err, check.IsNil)
	c.Check(cmp, check.DeepEquals, []int{1, 0, 1, 0, -1})

	counts := ga.ValueCounts(true)
	c.Assert(counts, check.HasLen, 3)
	c.Check(counts[0].Genotype.String(), check.Equals, "A/A")
	c.Check(counts[0].Count, check.Equals, 1)
	c.Check(counts[1].Genotype.String(), check.Equals, "A/C")
	c.Check(counts[1].Count, check.Equals, 2)
	c.Check(counts[2].Genotype.String(), check.Equals, "C/C")
	c.Check(ga.ValueCounts(false), check.HasLen, 4)

	codes, uniques := ga.Factorize()
	c.Check(codes, check.DeepEquals, []int{0, 1, -1, 1, 2})
	c.Assert(uniques, check.HasLen, 3)
	c.Check(uniques[0].String(), check.Equals, "C/C")
	c.Check(uniques[2].String(), check.Equals, "A/A")
}

func (s *genotypeArraySuite) TestSetReference(c *check.C) {
	v := testVariant("1", 100, "rs1", "A", "C")
	ga := testColumn(v, "A/A", "A/C", "C/C", "")
	c.Check(ga.EncodeAdditive(), floatsEqual, []float64{0, 1, 2, math.NaN()})

	c.Assert(ga.SetReference("C"), check.IsNil)
	c.Check(ga.Variant().Alleles, check.DeepEquals, []string{"C", "A"})
	c.Check(ga.At(0).String(), check.Equals, "A/A")
	c.Check(ga.At(0).Alleles, check.DeepEquals, []uint8{1, 1})
	c.Check(ga.At(1).Alleles, check.DeepEquals, []uint8{0, 1})
	c.Check(ga.EncodeAdditive(), floatsEqual, []float64{2, 1, 0, math.NaN()})

	err := ga.SetReference("G")
	c.Check(errors.Is(err, ErrUnknownAllele), check.Equals, true)
	err = ga.SetReferenceIdx(5)
	c.Check(errors.Is(err, ErrUnknownAllele), check.Equals, true)
}
