// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"errors"
	"math"

	"gopkg.in/check.v1"
)

type encodingSuite struct{}

var _ = check.Suite(&encodingSuite{})

func (s *encodingSuite) TestSimpleEncodings(c *check.C) {
	v := testVariant("12", 112161652, "rs1", "A", "C")
	ga := testColumn(v, "C/C", "A/C", "A/A")
	c.Check(ga.EncodeAdditive(), floatsEqual, []float64{2, 1, 0})
	c.Check(ga.EncodeDominant(), floatsEqual, []float64{1, 1, 0})
	c.Check(ga.EncodeRecessive(), floatsEqual, []float64{1, 0, 0})
	classes, err := ga.EncodeCodominant()
	c.Assert(err, check.IsNil)
	c.Check(classes, check.DeepEquals, []Codominant{CodominantHom, CodominantHet, CodominantRef})
	c.Check(classes[0].String(), check.Equals, "Hom")
	c.Check(ga.MAF(), check.Equals, 0.5)
}

func (s *encodingSuite) TestMissing(c *check.C) {
	v := testVariant("1", 5, "rs2", "G", "T")
	ga := testColumn(v, "", "G/T")
	for _, kind := range []Encoding{EncodingAdditive, EncodingDominant, EncodingRecessive, EncodingCodominant} {
		enc, err := ga.Encode(kind)
		c.Assert(err, check.IsNil)
		c.Check(math.IsNaN(enc[0]), check.Equals, true, check.Commentf("%s", kind))
		c.Check(math.IsNaN(enc[1]), check.Equals, false, check.Commentf("%s", kind))
	}
	classes, err := ga.EncodeCodominant()
	c.Assert(err, check.IsNil)
	c.Check(classes[0], check.Equals, CodominantNA)
	c.Check(classes[0].String(), check.Equals, "NA")

	_, err = ga.Encode(EncodingEdge)
	c.Check(errors.Is(err, ErrUnsupported), check.Equals, true)
}

func (s *encodingSuite) TestOrdering(c *check.C) {
	v := testVariant("1", 5, "rs3", "A", "C")
	v.AddAllele("G")
	ga := testColumn(v, "A/A", "A/C", "C/G", "G/G", "A/G", "C/C")
	add := ga.EncodeAdditive()
	dom := ga.EncodeDominant()
	rec := ga.EncodeRecessive()
	for i := range add {
		c.Check(rec[i] <= add[i]/2, check.Equals, true)
		c.Check(add[i]/2 <= dom[i], check.Equals, true)
		c.Check(dom[i] <= 1, check.Equals, true)
	}
	c.Check(rec, floatsEqual, []float64{0, 0, 1, 1, 0, 1})
}

func (s *encodingSuite) TestHigherPloidy(c *check.C) {
	v := testVariant("1", 5, "rs4", "A", "C")
	v.Ploidy = 4
	ga := testColumn(v, "A/A/A/C", "C/C/C/C", "A/A/A/A")
	c.Check(ga.EncodeAdditive(), floatsEqual, []float64{1, 4, 0})
	c.Check(ga.EncodeRecessive(), floatsEqual, []float64{0, 1, 0})
	_, err := ga.EncodeCodominant()
	c.Check(errors.Is(err, ErrUnsupported), check.Equals, true)
	_, err = ga.EncodeEdge(EdgeEncodingInfo{VariantID: "rs4", RefAllele: "A", AltAllele: "C"})
	c.Check(errors.Is(err, ErrUnsupported), check.Equals, true)
	_, err = ga.HWEPval()
	c.Check(errors.Is(err, ErrUnsupported), check.Equals, true)
}

func (s *encodingSuite) TestEdge(c *check.C) {
	v := testVariant("1", 5, "rs5", "A", "C")
	v.AddAllele("G")
	ga := testColumn(v, "A/A", "A/C", "C/C", "", "A/G")
	info := EdgeEncodingInfo{VariantID: "rs5", Alpha: 0.25, RefAllele: "A", AltAllele: "C"}
	enc, err := ga.EncodeEdge(info)
	c.Assert(err, check.IsNil)
	c.Check(enc, floatsEqual, []float64{0, 0.25, 1, math.NaN(), math.NaN()})

	// info computed before the reference allele was switched
	flipped := ga.Copy()
	c.Assert(flipped.SetReference("C"), check.IsNil)
	enc, err = flipped.EncodeEdge(info)
	c.Assert(err, check.IsNil)
	c.Check(enc, floatsEqual, []float64{0, 0.25, 1, math.NaN(), math.NaN()})

	_, err = ga.EncodeEdge(EdgeEncodingInfo{VariantID: "rs5", RefAllele: "A", AltAllele: "T"})
	c.Check(errors.Is(err, ErrUnknownAllele), check.Equals, true)
}

func (s *encodingSuite) TestParseEncoding(c *check.C) {
	e, err := ParseEncoding("Dominant")
	c.Check(err, check.IsNil)
	c.Check(e, check.Equals, EncodingDominant)
	_, err = ParseEncoding("overdominant")
	c.Check(err, check.NotNil)
}

type infoSuite struct{}

var _ = check.Suite(&infoSuite{})

func (s *infoSuite) TestMAF(c *check.C) {
	v := testVariant("1", 5, "rs1", "A", "C")
	c.Check(testColumn(v, "A/A", "A/A").MAF(), check.Equals, 0.0)
	c.Check(testColumn(v, "A/C", "A/A", "", "").MAF(), check.Equals, 0.25)
	c.Check(math.IsNaN(testColumn(v, "", "").MAF()), check.Equals, true)

	ga := testColumn(v, "A/C", "C/C", "A/A", "A/C")
	maf := ga.MAF()
	c.Check(ga.Take([]int{3, 1, 0, 2}).MAF(), check.Equals, maf)
	c.Assert(ga.SetReference("C"), check.IsNil)
	c.Assert(ga.SetReference("A"), check.IsNil)
	c.Check(ga.MAF(), check.Equals, maf)

	multi := testVariant("1", 5, "rs1", "A", "C")
	multi.AddAllele("G")
	// C: 3, G: 2, total 10
	c.Check(testColumn(multi, "A/C", "C/C", "G/G", "A/A", "A/A").MAF(), check.Equals, 0.3)
}

func (s *infoSuite) TestAlleleCounts(c *check.C) {
	v := testVariant("1", 5, "rs1", "A", "C")
	counts, total := testColumn(v, "A/C", "C/C", "").AlleleCounts()
	c.Check(counts, check.DeepEquals, []int{1, 3})
	c.Check(total, check.Equals, 4)
}

func (s *infoSuite) TestHWE(c *check.C) {
	v := testVariant("1", 5, "rs1", "A", "C")
	var gts []string
	for i := 0; i < 1000; i++ {
		switch {
		case i < 250:
			gts = append(gts, "A/A")
		case i < 750:
			gts = append(gts, "A/C")
		default:
			gts = append(gts, "C/C")
		}
	}
	p, err := testColumn(v, gts...).HWEPval()
	c.Check(err, check.IsNil)
	c.Check(p > 0.9, check.Equals, true)

	p, err = testColumn(v, "A/A", "A/A", "C/C", "C/C", "", "A/A", "C/C", "A/A", "C/C", "A/A").HWEPval()
	c.Check(err, check.IsNil)
	c.Check(p < 0.01, check.Equals, true)

	p, err = testColumn(v, "", "").HWEPval()
	c.Check(err, check.IsNil)
	c.Check(math.IsNaN(p), check.Equals, true)

	p, err = testColumn(v, "C/C", "C/C").HWEPval()
	c.Check(err, check.IsNil)
	c.Check(p, check.Equals, 1.0)

	multi := testVariant("1", 5, "rs1", "A", "C")
	multi.AddAllele("G")
	_, err = testColumn(multi, "A/C", "G/G").HWEPval()
	c.Check(errors.Is(err, ErrUnsupported), check.Equals, true)
	// only two of three alleles observed
	p, err = testColumn(multi, "A/G", "G/G", "A/A").HWEPval()
	c.Check(err, check.IsNil)
	c.Check(p > 0 && p <= 1, check.Equals, true)
}
