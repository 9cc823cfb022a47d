// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"bytes"
	"strings"

	"gopkg.in/check.v1"
)

type regionSuite struct{}

var _ = check.Suite(&regionSuite{})

func (s *regionSuite) TestRegion(c *check.C) {
	r, err := NewRegion("chr1", 100, 200, "gene1")
	c.Assert(err, check.IsNil)
	c.Check(r.String(), check.Equals, "chr1:100-200(gene1)")
	c.Check(r.ContainsVariant(testVariant("chr1", 100, "a", "A", "C")), check.Equals, true)
	c.Check(r.ContainsVariant(testVariant("chr1", 199, "b", "A", "C")), check.Equals, true)
	c.Check(r.ContainsVariant(testVariant("chr1", 200, "c", "A", "C")), check.Equals, false)
	c.Check(r.ContainsVariant(testVariant("chr2", 150, "d", "A", "C")), check.Equals, false)

	_, err = NewRegion("chr1", 0, 10, "")
	c.Check(err, check.ErrorMatches, `region chr1:0-10: start 0 < 1`)
	_, err = NewRegion("chr1", 10, 10, "")
	c.Check(err, check.ErrorMatches, `.*start 10 >= end 10`)
}

func (s *regionSuite) TestRegionSet(c *check.C) {
	r1, _ := NewRegion("chr1", 100, 200, "")
	r2, _ := NewRegion("chr1", 150, 300, "")
	r3, _ := NewRegion("chr2", 1, 2, "")
	rs, err := NewRegionSet(r1, r2, r3)
	c.Assert(err, check.IsNil)
	c.Check(rs.Len(), check.Equals, 3)
	for _, trial := range []struct {
		chr    string
		pos    int
		expect bool
	}{
		{"chr1", 99, false},
		{"chr1", 100, true},
		{"chr1", 250, true},
		{"chr1", 299, true},
		{"chr1", 300, false},
		{"chr2", 1, true},
		{"chr2", 2, false},
		{"chr3", 150, false},
	} {
		v := testVariant(trial.chr, trial.pos, "x", "A", "C")
		c.Check(rs.InRegions(v), check.Equals, trial.expect, check.Commentf("%+v", trial))
		c.Check(rs.NotInRegions(v), check.Equals, !trial.expect)
	}

	empty, err := NewRegionSet()
	c.Assert(err, check.IsNil)
	c.Check(empty.InRegions(testVariant("chr1", 1, "x", "A", "C")), check.Equals, false)

	_, err = NewRegionSet(Region{Chromosome: "chr1", Start: 5, End: 1})
	c.Check(err, check.NotNil)
}

func (s *regionSuite) TestBED(c *check.C) {
	regions, err := ReadBED(strings.NewReader(`browser position chr1:1-100
track name=test
# comment

chr1	99	200	gene1
chr2	0	1
`))
	c.Assert(err, check.IsNil)
	c.Assert(regions, check.HasLen, 2)
	c.Check(regions[0], check.Equals, Region{Chromosome: "chr1", Start: 100, End: 201, Name: "gene1"})
	c.Check(regions[1], check.Equals, Region{Chromosome: "chr2", Start: 1, End: 2})

	var buf bytes.Buffer
	c.Assert(WriteBED(&buf, regions), check.IsNil)
	c.Check(buf.String(), check.Equals, "chr1\t99\t200\tgene1\nchr2\t0\t1\n")

	_, err = ReadBED(strings.NewReader("chr1 1 2\n"))
	c.Check(err, check.ErrorMatches, `line 1: expected at least 3 tab-delimited fields, found 1`)
	_, err = ReadBED(strings.NewReader("chr1\tx\t2\n"))
	c.Check(err, check.ErrorMatches, `line 1: bad start.*`)
	_, err = ReadBED(strings.NewReader("chr1\t5\t5\n"))
	c.Check(err, check.ErrorMatches, `line 1: .*start 6 >= end 6`)
}
