// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"

	"gopkg.in/check.v1"
)

type vcfSuite struct{}

var _ = check.Suite(&vcfSuite{})

const testVCF = `##fileformat=VCFv4.2
##contig=<ID=1>
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	sampleA	sampleB	sampleC
1	100	rs1	A	C	50	PASS	.	GT:GQ	0/0:99	0|1:20	1/1:.
1	200	rs2	G	T,C	10	q10	.	GT	1/2	./.	0/0
2	300	.	T	.	.	.	.	GQ:GT	30:0/0	40:0/0	.:.
`

func (s *vcfSuite) TestRead(c *check.C) {
	ds, err := ReadVCF(context.Background(), strings.NewReader(testVCF), VCFOptions{})
	c.Assert(err, check.IsNil)
	c.Assert(ds.Samples, check.HasLen, 3)
	c.Check(ds.Samples[1].IID, check.Equals, "sampleB")
	c.Check(math.IsNaN(ds.Samples[1].Phenotype), check.Equals, true)
	c.Assert(ds.Columns, check.HasLen, 3)

	rs1 := ds.Column("rs1")
	c.Assert(rs1, check.NotNil)
	c.Check(rs1.Variant().Score, check.Equals, 50)
	c.Check(rs1.EncodeAdditive(), floatsEqual, []float64{0, 1, 2})
	scores := rs1.GTScores()
	c.Check(math.Abs(scores[0]-99) < 0.5, check.Equals, true)
	c.Check(math.Abs(scores[1]-20) < 0.5, check.Equals, true)
	c.Check(math.IsNaN(scores[2]), check.Equals, true)

	rs2 := ds.Column("rs2")
	c.Check(rs2.Variant().Alleles, check.DeepEquals, []string{"G", "T", "C"})
	c.Check(rs2.At(0).String(), check.Equals, "T/C")
	c.Check(rs2.At(1).IsMissing(), check.Equals, true)

	third := ds.Columns[2]
	c.Check(third.Variant().ID, check.HasLen, 36)
	c.Check(third.Variant().Score, check.Equals, MissingScore)
	c.Check(third.Variant().Alt(), check.HasLen, 0)
	c.Check(third.IsHomozygousRef(), check.DeepEquals, []bool{true, true, false})
	c.Check(third.GTScores()[0], check.Equals, unpackScore(packScore(30)))
}

func (s *vcfSuite) TestOptions(c *check.C) {
	ds, err := ReadVCF(context.Background(), strings.NewReader(testVCF), VCFOptions{MinQual: 20})
	c.Assert(err, check.IsNil)
	c.Check(ds.Columns, check.HasLen, 2)
	c.Check(ds.Column("rs2"), check.IsNil)

	ds, err = ReadVCF(context.Background(), strings.NewReader(testVCF), VCFOptions{DropFiltered: true})
	c.Assert(err, check.IsNil)
	c.Check(ds.Columns, check.HasLen, 2)

	ds, err = ReadVCF(context.Background(), strings.NewReader(testVCF), VCFOptions{MaxVariants: 1})
	c.Assert(err, check.IsNil)
	c.Check(ds.Columns, check.HasLen, 1)
}

func (s *vcfSuite) TestErrors(c *check.C) {
	for _, trial := range []struct {
		vcf     string
		matches string
	}{
		{"1\t1\ta\tA\tC\t.\t.\t.\tGT\t0/1\n", `line 1: record before #CHROM header`},
		{"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\n1\tx\ta\tA\tC\t.\t.\t.\tGT\t0/1\n", `line 2: bad POS.*`},
		{"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\n1\t1\ta\tA\tC\t.\t.\t.\tGQ\t0/1\n", `line 2: no GT in FORMAT.*`},
		{"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\n1\t1\ta\tA\tC\t.\t.\t.\tGT\t0/2\n", `line 2: unknown allele.*`},
		{"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\ts2\n1\t1\ta\tA\tC\t.\t.\t.\tGT\t0/1\t0\n", `line 2: incompatible ploidy.*`},
		{"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\n1\t1\ta\tA\tC\t.\t.\t.\tGT\n", `line 2: expected 10 fields.*`},
		{"##only meta\n", `no #CHROM header line`},
	} {
		_, err := ReadVCF(context.Background(), strings.NewReader(trial.vcf), VCFOptions{})
		c.Check(err, check.ErrorMatches, trial.matches)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadVCF(ctx, strings.NewReader(testVCF), VCFOptions{})
	c.Check(errors.Is(err, context.Canceled), check.Equals, true)
}

func (s *vcfSuite) TestRoundTrip(c *check.C) {
	ds, err := ReadVCF(context.Background(), strings.NewReader(testVCF), VCFOptions{})
	c.Assert(err, check.IsNil)
	var buf bytes.Buffer
	c.Assert(WriteVCF(&buf, ds), check.IsNil)
	c.Check(buf.String(), check.Matches, `(?s)##fileformat=VCFv4.2\n.*##contig=<ID=2>\n.*#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tsampleA\tsampleB\tsampleC\n1\t100\trs1\tA\tC\t50\t.\t.\tGT:GQ\t0/0:99\t0/1:20\t1/1:.\n.*`)

	again, err := ReadVCF(context.Background(), &buf, VCFOptions{})
	c.Assert(err, check.IsNil)
	c.Assert(again.Columns, check.HasLen, len(ds.Columns))
	for i, ga := range ds.Columns {
		c.Check(again.Columns[i].Variant().Equal(ga.Variant()), check.Equals, true)
		c.Check(again.Columns[i].calls, check.DeepEquals, ga.calls)
	}
}

func (s *vcfSuite) TestCompressedFile(c *check.C) {
	tmpdir := c.MkDir()
	ds, err := ReadVCF(context.Background(), strings.NewReader(testVCF), VCFOptions{})
	c.Assert(err, check.IsNil)
	for _, fnm := range []string{"/test.vcf", "/test.vcf.gz", "/test.vcf.bgz", "/test.vcf.zst"} {
		f, err := zcreate(tmpdir + fnm)
		c.Assert(err, check.IsNil)
		c.Assert(WriteVCF(f, ds), check.IsNil)
		c.Assert(f.Close(), check.IsNil)

		again, err := ReadVCFFile(context.Background(), tmpdir+fnm, VCFOptions{})
		c.Assert(err, check.IsNil, check.Commentf("%s", fnm))
		c.Check(again.Columns, check.HasLen, 3)
	}
}
