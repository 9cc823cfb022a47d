// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"io/ioutil"
	"os"

	"gopkg.in/check.v1"
)

type configSuite struct{}

var _ = check.Suite(&configSuite{})

func (s *configSuite) TearDownTest(c *check.C) {
	os.Unsetenv("GENOMICS_FILTER_MIN_MAF")
	os.Unsetenv("GENOMICS_PLINK_SWAP_ALLELES")
}

func (s *configSuite) TestDefaults(c *check.C) {
	cfg, err := LoadConfig("")
	c.Assert(err, check.IsNil)
	c.Check(cfg.LogLevel, check.Equals, "info")
	c.Check(cfg.Parallelism, check.Equals, 0)
	c.Check(cfg.Filter, check.Equals, filter{})
}

func (s *configSuite) TestFileAndEnv(c *check.C) {
	fnm := c.MkDir() + "/config.yml"
	err := ioutil.WriteFile(fnm, []byte(`
log_level: debug
parallelism: 3
vcf:
  min_qual: 20
  drop_filtered: true
filter:
  min_maf: 0.05
  regions: /tmp/regions.bed
`), 0644)
	c.Assert(err, check.IsNil)

	cfg, err := LoadConfig(fnm)
	c.Assert(err, check.IsNil)
	c.Check(cfg.LogLevel, check.Equals, "debug")
	c.Check(cfg.Parallelism, check.Equals, 3)
	c.Check(cfg.VCF, check.Equals, VCFOptions{MinQual: 20, DropFiltered: true})
	c.Check(cfg.Filter.MinMAF, check.Equals, 0.05)
	c.Check(cfg.Filter.Regions, check.Equals, "/tmp/regions.bed")
	c.Check(cfg.Plink.SwapAlleles, check.Equals, false)

	os.Setenv("GENOMICS_FILTER_MIN_MAF", "0.1")
	os.Setenv("GENOMICS_PLINK_SWAP_ALLELES", "true")
	cfg, err = LoadConfig(fnm)
	c.Assert(err, check.IsNil)
	c.Check(cfg.Filter.MinMAF, check.Equals, 0.1)
	c.Check(cfg.Filter.Regions, check.Equals, "/tmp/regions.bed")
	c.Check(cfg.Plink.SwapAlleles, check.Equals, true)
}

func (s *configSuite) TestInvalid(c *check.C) {
	tmpdir := c.MkDir()
	for _, trial := range []struct {
		yaml    string
		matches string
	}{
		{"log_level: loud\n", `not a valid logrus Level: "loud"`},
		{"parallelism: -1\n", `invalid parallelism -1`},
		{"filter:\n  min_maf: 0.7\n", `invalid min MAF 0.7, must be in \[0, 0.5\]`},
		{"plink:\n  max_variants: -5\n", `invalid max variants`},
		{"colour: blue\n", `(?s)failed to parse the config file .*`},
	} {
		fnm := tmpdir + "/config.yml"
		c.Assert(ioutil.WriteFile(fnm, []byte(trial.yaml), 0644), check.IsNil)
		_, err := LoadConfig(fnm)
		c.Check(err, check.ErrorMatches, trial.matches)
	}
	_, err := LoadConfig(tmpdir + "/nonexistent.yml")
	c.Check(err, check.ErrorMatches, `failed to open the config file: .*`)
}
