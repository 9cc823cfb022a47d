// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"

	log "github.com/sirupsen/logrus"
)

type filter struct {
	MinMAF         float64 `yaml:"min_maf" envconfig:"GENOMICS_FILTER_MIN_MAF"`
	HWECutoff      float64 `yaml:"hwe_cutoff" envconfig:"GENOMICS_FILTER_HWE_CUTOFF"`
	Regions        string  `yaml:"regions" envconfig:"GENOMICS_FILTER_REGIONS"`
	ExcludeRegions bool    `yaml:"exclude_regions" envconfig:"GENOMICS_FILTER_EXCLUDE_REGIONS"`
	CompleteOnly   bool    `yaml:"complete_only" envconfig:"GENOMICS_FILTER_COMPLETE_ONLY"`
}

// Flags adds filter flags to flags, using the current field values
// (typically from the config file) as defaults.
func (f *filter) Flags(flags *flag.FlagSet) {
	flags.Float64Var(&f.MinMAF, "min-maf", f.MinMAF, "drop variants with minor allele frequency less than `F`")
	flags.Float64Var(&f.HWECutoff, "hwe-cutoff", f.HWECutoff, "drop variants with HWE p-value less than `P` (undefined p-values are kept)")
	flags.StringVar(&f.Regions, "regions", f.Regions, "keep only variants in regions listed in BED `file`")
	flags.BoolVar(&f.ExcludeRegions, "exclude-regions", f.ExcludeRegions, "drop (instead of keep) variants in -regions")
	flags.BoolVar(&f.CompleteOnly, "complete-only", f.CompleteOnly, "drop samples with a missing call at any remaining variant")
}

// Apply returns the filtered dataset. Variant filters are applied
// before the sample filter.
func (f *filter) Apply(ds *Dataset) (*Dataset, error) {
	if f.Regions != "" {
		rdr, err := zopen(f.Regions)
		if err != nil {
			return nil, err
		}
		defer rdr.Close()
		regions, err := ReadBED(rdr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Regions, err)
		}
		rs, err := NewRegionSet(regions...)
		if err != nil {
			return nil, err
		}
		n := len(ds.Columns)
		ds = ds.FilterRegions(rs, !f.ExcludeRegions)
		log.Infof("region filter (%d regions): kept %d of %d variants", rs.Len(), len(ds.Columns), n)
	}
	if f.MinMAF > 0 {
		n := len(ds.Columns)
		ds = ds.FilterVariantsMAF(f.MinMAF)
		log.Infof("MAF filter (min %g): kept %d of %d variants", f.MinMAF, len(ds.Columns), n)
	}
	if f.HWECutoff > 0 {
		n := len(ds.Columns)
		ds = ds.FilterVariantsHWE(f.HWECutoff)
		log.Infof("HWE filter (cutoff %g): kept %d of %d variants", f.HWECutoff, len(ds.Columns), n)
	}
	if f.CompleteOnly {
		n := len(ds.Samples)
		var err error
		ds, err = ds.FilterSamples(ds.CompleteRows())
		if err != nil {
			return nil, err
		}
		log.Infof("complete-call filter: kept %d of %d samples", len(ds.Samples), n)
	}
	return ds, nil
}

type filtercmd struct{}

func (cmd *filtercmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	cfg, err := LoadConfig(os.Getenv("GENOMICS_CONFIG"))
	if err != nil {
		return 1
	}
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	inputFilename := flags.String("i", "-", "input `file`")
	outputFilename := flags.String("o", "-", "output `file`")
	cfg.Filter.Flags(flags)
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	cfg.Setup()

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	log.Print("reading")
	ds, err := loadDataset(context.Background(), *inputFilename, stdin, cfg)
	if err != nil {
		return 1
	}
	log.Print("filtering")
	ds, err = cfg.Filter.Apply(ds)
	if err != nil {
		return 1
	}
	log.Printf("writing %d variants x %d samples", len(ds.Columns), len(ds.Samples))
	err = writeDataset(*outputFilename, stdout, ds)
	if err != nil {
		return 1
	}
	return 0
}
