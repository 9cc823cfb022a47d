// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

type importVCF struct{}

func (cmd *importVCF) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	pprofdir := flags.String("pprof-dir", "", "write Go profile data to `directory` periodically")
	inputFilename := flags.String("i", "", "input VCF `file` (.vcf, .vcf.gz, .vcf.bgz)")
	outputFilename := flags.String("o", "-", "output store `file` (.gob, .gob.gz, .gob.zst)")
	flags.Float64Var(&cfg.VCF.MinQual, "min-qual", cfg.VCF.MinQual, "skip records with QUAL less than `Q`")
	flags.BoolVar(&cfg.VCF.DropFiltered, "drop-filtered", cfg.VCF.DropFiltered, "skip records that did not PASS filters")
	flags.IntVar(&cfg.VCF.MaxVariants, "max-variants", cfg.VCF.MaxVariants, "stop after `N` variants (0 = all)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if *inputFilename == "" {
		err = errors.New("no input file specified (-i)")
		return 2
	}
	cfg.Setup()

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *pprofdir != "" {
		go profileEvery(ctx, *pprofdir, time.Minute)
	}

	log.Printf("reading %s", *inputFilename)
	ds, err := ReadVCFFile(ctx, *inputFilename, cfg.VCF)
	if err != nil {
		return 1
	}
	err = writeDataset(*outputFilename, stdout, ds)
	if err != nil {
		return 1
	}
	return 0
}

type importPlink struct{}

func (cmd *importPlink) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	prefix := flags.String("prefix", "", "input `prefix` of .bed, .bim, and .fam files")
	outputFilename := flags.String("o", "-", "output store `file` (.gob, .gob.gz, .gob.zst)")
	flags.BoolVar(&cfg.Plink.SwapAlleles, "swap-alleles", cfg.Plink.SwapAlleles, "use allele1 (usually minor) as the reference allele")
	flags.IntVar(&cfg.Plink.MaxVariants, "max-variants", cfg.Plink.MaxVariants, "stop after `N` variants (0 = all)")
	flags.BoolVar(&cfg.Plink.RawPhenotype, "raw-phenotype", cfg.Plink.RawPhenotype, "load .fam phenotypes as-is instead of as control/case")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if *prefix == "" {
		err = errors.New("no input prefix specified (-prefix)")
		return 2
	}
	cfg.Setup()

	log.Printf("loading genetic data from %s", *prefix)
	ds, err := ReadPlink(context.Background(), *prefix, cfg.Plink)
	if err != nil {
		return 1
	}
	err = writeDataset(*outputFilename, stdout, ds)
	if err != nil {
		return 1
	}
	return 0
}
