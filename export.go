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
	"os"

	log "github.com/sirupsen/logrus"
)

type exportVCF struct{}

func (cmd *exportVCF) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	inputFilename := flags.String("i", "-", "input `file`")
	outputFilename := flags.String("o", "-", "output VCF `file` (.vcf, .vcf.gz, .vcf.bgz)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	cfg.Setup()

	ds, err := loadDataset(context.Background(), *inputFilename, stdin, cfg)
	if err != nil {
		return 1
	}
	output, err := openOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer output.Close()
	log.Printf("writing %d variants x %d samples", len(ds.Columns), len(ds.Samples))
	err = WriteVCF(output, ds)
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	return 0
}

type exportPlink struct{}

func (cmd *exportPlink) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	inputFilename := flags.String("i", "-", "input `file`")
	prefix := flags.String("prefix", "", "output `prefix` for .bed, .bim, and .fam files")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if *prefix == "" {
		err = errors.New("no output prefix specified (-prefix)")
		return 2
	}
	cfg.Setup()

	ds, err := loadDataset(context.Background(), *inputFilename, stdin, cfg)
	if err != nil {
		return 1
	}
	log.Printf("writing %d variants x %d samples to %s.{bed,bim,fam}", len(ds.Columns), len(ds.Samples), *prefix)
	err = WritePlink(*prefix, ds)
	if err != nil {
		return 1
	}
	return 0
}
