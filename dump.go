// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// WriteGenotypeTable writes a tab-separated table with one row per
// sample and one column per variant, each cell holding the genotype
// string (e.g. "A/C") with alleles joined by sep.
func WriteGenotypeTable(w io.Writer, ds *Dataset, sep string) error {
	bufw := bufio.NewWriter(w)
	header := make([]string, 0, len(ds.Columns)+1)
	header = append(header, "IID")
	for _, ga := range ds.Columns {
		header = append(header, ga.variant.ID)
	}
	fmt.Fprintln(bufw, strings.Join(header, "\t"))
	row := make([]string, len(ds.Columns)+1)
	for i, s := range ds.Samples {
		row[0] = s.IID
		for j, ga := range ds.Columns {
			row[j+1] = ga.At(i).Format(sep)
		}
		_, err := fmt.Fprintln(bufw, strings.Join(row, "\t"))
		if err != nil {
			return err
		}
	}
	return bufw.Flush()
}

type dump struct {
	filter filter
}

func (cmd *dump) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := cmd.run(prog, args, stdin, stdout, stderr)
	if err == errUsage {
		return 2
	} else if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage error")

func (cmd *dump) run(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := LoadConfig(os.Getenv("GENOMICS_CONFIG"))
	if err != nil {
		return err
	}
	cmd.filter = cfg.Filter
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	inputFilename := flags.String("i", "-", "input `file`")
	outputFilename := flags.String("o", "-", "output `file`")
	sep := flags.String("sep", "/", "allele `separator`")
	cmd.filter.Flags(flags)
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		return nil
	} else if err != nil {
		return errUsage
	}
	cfg.Setup()

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	ds, err := loadDataset(context.Background(), *inputFilename, stdin, cfg)
	if err != nil {
		return err
	}
	ds, err = cmd.filter.Apply(ds)
	if err != nil {
		return err
	}
	output, err := openOutput(*outputFilename, stdout)
	if err != nil {
		return err
	}
	defer output.Close()
	err = WriteGenotypeTable(output, ds, *sep)
	if err != nil {
		return err
	}
	return output.Close()
}
