// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"

	log "github.com/sirupsen/logrus"
)

type statscmd struct {
	format string
}

func (cmd *statscmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	sqliteFilename := flags.String("sqlite", "", "also write summary to SQLite database `file`")
	flags.StringVar(&cmd.format, "format", "tsv", "output `format`: tsv or json")
	flags.IntVar(&cfg.Parallelism, "parallelism", cfg.Parallelism, "maximum `N` variants processed concurrently (0 = number of CPUs)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if cmd.format != "tsv" && cmd.format != "json" {
		err = fmt.Errorf("invalid output format %q", cmd.format)
		return 2
	}
	cfg.Setup()

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	ds, err := loadDataset(context.Background(), *inputFilename, stdin, cfg)
	if err != nil {
		return 1
	}
	log.Printf("computing statistics for %d variants x %d samples", len(ds.Columns), len(ds.Samples))
	summary := Summarize(ds)

	if *sqliteFilename != "" {
		log.Printf("writing %s", *sqliteFilename)
		err = WriteSummaryDB(*sqliteFilename, summary)
		if err != nil {
			return 1
		}
	}

	output, err := openOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer output.Close()
	bufw := bufio.NewWriter(output)
	err = cmd.writeStats(bufw, len(ds.Samples), summary)
	if err != nil {
		return 1
	}
	err = bufw.Flush()
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	return 0
}

func (cmd *statscmd) writeStats(w io.Writer, samples int, summary []VariantSummary) error {
	if cmd.format == "json" {
		type row struct {
			ID         string
			Chromosome string
			Position   int
			Ref        string
			Alt        string
			MAF        *float64 `json:",omitempty"`
			HWEPval    *float64 `json:",omitempty"`
			Missing    int
		}
		var ret struct {
			Samples  int
			Variants []row
		}
		ret.Samples = samples
		for _, s := range summary {
			r := row{ID: s.ID, Chromosome: s.Chromosome, Position: s.Position, Ref: s.Ref, Alt: s.Alt, Missing: s.Missing}
			if s.MAF.Valid {
				r.MAF = &s.MAF.Float64
			}
			if s.HWEPval.Valid {
				r.HWEPval = &s.HWEPval.Float64
			}
			ret.Variants = append(ret.Variants, r)
		}
		return json.NewEncoder(w).Encode(ret)
	}
	fmt.Fprintln(w, "id\tchromosome\tposition\tref\talt\tmaf\thwe_pval\tmissing")
	for _, s := range summary {
		maf, hwe := "NA", "NA"
		if s.MAF.Valid {
			maf = fmt.Sprintf("%g", s.MAF.Float64)
		}
		if s.HWEPval.Valid {
			hwe = fmt.Sprintf("%g", s.HWEPval.Float64)
		}
		_, err := fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%d\n", s.ID, s.Chromosome, s.Position, s.Ref, s.Alt, maf, hwe, s.Missing)
		if err != nil {
			return err
		}
	}
	return nil
}
