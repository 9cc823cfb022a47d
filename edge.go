// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// PhenotypeTable holds per-sample numeric values read from a
// tab-separated file whose first column is the sample IID.
type PhenotypeTable struct {
	Columns []string
	Values  map[string][]float64
}

// ReadPhenotypes reads a header line followed by one line per
// sample. Empty, "NA", "nan" and "-9" values are NaN.
func ReadPhenotypes(r io.Reader) (*PhenotypeTable, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<20), 1<<26)
	pt := &PhenotypeTable{Values: map[string][]float64{}}
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if pt.Columns == nil {
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: header must have an IID column and at least one value column", lineNum)
			}
			pt.Columns = fields[1:]
			continue
		}
		if len(fields) != len(pt.Columns)+1 {
			return nil, fmt.Errorf("line %d: %d fields, header has %d", lineNum, len(fields), len(pt.Columns)+1)
		}
		if _, dup := pt.Values[fields[0]]; dup {
			return nil, fmt.Errorf("line %d: duplicate sample %q", lineNum, fields[0])
		}
		values := make([]float64, len(pt.Columns))
		for i, s := range fields[1:] {
			switch strings.ToLower(s) {
			case "", "na", "nan", "-9":
				values[i] = nan
				continue
			}
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %q: %w", lineNum, pt.Columns[i], err)
			}
			values[i] = x
		}
		pt.Values[fields[0]] = values
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if pt.Columns == nil {
		return nil, fmt.Errorf("empty phenotype file")
	}
	return pt, nil
}

// Column returns the named column's values for the given samples,
// in order. Samples absent from the table get NaN.
func (pt *PhenotypeTable) Column(name string, samples []Sample) ([]float64, error) {
	col := -1
	for i, c := range pt.Columns {
		if c == name {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("no column %q in phenotype file", name)
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		if values, ok := pt.Values[s.IID]; ok {
			out[i] = values[col]
		} else {
			out[i] = nan
		}
	}
	return out, nil
}

type edgeValues struct {
	filter filter
}

func (cmd *edgeValues) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	cmd.filter = cfg.Filter
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	inputFilename := flags.String("i", "-", "input `file`")
	outputFilename := flags.String("o", "-", "output YAML `file`")
	phenoFilename := flags.String("pheno", "", "tab-separated phenotype `file` (first column IID); default uses sample phenotypes")
	outcomeName := flags.String("outcome", "", "phenotype file `column` to use as outcome (required with -pheno)")
	covariateNames := flags.String("covariates", "", "comma-separated phenotype file `columns` to use as covariates")
	continuous := flags.Bool("continuous", false, "treat the outcome as continuous even if all values are 0 or 1")
	cmd.filter.Flags(flags)
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if *phenoFilename != "" && *outcomeName == "" {
		err = fmt.Errorf("-pheno requires -outcome")
		return 2
	} else if *phenoFilename == "" && (*outcomeName != "" || *covariateNames != "") {
		err = fmt.Errorf("-outcome and -covariates require -pheno")
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
	ds, err = cmd.filter.Apply(ds)
	if err != nil {
		return 1
	}

	var model EdgeModel
	if *phenoFilename == "" {
		model.Outcome = ds.Phenotypes()
	} else {
		var pt *PhenotypeTable
		pt, err = readPhenotypesFile(*phenoFilename)
		if err != nil {
			return 1
		}
		model.Outcome, err = pt.Column(*outcomeName, ds.Samples)
		if err != nil {
			return 1
		}
		if *covariateNames != "" {
			for _, name := range strings.Split(*covariateNames, ",") {
				var cov []float64
				cov, err = pt.Column(name, ds.Samples)
				if err != nil {
					return 1
				}
				model.Covariates = append(model.Covariates, cov)
				model.CovariateNames = append(model.CovariateNames, name)
			}
		}
	}

	keep := make([]bool, len(model.Outcome))
	nkeep := 0
	for i, y := range model.Outcome {
		keep[i] = !math.IsNaN(y)
		if keep[i] {
			nkeep++
		}
	}
	if nkeep < len(keep) {
		log.Infof("dropping %d of %d samples with no outcome value", len(keep)-nkeep, len(keep))
		ds, err = ds.FilterSamples(keep)
		if err != nil {
			return 1
		}
		model = model.filterRows(keep)
	}
	model.Binary = !*continuous && isBinary(model.Outcome)
	log.Printf("estimating edge alpha values: %d variants, %d samples, binary outcome=%v, %d covariates", len(ds.Columns), len(ds.Samples), model.Binary, len(model.Covariates))

	infos, err := ds.CalculateEdgeEncodingValues(model)
	if err != nil {
		return 1
	}
	output, err := openOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer output.Close()
	bufw := bufio.NewWriter(output)
	err = yaml.NewEncoder(bufw).Encode(infos)
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

// filterRows returns a copy of m with only the rows where keep is
// true.
func (m EdgeModel) filterRows(keep []bool) EdgeModel {
	take := func(in []float64) []float64 {
		var out []float64
		for i, k := range keep {
			if k {
				out = append(out, in[i])
			}
		}
		return out
	}
	out := EdgeModel{
		Outcome:        take(m.Outcome),
		Binary:         m.Binary,
		CovariateNames: m.CovariateNames,
	}
	for _, cov := range m.Covariates {
		out.Covariates = append(out.Covariates, take(cov))
	}
	return out
}

func readPhenotypesFile(fnm string) (*PhenotypeTable, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pt, err := ReadPhenotypes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	return pt, nil
}
