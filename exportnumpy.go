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
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/kshedden/gonpy"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// EncodedMatrix returns a samples x variants row-major matrix of
// encoded genotypes. Missing calls are NaN.
func EncodedMatrix(ds *Dataset, kind Encoding) (data []float64, rows, cols int, err error) {
	encoded, err := ds.Encode(kind)
	if err != nil {
		return
	}
	data, rows, cols = rowMajor(encoded, len(ds.Samples))
	return
}

// rowMajor transposes per-variant vectors into a samples x variants
// row-major matrix.
func rowMajor(columns [][]float64, rows int) (data []float64, _, cols int) {
	cols = len(columns)
	data = make([]float64, rows*cols)
	for j, col := range columns {
		for i, x := range col {
			data[i*cols+j] = x
		}
	}
	return data, rows, cols
}

// WriteNumpy writes a row-major float64 matrix in .npy format.
func WriteNumpy(w io.Writer, data []float64, rows, cols int) error {
	bufw := bufio.NewWriter(w)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return err
	}
	npw.Shape = []int{rows, cols}
	if err := npw.WriteFloat64(data); err != nil {
		return err
	}
	return bufw.Flush()
}

// ReadNumpy reads a float64 .npy matrix written by WriteNumpy.
func ReadNumpy(r io.Reader) (data []float64, rows, cols int, err error) {
	npr, err := gonpy.NewReader(r)
	if err != nil {
		return
	}
	if len(npr.Shape) == 2 {
		rows, cols = npr.Shape[0], npr.Shape[1]
	} else if len(npr.Shape) == 1 {
		rows, cols = npr.Shape[0], 1
	}
	data, err = npr.GetFloat64()
	return
}

// ReadEdgeEncodingInfo reads a YAML list of edge encoding info, as
// written by the edge-values command.
func ReadEdgeEncodingInfo(r io.Reader) ([]EdgeEncodingInfo, error) {
	var infos []EdgeEncodingInfo
	err := yaml.NewDecoder(r).Decode(&infos)
	if err == io.EOF {
		err = nil
	}
	return infos, err
}

type encodecmd struct {
	filter filter
}

func (cmd *encodecmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	outputFilename := flags.String("o", "-", "output numpy `file`")
	encodingName := flags.String("encoding", "additive", "genotype `encoding`: additive, dominant, recessive, codominant, or edge")
	edgeInfoFilename := flags.String("edge-info", "", "edge encoding info YAML `file` (required for -encoding=edge)")
	idsFilename := flags.String("ids", "", "write variant IDs (one per output column) to `file`")
	samplesFilename := flags.String("samples", "", "write sample IDs (one per output row) to `file`")
	cmd.filter.Flags(flags)
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	kind, err := ParseEncoding(*encodingName)
	if err != nil {
		return 2
	}
	if kind == EncodingEdge && *edgeInfoFilename == "" {
		err = fmt.Errorf("-encoding=edge requires -edge-info")
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

	var ids []string
	var columns [][]float64
	if kind == EncodingEdge {
		var infos []EdgeEncodingInfo
		infos, err = readEdgeEncodingInfoFile(*edgeInfoFilename)
		if err != nil {
			return 1
		}
		ids, columns, err = ds.EncodeEdge(infos)
	} else {
		for _, ga := range ds.Columns {
			ids = append(ids, ga.variant.ID)
		}
		columns, err = ds.Encode(kind)
	}
	if err != nil {
		return 1
	}
	data, rows, cols := rowMajor(columns, len(ds.Samples))
	log.Printf("writing %s encoding: %d rows, %d cols", kind, rows, cols)

	output, err := openOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer output.Close()
	err = WriteNumpy(output, data, rows, cols)
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	if *idsFilename != "" {
		err = writeLines(*idsFilename, ids)
		if err != nil {
			return 1
		}
	}
	if *samplesFilename != "" {
		names := make([]string, len(ds.Samples))
		for i, s := range ds.Samples {
			names[i] = s.IID
		}
		err = writeLines(*samplesFilename, names)
		if err != nil {
			return 1
		}
	}
	return 0
}

func readEdgeEncodingInfoFile(fnm string) ([]EdgeEncodingInfo, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	infos, err := ReadEdgeEncodingInfo(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	return infos, nil
}

func writeLines(fnm string, lines []string) error {
	f, err := os.Create(fnm)
	if err != nil {
		return err
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	for _, line := range lines {
		fmt.Fprintln(bufw, line)
	}
	err = bufw.Flush()
	if err != nil {
		return err
	}
	return f.Close()
}
