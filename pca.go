// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/james-bowman/nlp"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA projects the additive encoding of ds onto its first
// components principal components, returning a samples x components
// row-major matrix. Missing calls are replaced by the column mean.
func PCA(ds *Dataset, components int) (out []float64, rows, cols int, err error) {
	data, rows, cols, err := EncodedMatrix(ds, EncodingAdditive)
	if err != nil {
		return
	}
	if components < 1 || components > rows || components > cols {
		err = fmt.Errorf("cannot compute %d components from %d samples x %d variants", components, rows, cols)
		return
	}
	imputeColumnMeans(data, rows, cols)

	log.Printf("creating matrix: %d rows, %d cols", rows, cols)
	mtx := mat.NewDense(rows, cols, data).T()

	log.Print("fitting")
	transformer := nlp.NewPCA(components)
	transformer.Fit(mtx)
	result, err := transformer.Transform(mtx)
	if err != nil {
		return
	}
	result = result.T()

	rows, cols = result.Dims()
	out = make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = result.At(i, j)
		}
	}
	return
}

// imputeColumnMeans replaces NaN entries of a row-major matrix with
// the mean of the non-NaN entries in the same column (0 if none).
func imputeColumnMeans(data []float64, rows, cols int) {
	col := make([]float64, 0, rows)
	for j := 0; j < cols; j++ {
		col = col[:0]
		for i := 0; i < rows; i++ {
			if x := data[i*cols+j]; !math.IsNaN(x) {
				col = append(col, x)
			}
		}
		mean := 0.0
		if len(col) > 0 {
			mean = stat.Mean(col, nil)
		}
		for i := 0; i < rows; i++ {
			if math.IsNaN(data[i*cols+j]) {
				data[i*cols+j] = mean
			}
		}
	}
}

type goPCA struct {
	filter filter
}

func (cmd *goPCA) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	components := flags.Int("components", 4, "number of components")
	cmd.filter.Flags(flags)
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

	ds, err := loadDataset(context.Background(), *inputFilename, stdin, cfg)
	if err != nil {
		return 1
	}
	ds, err = cmd.filter.Apply(ds)
	if err != nil {
		return 1
	}
	out, rows, cols, err := PCA(ds, *components)
	if err != nil {
		return 1
	}

	log.Print("writing numpy")
	output, err := openOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer output.Close()
	err = WriteNumpy(output, out, rows, cols)
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	log.Print("done")
	return 0
}
