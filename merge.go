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

// Merge returns a dataset with the samples of all inputs, in order.
// Columns are matched by variant ID and must have equal variants.
// A variant absent from some inputs gets missing calls for their
// samples, unless intersect is true, in which case it is dropped.
func Merge(intersect bool, inputs ...*Dataset) (*Dataset, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("nothing to merge")
	}
	out := &Dataset{Parallelism: inputs[0].Parallelism}
	seen := map[string]bool{}
	var order []string
	found := map[string][]*GenotypeArray{}
	for i, ds := range inputs {
		for _, s := range ds.Samples {
			if seen[s.IID] {
				return nil, fmt.Errorf("input %d: duplicate sample %q", i, s.IID)
			}
			seen[s.IID] = true
			out.Samples = append(out.Samples, s)
		}
		for _, ga := range ds.Columns {
			id := ga.variant.ID
			if found[id] == nil {
				order = append(order, id)
				found[id] = make([]*GenotypeArray, len(inputs))
			}
			found[id][i] = ga
		}
	}
	for _, id := range order {
		parts := found[id]
		var proto *GenotypeArray
		complete := true
		for _, ga := range parts {
			if ga == nil {
				complete = false
			} else if proto == nil {
				proto = ga
			}
		}
		if !complete && intersect {
			continue
		}
		for i, ga := range parts {
			if ga == nil {
				parts[i] = proto.Take(missingRows(len(inputs[i].Samples)))
			}
		}
		merged, err := Concat(parts...)
		if err != nil {
			return nil, err
		}
		out.Columns = append(out.Columns, merged)
	}
	return out, nil
}

func missingRows(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = -1
	}
	return idx
}

type merger struct {
	stdin  io.Reader
	inputs []string
}

func (cmd *merger) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	outputFilename := flags.String("o", "-", "output `file`")
	intersect := flags.Bool("intersect", false, "drop variants not present in every input (default: fill with missing calls)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	cmd.stdin = stdin
	cmd.inputs = flags.Args()
	if len(cmd.inputs) == 0 {
		err = fmt.Errorf("usage: %s [options] input [input ...]", prog)
		return 2
	}
	cfg.Setup()

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	datasets := make([]*Dataset, len(cmd.inputs))
	thr := newThrottle(cfg.Parallelism)
	for i, input := range cmd.inputs {
		i, input := i, input
		thr.Go(func() error {
			log.Printf("reading %s", input)
			ds, err := loadDataset(context.Background(), input, cmd.stdin, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			datasets[i] = ds
			return nil
		})
	}
	err = thr.Wait()
	if err != nil {
		return 1
	}
	ds, err := Merge(*intersect, datasets...)
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
