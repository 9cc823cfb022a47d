// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"git.arvados.org/arvados.git/lib/cmd"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	handler = cmd.Multi(map[string]cmd.Handler{
		"version":   cmd.Version,
		"-version":  cmd.Version,
		"--version": cmd.Version,

		"import-vcf":   &importVCF{},
		"import-plink": &importPlink{},
		"export-vcf":   &exportVCF{},
		"export-plink": &exportPlink{},
		"stats":        &statscmd{},
		"filter":       &filtercmd{},
		"merge":        &merger{},
		"dump":         &dump{},
		"encode":       &encodecmd{},
		"edge-values":  &edgeValues{},
		"pca-go":       &goPCA{},
	})
)

func Main() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		logrus.StandardLogger().Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	}
	os.Exit(handler.RunCommand(os.Args[0], os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// loadDataset reads a dataset from a store file (.gob, optionally
// .gz or .zst), a VCF file (.vcf, optionally .gz or .bgz), or a
// PLINK fileset prefix. "-" reads an uncompressed store from stdin.
func loadDataset(ctx context.Context, fnm string, stdin io.Reader, cfg Config) (ds *Dataset, err error) {
	switch {
	case fnm == "-":
		ds, err = ReadStore(ctx, stdin)
	case strings.Contains(fnm, ".gob"):
		ds, err = ReadStoreFile(ctx, fnm)
	case strings.Contains(fnm, ".vcf"):
		ds, err = ReadVCFFile(ctx, fnm, cfg.VCF)
	default:
		if _, statErr := os.Stat(fnm + ".bed"); statErr != nil {
			return nil, fmt.Errorf("%s: unrecognized input (expected .gob, .vcf, or PLINK prefix)", fnm)
		}
		ds, err = ReadPlink(ctx, fnm, cfg.Plink)
	}
	if err != nil {
		return nil, err
	}
	ds.Parallelism = cfg.Parallelism
	return ds, nil
}

// writeDataset writes a store to fnm (compressed according to its
// suffix), or uncompressed to stdout if fnm is "-".
func writeDataset(fnm string, stdout io.Writer, ds *Dataset) error {
	if fnm == "-" {
		return WriteStore(stdout, ds, 0)
	}
	return WriteStoreFile(fnm, ds)
}

// openOutput returns a writer for fnm, or stdout if fnm is "-".
func openOutput(fnm string, stdout io.Writer) (io.WriteCloser, error) {
	if fnm == "-" {
		return nopCloser{stdout}, nil
	}
	return zcreate(fnm)
}
