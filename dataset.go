// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
)

// Sample is one row of a Dataset, with the fields of a PLINK .fam
// record. Sex is 1 (male), 2 (female), or 0 (unknown). Phenotype is
// NaN if unknown.
type Sample struct {
	FID       string
	IID       string
	Father    string
	Mother    string
	Sex       int
	Phenotype float64
}

// Dataset is a table of genotype columns, one row per sample.
type Dataset struct {
	Samples []Sample
	Columns []*GenotypeArray

	// Maximum number of columns processed concurrently. Zero means
	// the number of CPUs.
	Parallelism int
}

// VariantInfo summarizes one column.
type VariantInfo struct {
	ID         string `db:"id"`
	Chromosome string `db:"chromosome"`
	Position   int    `db:"position"`
	Ref        string `db:"ref"`
	Alt        string `db:"alt"`
}

func NewDataset(samples []Sample) *Dataset {
	return &Dataset{Samples: samples}
}

// AddColumn appends a column. It must have one row per sample and a
// variant ID not already present.
func (ds *Dataset) AddColumn(ga *GenotypeArray) error {
	if ga.Len() != len(ds.Samples) {
		return fmt.Errorf("column %s has %d rows, dataset has %d samples", ga.variant.ID, ga.Len(), len(ds.Samples))
	}
	if ds.Column(ga.variant.ID) != nil {
		return fmt.Errorf("%w: duplicate variant id %q", ErrInvalidVariant, ga.variant.ID)
	}
	ds.Columns = append(ds.Columns, ga)
	return nil
}

// Column returns the column with the given variant ID, or nil.
func (ds *Dataset) Column(id string) *GenotypeArray {
	for _, ga := range ds.Columns {
		if ga.variant.ID == id {
			return ga
		}
	}
	return nil
}

func (ds *Dataset) VariantInfo() []VariantInfo {
	out := make([]VariantInfo, len(ds.Columns))
	for i, ga := range ds.Columns {
		v := ga.variant
		out[i] = VariantInfo{
			ID:         v.ID,
			Chromosome: v.Chromosome,
			Position:   v.Position,
			Ref:        v.Ref(),
		}
		for j, alt := range v.Alt() {
			if j > 0 {
				out[i].Alt += ","
			}
			out[i].Alt += alt
		}
	}
	return out
}

// withColumns returns a dataset with the same samples and the given
// columns. Columns are shared, not copied.
func (ds *Dataset) withColumns(cols []*GenotypeArray) *Dataset {
	return &Dataset{Samples: ds.Samples, Columns: cols, Parallelism: ds.Parallelism}
}

// perColumn calls fn for each column, concurrently, and returns the
// first error.
func (ds *Dataset) perColumn(fn func(i int, ga *GenotypeArray) error) error {
	throttle := newThrottle(ds.Parallelism)
	for i, ga := range ds.Columns {
		i, ga := i, ga
		throttle.Go(func() error { return fn(i, ga) })
	}
	return throttle.Wait()
}

func (ds *Dataset) MAF() []float64 {
	out := make([]float64, len(ds.Columns))
	ds.perColumn(func(i int, ga *GenotypeArray) error {
		out[i] = ga.MAF()
		return nil
	})
	return out
}

// HWEPval returns per-column HWE p-values. Columns where the test
// does not apply get NaN.
func (ds *Dataset) HWEPval() []float64 {
	out := make([]float64, len(ds.Columns))
	ds.perColumn(func(i int, ga *GenotypeArray) error {
		p, err := ga.HWEPval()
		if err != nil {
			log.Debugf("%s: %s", ga.variant.ID, err)
			p = nan
		}
		out[i] = p
		return nil
	})
	return out
}

// FilterVariantsMAF drops columns with MAF less than min. Columns
// with undefined MAF are kept.
func (ds *Dataset) FilterVariantsMAF(min float64) *Dataset {
	var keep []*GenotypeArray
	for i, maf := range ds.MAF() {
		if !(maf < min) {
			keep = append(keep, ds.Columns[i])
		}
	}
	return ds.withColumns(keep)
}

// FilterVariantsHWE drops columns with HWE p-value less than cutoff.
// NaN results (non-diploid, too many alleles, no calls) are kept.
func (ds *Dataset) FilterVariantsHWE(cutoff float64) *Dataset {
	var keep []*GenotypeArray
	for i, p := range ds.HWEPval() {
		if !(p < cutoff) {
			keep = append(keep, ds.Columns[i])
		}
	}
	return ds.withColumns(keep)
}

// FilterRegions keeps the columns whose variants are in (keep=true)
// or not in (keep=false) the given regions.
func (ds *Dataset) FilterRegions(rs *RegionSet, keep bool) *Dataset {
	var cols []*GenotypeArray
	for _, ga := range ds.Columns {
		if rs.InRegions(ga.variant) == keep {
			cols = append(cols, ga)
		}
	}
	return ds.withColumns(cols)
}

// Encode returns one encoded vector per column.
func (ds *Dataset) Encode(kind Encoding) ([][]float64, error) {
	out := make([][]float64, len(ds.Columns))
	err := ds.perColumn(func(i int, ga *GenotypeArray) (err error) {
		out[i], err = ga.Encode(kind)
		if err != nil {
			err = fmt.Errorf("%s: %w", ga.variant.ID, err)
		}
		return
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeEdge applies edge encoding to each column with matching
// info, and returns the encoded columns with their variant IDs.
// Columns without usable info are skipped with a warning.
func (ds *Dataset) EncodeEdge(infos []EdgeEncodingInfo) (ids []string, values [][]float64, err error) {
	byID := map[string]EdgeEncodingInfo{}
	for _, info := range infos {
		if _, dup := byID[info.VariantID]; dup {
			return nil, nil, fmt.Errorf("duplicate variant id %q in edge encoding info", info.VariantID)
		}
		byID[info.VariantID] = info
	}
	failed := 0
	for _, ga := range ds.Columns {
		info, ok := byID[ga.variant.ID]
		if !ok {
			log.Warnf("%s: no matching edge encoding info", ga.variant.ID)
			failed++
			continue
		}
		encoded, err := ga.EncodeEdge(info)
		if err != nil {
			log.Warnf("%s: %s", ga.variant.ID, err)
			failed++
			continue
		}
		ids = append(ids, ga.variant.ID)
		values = append(values, encoded)
	}
	if failed > 0 {
		log.Warnf("%d variants failed edge encoding", failed)
	}
	return ids, values, nil
}

// CalculateEdgeEncodingValues estimates edge alpha values for every
// column. Columns where the regression fails are logged and left
// out; it is an error if no column succeeds.
func (ds *Dataset) CalculateEdgeEncodingValues(model EdgeModel) ([]EdgeEncodingInfo, error) {
	if len(model.Outcome) != len(ds.Samples) {
		return nil, fmt.Errorf("outcome has %d values, dataset has %d samples", len(model.Outcome), len(ds.Samples))
	}
	results := make([]EdgeEncodingInfo, len(ds.Columns))
	errs := make([]error, len(ds.Columns))
	ds.perColumn(func(i int, ga *GenotypeArray) error {
		results[i], errs[i] = CalculateEdgeEncodingValues(ga, model)
		return nil
	})
	var out []EdgeEncodingInfo
	for i, err := range errs {
		if err != nil {
			log.Warnf("no edge encoding result for %s: %s", ds.Columns[i].variant.ID, err)
			continue
		}
		out = append(out, results[i])
	}
	if len(out) == 0 {
		return nil, errors.New("no edge encoding results (see warnings)")
	}
	return out, nil
}

// CompleteRows returns the rows that are non-missing in every
// column.
func (ds *Dataset) CompleteRows() []bool {
	out := make([]bool, len(ds.Samples))
	for i := range out {
		out[i] = true
	}
	for _, ga := range ds.Columns {
		for i, missing := range ga.IsMissing() {
			if missing {
				out[i] = false
			}
		}
	}
	return out
}

// FilterSamples keeps the rows where keep is true, in every column.
func (ds *Dataset) FilterSamples(keep []bool) (*Dataset, error) {
	if len(keep) != len(ds.Samples) {
		return nil, fmt.Errorf("filter length %d != %d samples", len(keep), len(ds.Samples))
	}
	out := &Dataset{Parallelism: ds.Parallelism}
	for i, k := range keep {
		if k {
			out.Samples = append(out.Samples, ds.Samples[i])
		}
	}
	out.Columns = make([]*GenotypeArray, len(ds.Columns))
	for i, ga := range ds.Columns {
		var err error
		out.Columns[i], err = ga.Filter(keep)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Phenotypes returns each sample's phenotype.
func (ds *Dataset) Phenotypes() []float64 {
	out := make([]float64, len(ds.Samples))
	for i, s := range ds.Samples {
		out[i] = s.Phenotype
	}
	return out
}

func isBinary(values []float64) bool {
	for _, x := range values {
		if !math.IsNaN(x) && x != 0 && x != 1 {
			return false
		}
	}
	return true
}
