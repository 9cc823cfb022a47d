// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// StoredColumn is the serialized form of a GenotypeArray.
type StoredColumn struct {
	Variant Variant
	Calls   []uint64
	Scores  []uint8
	Blake2b [blake2b.Size256]byte
}

// StoreEntry is one gob-encoded record of a dataset store. The
// first entry carries the samples; subsequent entries carry columns.
type StoreEntry struct {
	Samples []Sample
	Columns []StoredColumn
}

// columnDigest hashes a column's variant and packed data.
func columnDigest(v *Variant, calls []uint64, scores []uint8) [blake2b.Size256]byte {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%s\x00%d\x00", v.DtypeString(), len(calls))
	var buf [8]byte
	for _, c := range calls {
		binary.LittleEndian.PutUint64(buf[:], c)
		h.Write(buf[:])
	}
	h.Write(scores)
	var sum [blake2b.Size256]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func (ga *GenotypeArray) stored() StoredColumn {
	return StoredColumn{
		Variant: *ga.variant,
		Calls:   ga.calls,
		Scores:  ga.scores,
		Blake2b: columnDigest(ga.variant, ga.calls, ga.scores),
	}
}

func (sc *StoredColumn) genotypeArray() (*GenotypeArray, error) {
	v := sc.Variant.Copy()
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if len(sc.Calls) != len(sc.Scores) {
		return nil, fmt.Errorf("%s: %d calls but %d scores", v.ID, len(sc.Calls), len(sc.Scores))
	}
	if columnDigest(v, sc.Calls, sc.Scores) != sc.Blake2b {
		return nil, fmt.Errorf("%s: checksum mismatch, store is corrupt", v.ID)
	}
	return &GenotypeArray{variant: v, calls: sc.Calls, scores: sc.Scores}, nil
}

// WriteStore writes ds as a gob stream, columnsPerEntry columns per
// entry.
func WriteStore(w io.Writer, ds *Dataset, columnsPerEntry int) error {
	if columnsPerEntry < 1 {
		columnsPerEntry = 1000
	}
	enc := gob.NewEncoder(w)
	if err := enc.Encode(StoreEntry{Samples: ds.Samples}); err != nil {
		return err
	}
	for start := 0; start < len(ds.Columns); start += columnsPerEntry {
		end := start + columnsPerEntry
		if end > len(ds.Columns) {
			end = len(ds.Columns)
		}
		ent := StoreEntry{Columns: make([]StoredColumn, 0, end-start)}
		for _, ga := range ds.Columns[start:end] {
			ent.Columns = append(ent.Columns, ga.stored())
		}
		if err := enc.Encode(ent); err != nil {
			return err
		}
	}
	return nil
}

// ReadStore reads a gob stream written by WriteStore, verifying
// every column's digest.
func ReadStore(ctx context.Context, r io.Reader) (*Dataset, error) {
	dec := gob.NewDecoder(r)
	var ds *Dataset
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var ent StoreEntry
		err := dec.Decode(&ent)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if ds == nil {
			ds = NewDataset(ent.Samples)
		}
		for i := range ent.Columns {
			ga, err := ent.Columns[i].genotypeArray()
			if err != nil {
				return nil, err
			}
			if err := ds.AddColumn(ga); err != nil {
				return nil, err
			}
		}
	}
	if ds == nil {
		return nil, fmt.Errorf("empty store")
	}
	return ds, nil
}

// WriteStoreFile writes a store, compressed according to the file
// name suffix (.gz, .zst).
func WriteStoreFile(fnm string, ds *Dataset) error {
	f, err := zcreate(fnm)
	if err != nil {
		return err
	}
	err = WriteStore(f, ds, 0)
	if err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", fnm, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%s: %w", fnm, err)
	}
	log.Infof("wrote %d variants x %d samples to %s", len(ds.Columns), len(ds.Samples), fnm)
	return nil
}

func ReadStoreFile(ctx context.Context, fnm string) (*Dataset, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := ReadStore(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	return ds, nil
}
