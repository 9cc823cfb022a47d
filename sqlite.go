// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

// VariantSummary is one row of the variant summary table. SQLite has
// no NaN, so undefined statistics are NULL.
type VariantSummary struct {
	VariantInfo
	MAF     sql.NullFloat64 `db:"maf"`
	HWEPval sql.NullFloat64 `db:"hwe_pval"`
	Missing int             `db:"missing"`
}

const summarySchema = `
CREATE TABLE IF NOT EXISTS variant (
	id TEXT PRIMARY KEY,
	chromosome TEXT NOT NULL,
	position INTEGER NOT NULL,
	ref TEXT NOT NULL,
	alt TEXT NOT NULL,
	maf REAL,
	hwe_pval REAL,
	missing INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS variant_position ON variant (chromosome, position);
`

func nullFloat(x float64) sql.NullFloat64 {
	if math.IsNaN(x) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: x, Valid: true}
}

// Summarize computes per-variant statistics for ds.
func Summarize(ds *Dataset) []VariantSummary {
	info := ds.VariantInfo()
	mafs := ds.MAF()
	hwes := ds.HWEPval()
	out := make([]VariantSummary, len(ds.Columns))
	for i, ga := range ds.Columns {
		missing := 0
		for _, m := range ga.IsMissing() {
			if m {
				missing++
			}
		}
		out[i] = VariantSummary{
			VariantInfo: info[i],
			MAF:         nullFloat(mafs[i]),
			HWEPval:     nullFloat(hwes[i]),
			Missing:     missing,
		}
	}
	return out
}

func openSummaryDB(path string) (*sqlx.DB, error) {
	// URI filenames have to begin with 'file:'
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.DB.Exec(`
	PRAGMA journal_mode = OFF;
	PRAGMA synchronous = OFF;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to set pragmas: %w", err)
	}
	return db, nil
}

// WriteSummaryDB writes the summary rows to a "variant" table in the
// SQLite database at path, replacing rows with the same id.
func WriteSummaryDB(path string, rows []VariantSummary) error {
	db, err := openSummaryDB(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := db.Exec(summarySchema); err != nil {
		return err
	}
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	for i := range rows {
		_, err := tx.NamedExec(`INSERT OR REPLACE INTO variant
			(id, chromosome, position, ref, alt, maf, hwe_pval, missing)
			VALUES (:id, :chromosome, :position, :ref, :alt, :maf, :hwe_pval, :missing)`, &rows[i])
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting %s: %w", rows[i].ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return db.Close()
}

// ReadSummaryDB returns all rows of the "variant" table, ordered by
// chromosome and position.
func ReadSummaryDB(path string) ([]VariantSummary, error) {
	db, err := openSummaryDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	var rows []VariantSummary
	err = db.Select(&rows, `SELECT id, chromosome, position, ref, alt, maf, hwe_pval, missing FROM variant ORDER BY chromosome, position, id`)
	return rows, err
}
