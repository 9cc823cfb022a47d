// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadBED reads regions from BED text. Coordinates are converted
// from 0-based to 1-based. Browser, track, and comment lines are
// skipped.
func ReadBED(r io.Reader) ([]Region, error) {
	var regions []Region
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 8*1000000)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" ||
			strings.HasPrefix(line, "browser") ||
			strings.HasPrefix(line, "track") ||
			strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 tab-delimited fields, found %d", lineno, len(fields))
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad start: %w", lineno, err)
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad end: %w", lineno, err)
		}
		var name string
		if len(fields) > 3 {
			name = fields[3]
		}
		region, err := NewRegion(fields[0], start+1, end+1, name)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		regions = append(regions, region)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return regions, nil
}

// WriteBED writes regions as 0-based BED lines.
func WriteBED(w io.Writer, regions []Region) error {
	bufw := bufio.NewWriter(w)
	for _, r := range regions {
		fmt.Fprintf(bufw, "%s\t%d\t%d", r.Chromosome, r.Start-1, r.End-1)
		if r.Name != "" {
			fmt.Fprintf(bufw, "\t%s", r.Name)
		}
		bufw.WriteString("\n")
	}
	return bufw.Flush()
}
