// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"fmt"
)

// Region is the 1-based half-open interval [Start, End) on a
// chromosome.
type Region struct {
	Chromosome string
	Start      int
	End        int
	Name       string
}

func NewRegion(chromosome string, start, end int, name string) (Region, error) {
	r := Region{Chromosome: chromosome, Start: start, End: end, Name: name}
	if err := r.Validate(); err != nil {
		return Region{}, err
	}
	return r, nil
}

func (r Region) Validate() error {
	if r.Start < 1 {
		return fmt.Errorf("region %s: start %d < 1", r, r.Start)
	}
	if r.Start >= r.End {
		return fmt.Errorf("region %s: start %d >= end %d", r, r.Start, r.End)
	}
	return nil
}

func (r Region) ContainsVariant(v *Variant) bool {
	return v.Chromosome == r.Chromosome && v.Position >= r.Start && v.Position < r.End
}

func (r Region) String() string {
	s := fmt.Sprintf("%s:%d-%d", r.Chromosome, r.Start, r.End)
	if r.Name != "" {
		s += "(" + r.Name + ")"
	}
	return s
}

// RegionSet answers whether a variant falls in any of a set of
// regions. Typical sets have hundreds of regions, but lookups use an
// interval tree so large BED files are fine too.
type RegionSet struct {
	regions []Region
	mask    mask
}

func NewRegionSet(regions ...Region) (*RegionSet, error) {
	rs := &RegionSet{}
	for _, r := range regions {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		rs.regions = append(rs.regions, r)
		rs.mask.Add(r.Chromosome, r.Start, r.End-1)
	}
	rs.mask.Freeze()
	return rs, nil
}

func (rs *RegionSet) Regions() []Region { return rs.regions }

func (rs *RegionSet) Len() int { return len(rs.regions) }

func (rs *RegionSet) InRegions(v *Variant) bool {
	return rs.mask.Check(v.Chromosome, v.Position, v.Position)
}

func (rs *RegionSet) NotInRegions(v *Variant) bool {
	return !rs.InRegions(v)
}
