// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// MissingIdx is the allele index of a missing call. A variant
	// can therefore have at most MissingIdx alleles (ref included).
	MissingIdx = 255

	// MaxPloidy is the largest ploidy that fits in a packed call.
	MaxPloidy = 8

	// MissingScore is the Variant.Score value meaning "no score".
	MissingScore = -1

	maxPosition = 1<<31 - 2
)

var (
	ErrUnknownAllele       = errors.New("unknown allele")
	ErrIncompatiblePloidy  = errors.New("incompatible ploidy")
	ErrIncompatibleVariant = errors.New("incompatible variant")
	ErrUnsupported         = errors.New("unsupported configuration")
	ErrInvalidVariant      = errors.New("invalid variant")
)

// Variant describes a genomic position and its possible alleles.
// Alleles[0] is the reference allele ("" if unknown), Alleles[1:]
// are the alternate alleles in index order.
type Variant struct {
	Chromosome string
	Position   int
	ID         string
	Alleles    []string
	Ploidy     int
	Score      int
}

// NewVariant returns a validated diploid variant. If id is empty, a
// random UUID is used.
func NewVariant(chromosome string, position int, id, ref string, alt []string) (*Variant, error) {
	if id == "" {
		id = uuid.NewString()
	}
	v := &Variant{
		Chromosome: chromosome,
		Position:   position,
		ID:         id,
		Alleles:    append([]string{ref}, alt...),
		Ploidy:     2,
		Score:      MissingScore,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks the variant fields.
func (v *Variant) Validate() error {
	if strings.ContainsAny(v.Chromosome, ";,") {
		return fmt.Errorf("%w: chromosome cannot contain ';' or ',': %q", ErrInvalidVariant, v.Chromosome)
	}
	if strings.ContainsAny(v.ID, ";,") {
		return fmt.Errorf("%w: id cannot contain ';' or ',': %q", ErrInvalidVariant, v.ID)
	}
	if v.Position < 0 || v.Position > maxPosition {
		return fmt.Errorf("%w: position %d out of range [0, %d]", ErrInvalidVariant, v.Position, maxPosition)
	}
	if v.Ploidy < 1 || v.Ploidy > MaxPloidy {
		return fmt.Errorf("%w: ploidy %d out of range [1, %d]", ErrInvalidVariant, v.Ploidy, MaxPloidy)
	}
	if v.Score < MissingScore {
		return fmt.Errorf("%w: negative score %d", ErrInvalidVariant, v.Score)
	}
	if len(v.Alleles) == 0 {
		return fmt.Errorf("%w: no ref allele slot", ErrInvalidVariant)
	}
	if len(v.Alleles) > MissingIdx {
		return fmt.Errorf("%w: too many alleles (%d > %d)", ErrInvalidVariant, len(v.Alleles), MissingIdx)
	}
	seen := map[string]bool{}
	for i, a := range v.Alleles {
		if i == 0 && a == "" {
			continue
		}
		if a == "" || strings.ContainsAny(a, ";,/|") {
			return fmt.Errorf("%w: invalid allele %q", ErrInvalidVariant, a)
		}
		if seen[a] {
			if i > 0 && a == v.Alleles[0] {
				return fmt.Errorf("%w: ref allele %q also listed as alt", ErrInvalidVariant, a)
			}
			return fmt.Errorf("%w: duplicate allele %q", ErrInvalidVariant, a)
		}
		seen[a] = true
	}
	return nil
}

func (v *Variant) Ref() string { return v.Alleles[0] }

func (v *Variant) Alt() []string { return v.Alleles[1:] }

// RefKnown reports whether the reference allele is known. When it
// is not, any allele index is provisionally accepted.
func (v *Variant) RefKnown() bool { return v.Alleles[0] != "" }

// IsSamePosition reports whether both variants are at the same
// chromosome and position, regardless of id and alleles.
func (v *Variant) IsSamePosition(other *Variant) bool {
	return other != nil && v.Chromosome == other.Chromosome && v.Position == other.Position
}

// Equal reports whether chromosome, position, id and alleles match.
// Ploidy and score are not compared; callers that need matching
// ploidy check it separately.
func (v *Variant) Equal(other *Variant) bool {
	if v == other {
		return true
	}
	if other == nil ||
		v.Chromosome != other.Chromosome ||
		v.Position != other.Position ||
		v.ID != other.ID ||
		len(v.Alleles) != len(other.Alleles) {
		return false
	}
	for i, a := range v.Alleles {
		if a != other.Alleles[i] {
			return false
		}
	}
	return true
}

// Copy returns a deep copy.
func (v *Variant) Copy() *Variant {
	cp := *v
	cp.Alleles = append([]string(nil), v.Alleles...)
	return &cp
}

// AddAllele appends allele to the alt alleles if it is not already
// present, and returns its index.
func (v *Variant) AddAllele(allele string) (int, error) {
	if idx, err := v.IdxFromAllele(allele); err == nil {
		return idx, nil
	}
	if allele == "" || strings.ContainsAny(allele, ";,/|") {
		return 0, fmt.Errorf("%w: invalid allele %q", ErrInvalidVariant, allele)
	}
	if len(v.Alleles) >= MissingIdx {
		return 0, fmt.Errorf("%w: cannot add allele %q to %s, %d alleles max", ErrInvalidVariant, allele, v, MissingIdx)
	}
	v.Alleles = append(v.Alleles, allele)
	return len(v.Alleles) - 1, nil
}

func (v *Variant) IdxFromAllele(allele string) (int, error) {
	for i, a := range v.Alleles {
		if a == allele && (i > 0 || a != "") {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q is not an allele of %s", ErrUnknownAllele, allele, v)
}

func (v *Variant) AlleleFromIdx(idx int) (string, error) {
	if idx < 0 || idx >= len(v.Alleles) {
		return "", fmt.Errorf("%w: index %d out of range for %s (%d alleles)", ErrUnknownAllele, idx, v, len(v.Alleles))
	}
	return v.Alleles[idx], nil
}

// ValidAlleleIdx reports whether idx can be used in a genotype of
// this variant. MissingIdx is always valid.
func (v *Variant) ValidAlleleIdx(idx int) bool {
	switch {
	case idx == MissingIdx:
		return true
	case idx < 0 || idx > MissingIdx:
		return false
	case !v.RefKnown():
		return true
	default:
		return idx < len(v.Alleles)
	}
}

func (v *Variant) String() string {
	s := fmt.Sprintf("%s[chr=%s;pos=%d;ref=%s;alt=%s]", v.ID, v.Chromosome, v.Position, v.Ref(), strings.Join(v.Alt(), ","))
	if v.Score != MissingScore {
		s += fmt.Sprintf("Q%d", v.Score)
	}
	return s
}

var (
	variantRe = regexp.MustCompile(`^(?P<id>[^\[]*)\[chr=(?P<chr>[^;]*);pos=(?P<pos>[0-9]+);ref=(?P<ref>[^;]*);alt=(?P<alt>[^\]]*)\](?:Q(?P<score>[0-9]+))?$`)
	dtypeRe   = regexp.MustCompile(`^genotype\((?P<ploidy>[0-9]+)n\)\[(?P<chr>.*); (?P<pos>[0-9]+); (?P<id>.*); (?P<ref>.*); (?P<alt>.*)\](?:Q(?P<score>[0-9]+))?$`)
)

// ParseVariant parses the output of (*Variant)String. The ploidy of
// the result is 2.
func ParseVariant(s string) (*Variant, error) {
	return parseVariantRe(variantRe, s)
}

// DtypeString returns a description that also carries the ploidy,
// e.g. "genotype(2n)[12; 112161652; rs12462; T; C]Q25".
func (v *Variant) DtypeString() string {
	s := fmt.Sprintf("genotype(%dn)[%s; %d; %s; %s; %s]", v.Ploidy, v.Chromosome, v.Position, v.ID, v.Ref(), strings.Join(v.Alt(), ","))
	if v.Score != MissingScore {
		s += fmt.Sprintf("Q%d", v.Score)
	}
	return s
}

// ParseDtype parses the output of (*Variant)DtypeString.
func ParseDtype(s string) (*Variant, error) {
	return parseVariantRe(dtypeRe, s)
}

func parseVariantRe(re *regexp.Regexp, s string) (*Variant, error) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: cannot parse %q", ErrInvalidVariant, s)
	}
	field := func(name string) string { return m[re.SubexpIndex(name)] }
	pos, err := strconv.Atoi(field("pos"))
	if err != nil {
		return nil, fmt.Errorf("%w: bad position in %q: %s", ErrInvalidVariant, s, err)
	}
	v := &Variant{
		Chromosome: field("chr"),
		Position:   pos,
		ID:         field("id"),
		Alleles:    []string{field("ref")},
		Ploidy:     2,
		Score:      MissingScore,
	}
	if alt := field("alt"); alt != "" {
		v.Alleles = append(v.Alleles, strings.Split(alt, ",")...)
	}
	if re.SubexpIndex("ploidy") >= 0 {
		v.Ploidy, err = strconv.Atoi(field("ploidy"))
		if err != nil {
			return nil, fmt.Errorf("%w: bad ploidy in %q: %s", ErrInvalidVariant, s, err)
		}
	}
	if score := field("score"); score != "" {
		v.Score, err = strconv.Atoi(score)
		if err != nil {
			return nil, fmt.Errorf("%w: bad score in %q: %s", ErrInvalidVariant, s, err)
		}
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// MakeGenotype returns a genotype of v with the given alleles. An
// allele that is not listed in v results in ErrUnknownAllele, unless
// the reference allele of v is unknown, in which case the allele is
// added. "" and "." are missing calls. With no alleles, the result
// is a missing genotype of v's ploidy.
func (v *Variant) MakeGenotype(alleles ...string) (Genotype, error) {
	return v.makeGenotype(alleles, !v.RefKnown())
}

// MakeGenotypeAdding is like MakeGenotype, but adds previously
// unseen alleles to v as alternate alleles.
func (v *Variant) MakeGenotypeAdding(alleles ...string) (Genotype, error) {
	return v.makeGenotype(alleles, true)
}

func (v *Variant) makeGenotype(alleles []string, add bool) (Genotype, error) {
	if len(alleles) == 0 {
		return MissingGenotype(v), nil
	}
	if len(alleles) > MaxPloidy {
		return Genotype{}, fmt.Errorf("%w: %d alleles given, max %d", ErrIncompatiblePloidy, len(alleles), MaxPloidy)
	}
	idxs := make([]uint8, len(alleles))
	for i, a := range alleles {
		if a == "" || a == "." {
			idxs[i] = MissingIdx
			continue
		}
		idx, err := v.IdxFromAllele(a)
		if err != nil {
			if !add {
				return Genotype{}, err
			}
			idx, err = v.AddAllele(a)
			if err != nil {
				return Genotype{}, err
			}
		}
		idxs[i] = uint8(idx)
	}
	return NewGenotype(v, idxs, nan)
}

// MakeGenotypeFromString parses a genotype string like "A/C". A
// '|' separator (phased) is accepted as well, but the result is
// unphased.
func (v *Variant) MakeGenotypeFromString(s, sep string, add bool) (Genotype, error) {
	if sep == "" {
		sep = "/"
	}
	if s == "" || s == "<Missing>" {
		return MissingGenotype(v), nil
	}
	var alleles []string
	if sep == "/" && !strings.Contains(s, "/") && strings.Contains(s, "|") {
		alleles = strings.Split(s, "|")
	} else {
		alleles = strings.Split(s, sep)
	}
	return v.makeGenotype(alleles, add || !v.RefKnown())
}

// MakeGenotypeFromPlinkBits converts a 2-bit PLINK .bed code, where
// allele1 is v's alt allele and allele2 is v's ref allele.
func (v *Variant) MakeGenotypeFromPlinkBits(bits uint8) (Genotype, error) {
	if len(v.Alleles) != 2 {
		return Genotype{}, fmt.Errorf("%w: plink bit codes require exactly two alleles, %s has %d", ErrUnsupported, v, len(v.Alleles))
	}
	if bits > 0b11 {
		return Genotype{}, fmt.Errorf("invalid plink bits %#b", bits)
	}
	idxs := plinkBitAlleles[bits]
	return NewGenotype(v, idxs[:], nan)
}

// MakeGenotypeFromVCF converts VCF GT allele numbers (-1 for ".").
func (v *Variant) MakeGenotypeFromVCF(gt []int, score float64) (Genotype, error) {
	idxs := make([]uint8, len(gt))
	for i, a := range gt {
		if a < 0 {
			idxs[i] = MissingIdx
		} else if a >= MissingIdx {
			return Genotype{}, fmt.Errorf("%w: allele number %d in %s", ErrUnknownAllele, a, v)
		} else {
			idxs[i] = uint8(a)
		}
	}
	return NewGenotype(v, idxs, score)
}
