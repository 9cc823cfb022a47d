// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"fmt"
	"io"
	"log"
	"math"

	"github.com/kshedden/statmodel/glm"
	"github.com/kshedden/statmodel/statmodel"
	"gonum.org/v1/gonum/stat"
)

// EdgeModel is the regression data used to estimate edge encoding
// alpha values. Outcome and each Covariates[i] have one value per
// genotype row. Rows with a NaN covariate are dropped; a NaN
// outcome is an error.
type EdgeModel struct {
	Outcome        []float64
	Binary         bool
	Covariates     [][]float64
	CovariateNames []string
}

func (m EdgeModel) config() *glm.Config {
	family := glm.GaussianFamily
	if m.Binary {
		family = glm.BinomialFamily
	}
	return &glm.Config{
		Family:         glm.NewFamily(family),
		FitMethod:      "IRLS",
		ConcurrentIRLS: 1000,
		Log:            log.New(io.Discard, "", 0),
	}
}

func (m EdgeModel) validate(rows int) error {
	if len(m.Outcome) != rows {
		return fmt.Errorf("outcome has %d values, genotypes have %d rows", len(m.Outcome), rows)
	}
	na := 0
	for _, y := range m.Outcome {
		if math.IsNaN(y) {
			na++
		} else if m.Binary && y != 0 && y != 1 {
			return fmt.Errorf("binary outcome value %v is not 0 or 1", y)
		}
	}
	if na > 0 {
		return fmt.Errorf("%d samples are missing an outcome value", na)
	}
	if len(m.CovariateNames) != len(m.Covariates) {
		return fmt.Errorf("%d covariate names for %d covariates", len(m.CovariateNames), len(m.Covariates))
	}
	for i, cov := range m.Covariates {
		if len(cov) != rows {
			return fmt.Errorf("covariate %q has %d values, genotypes have %d rows", m.CovariateNames[i], len(cov), rows)
		}
	}
	return nil
}

func normalize(a []float64) {
	mean, std := stat.MeanStdDev(a, nil)
	if std == 0 || math.IsNaN(std) {
		return
	}
	for i, x := range a {
		a[i] = (x - mean) / std
	}
}

// CalculateEdgeEncodingValues fits outcome ~ constant + Het + Hom +
// covariates, where Het and Hom are the codominant dummy variables
// of ga, and returns alpha = beta(Het) / beta(Hom) along with the
// alleles and MAF it applies to.
func CalculateEdgeEncodingValues(ga *GenotypeArray, model EdgeModel) (info EdgeEncodingInfo, err error) {
	info = EdgeEncodingInfo{
		VariantID: ga.variant.ID,
		Alpha:     nan,
		RefAllele: ga.variant.Ref(),
		MAF:       ga.MAF(),
	}
	if len(ga.variant.Alleles) > 1 {
		info.AltAllele = ga.variant.Alleles[1]
	}
	if err = model.validate(ga.Len()); err != nil {
		return
	}
	classes, err := ga.EncodeCodominant()
	if err != nil {
		return
	}

	var (
		outcome   []statmodel.Dtype
		constants []statmodel.Dtype
		het       []statmodel.Dtype
		hom       []statmodel.Dtype
		covs      = make([][]statmodel.Dtype, len(model.Covariates))
		nHet      int
		nHom      int
	)
rows:
	for row, class := range classes {
		if class == CodominantNA {
			continue
		}
		for _, cov := range model.Covariates {
			if math.IsNaN(cov[row]) {
				continue rows
			}
		}
		outcome = append(outcome, model.Outcome[row])
		constants = append(constants, 1)
		var h, o statmodel.Dtype
		switch class {
		case CodominantHet:
			h = 1
			nHet++
		case CodominantHom:
			o = 1
			nHom++
		}
		het = append(het, h)
		hom = append(hom, o)
		for i, cov := range model.Covariates {
			covs[i] = append(covs[i], cov[row])
		}
	}
	if nHet == 0 || nHom == 0 {
		err = fmt.Errorf("%s: cannot estimate alpha with %d heterozygous and %d homozygous alternate samples", ga.variant.ID, nHet, nHom)
		return
	}

	data := [][]statmodel.Dtype{outcome, constants, het, hom}
	names := []string{"outcome", "constants", "het", "hom"}
	for i, cov := range covs {
		normalize(cov)
		data = append(data, cov)
		names = append(names, "cov_"+model.CovariateNames[i])
	}
	dataset := statmodel.NewDataset(data, names)
	glmModel, err := glm.NewGLM(dataset, "outcome", names[1:], model.config())
	if err != nil {
		return
	}

	defer func() {
		if e := recover(); e != nil {
			// typically "matrix singular or near-singular with condition number +Inf"
			err = fmt.Errorf("%s: regression failed: %v", ga.variant.ID, e)
		}
	}()
	params := glmModel.Fit().Params()
	betaHet, betaHom := params[1], params[2]
	if math.IsNaN(betaHet) || math.IsNaN(betaHom) || math.IsInf(betaHet, 0) || math.IsInf(betaHom, 0) {
		err = fmt.Errorf("%s: regression did not converge", ga.variant.ID)
		return
	}
	if betaHom == 0 {
		err = fmt.Errorf("%s: the homozygous alternate beta value was 0", ga.variant.ID)
		return
	}
	info.Alpha = betaHet / betaHom
	return
}
