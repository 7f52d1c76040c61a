package overlay

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// CoverageTolerance - допуск суммы долей перекрытия одного источника
const CoverageTolerance = 1e-6

// SourceCoverage - суммарная доля площади источника, попавшая в зоны
type SourceCoverage struct {
	SourceIndex int     `json:"source_index"`
	Fraction    float64 `json:"fraction"`
}

// Coverage возвращает источники, у которых сумма долей перекрытия отличается
// от 1 больше чем на tol: частично покрытые зонами, не покрытые вовсе или
// попавшие в пересекающиеся зоны.
func Coverage(frags []Fragment, sources []int, tol float64) []SourceCoverage {
	bySource := make(map[int][]float64, len(sources))
	for _, f := range frags {
		bySource[f.SourceIndex] = append(bySource[f.SourceIndex], f.OverlapFraction)
	}

	var gaps []SourceCoverage
	for _, si := range sources {
		total := floats.Sum(bySource[si])
		if !scalar.EqualWithinAbs(total, 1, tol) {
			gaps = append(gaps, SourceCoverage{SourceIndex: si, Fraction: total})
		}
	}

	sort.Slice(gaps, func(i, j int) bool { return gaps[i].SourceIndex < gaps[j].SourceIndex })
	return gaps
}
