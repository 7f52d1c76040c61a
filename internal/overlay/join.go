package overlay

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/spatial-summarize/internal/domain"
)

// join присоединяет агрегаты к зонам выбранным типом join и собирает выходной слой.
// Возвращает слой и число зон, получивших агрегаты.
//
// Зоны адресуются плотными индексами, поэтому слияние идет через таблицу
// индекс зоны -> строка агрегатов за O(Z) без сравнения всех строк со всеми.
func (e *Engine) join(ov *overlayResult, red *reduction) (*domain.Layer, int, error) {
	rowOf := make([]int, ov.zones.Len())
	for i := range rowOf {
		rowOf[i] = -1
	}
	for row, zi := range red.zones {
		if zi < 0 || zi >= len(rowOf) {
			return nil, 0, configError("summary references unknown zone %d", zi)
		}
		rowOf[zi] = row
	}

	var order []int
	switch ov.opts.JoinType {
	case domain.JoinInner:
		order = make([]int, 0, len(red.zones))
		for zi, row := range rowOf {
			if row >= 0 {
				order = append(order, zi)
			}
		}
	case domain.JoinRight:
		order = red.zones
	case domain.JoinLeft, domain.JoinOuter:
		// Каждая агрегированная зона присутствует в слое зон, поэтому outer совпадает с left
		order = make([]int, len(rowOf))
		for zi := range order {
			order[zi] = zi
		}
	default:
		return nil, 0, configError("unsupported join type %q", ov.opts.JoinType)
	}

	out := &domain.Layer{CRS: ov.zones.CRS, Features: make([]domain.Feature, 0, len(order))}
	hits := 0
	for _, zi := range order {
		row := rowOf[zi]
		if row >= 0 {
			hits++
		}

		zone := ov.zones.Features[zi]
		props := renameProperties(zone.Properties, ov.reconciliation.ZoneRenames)
		for ci, c := range ov.opts.Columns {
			if row < 0 {
				props[c] = nil
				continue
			}
			v := red.values[ci][row]
			if math.IsNaN(v) {
				props[c] = nil
				continue
			}
			props[c] = v
		}

		var g orb.Geometry
		if zone.Geometry != nil {
			g = orb.Clone(zone.Geometry)
		}
		out.Features = append(out.Features, domain.Feature{Geometry: g, Properties: props})
	}

	return out, hits, nil
}
