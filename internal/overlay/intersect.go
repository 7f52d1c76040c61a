package overlay

import (
	"github.com/paulmach/orb"
	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/pkg/geometry"
	"github.com/spatial-summarize/internal/pkg/projection"
	"github.com/twpayne/go-geos"
	"go.uber.org/zap"
)

// Fragment - пересечение одного исходного объекта с одной зоной
type Fragment struct {
	SourceIndex int
	ZoneIndex   int
	ZoneKey     string
	// Значения запрошенных колонок в порядке Options.Columns; NaN - пропуск
	Values []float64
	// Атрибуты источника (после согласования схемы) и ключ зоны
	Properties map[string]interface{}

	SourceArea      float64
	FragmentArea    float64
	OverlapFraction float64

	// Геометрия в равновеликой CRS; может быть не полигональной
	Geometry orb.Geometry
}

type overlayResult struct {
	opts           Options
	reconciliation Reconciliation
	zones          *domain.Layer
	keys           []string
	fragments      []Fragment
	// Индексы источников с положительной площадью
	measured []int
}

// Overlay выполняет подготовку и пересечение слоев и возвращает фрагменты
// с площадями и долями перекрытия.
func (e *Engine) Overlay(zones, sources *domain.Layer, opts Options) ([]Fragment, error) {
	ov, err := e.overlay(zones, sources, opts)
	if err != nil {
		return nil, err
	}
	return ov.fragments, nil
}

func (e *Engine) overlay(zones, sources *domain.Layer, opts Options) (*overlayResult, error) {
	if zones == nil || sources == nil {
		return nil, configError("zone and summary layers are required")
	}

	opts, err := e.normalizeOptions(opts)
	if err != nil {
		return nil, err
	}

	keys, err := zoneKeys(zones, opts.Key)
	if err != nil {
		return nil, err
	}

	values, err := sourceValues(sources, opts.Columns)
	if err != nil {
		return nil, err
	}

	rec, err := ReconcileSchema(zones, sources, opts)
	if err != nil {
		return nil, err
	}
	if !rec.Empty() {
		e.logger.Debug("Schema reconciled",
			zap.Any("source_renames", rec.SourceRenames),
			zap.Any("zone_renames", rec.ZoneRenames),
		)
	}

	if zones.CRS == "" {
		return nil, geometryError(nil, "zone layer CRS is not set")
	}
	if sources.CRS == "" {
		return nil, geometryError(nil, "summary layer CRS is not set")
	}

	work := sources
	if !projection.Same(sources.CRS, zones.CRS) {
		e.logger.Debug("Reprojecting summary layer to zone CRS",
			zap.String("from", sources.CRS),
			zap.String("to", zones.CRS),
		)
		if work, err = projection.Reproject(sources, zones.CRS); err != nil {
			return nil, err
		}
	}

	sourcesEA, err := projection.Reproject(work, e.cfg.EqualAreaCRS)
	if err != nil {
		return nil, err
	}
	zonesEA, err := projection.Reproject(zones, e.cfg.EqualAreaCRS)
	if err != nil {
		return nil, err
	}

	ov := &overlayResult{
		opts:           opts,
		reconciliation: rec,
		zones:          zones,
		keys:           keys,
	}
	if err := e.intersectAll(ov, zonesEA, sourcesEA, values); err != nil {
		return nil, err
	}

	e.logger.Debug("Overlay completed",
		zap.Int("zones", zones.Len()),
		zap.Int("sources", sources.Len()),
		zap.Int("fragments", len(ov.fragments)),
	)
	return ov, nil
}

// intersectAll пересекает каждый источник с зонами-кандидатами из STR-дерева за один проход
func (e *Engine) intersectAll(ov *overlayResult, zones, sources *domain.Layer, values [][]float64) error {
	zoneGeoms := make([]*geos.Geom, zones.Len())
	defer func() {
		for _, g := range zoneGeoms {
			if g != nil {
				g.Destroy()
			}
		}
	}()

	for i, z := range zones.Features {
		if z.Geometry == nil {
			e.logger.Warn("Zone has no geometry", zap.String("key", ov.keys[i]))
			continue
		}
		g, err := geometry.FromOrb(z.Geometry)
		if err != nil {
			return geometryError(err, "zone %s: %v", ov.keys[i], err)
		}
		zoneGeoms[i] = g
		if err := geometry.Validate(g); err != nil {
			return geometryError(err, "zone %s: %v", ov.keys[i], err)
		}
	}

	index, err := geometry.NewIndex(zoneGeoms)
	if err != nil {
		return geometryError(err, "index zones: %v", err)
	}
	defer index.Destroy()

	for si, s := range sources.Features {
		if s.Geometry == nil {
			e.logger.Debug("Skipping summary feature without geometry", zap.Int("index", si))
			continue
		}
		if err := e.intersectSource(ov, si, s, zoneGeoms, index, values[si]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) intersectSource(
	ov *overlayResult,
	si int,
	s domain.Feature,
	zoneGeoms []*geos.Geom,
	index *geometry.Index,
	values []float64,
) error {
	sg, err := geometry.FromOrb(s.Geometry)
	if err != nil {
		return geometryError(err, "summary feature %d: %v", si, err)
	}
	defer sg.Destroy()

	if err := geometry.Validate(sg); err != nil {
		return geometryError(err, "summary feature %d: %v", si, err)
	}

	sourceArea, err := geometry.Area(sg)
	if err != nil {
		return geometryError(err, "summary feature %d area: %v", si, err)
	}
	if sourceArea <= 0 {
		e.logger.Debug("Skipping summary feature with zero area", zap.Int("index", si))
		return nil
	}
	ov.measured = append(ov.measured, si)

	props := renameProperties(s.Properties, ov.reconciliation.SourceRenames)

	candidates, err := index.Query(sg)
	if err != nil {
		return geometryError(err, "query zones for summary feature %d: %v", si, err)
	}

	for _, zi := range candidates {
		frag, ok, err := e.fragment(sg, zoneGeoms[zi])
		if err != nil {
			return geometryError(err, "intersect summary feature %d with zone %s: %v", si, ov.keys[zi], err)
		}
		if !ok {
			continue
		}
		fprops := make(map[string]interface{}, len(props)+1)
		for k, v := range props {
			fprops[k] = v
		}
		fprops[ov.opts.Key] = ov.zones.Features[zi].Properties[ov.opts.Key]

		frag.SourceIndex = si
		frag.ZoneIndex = zi
		frag.ZoneKey = ov.keys[zi]
		frag.Values = values
		frag.Properties = fprops
		frag.SourceArea = sourceArea
		frag.OverlapFraction = frag.FragmentArea / sourceArea
		ov.fragments = append(ov.fragments, frag)
	}
	return nil
}

// fragment возвращает пересечение; ok=false для пустого результата
func (e *Engine) fragment(sg, zg *geos.Geom) (Fragment, bool, error) {
	inter, err := geometry.Intersection(sg, zg)
	if err != nil {
		return Fragment{}, false, err
	}
	defer inter.Destroy()

	empty, err := geometry.IsEmpty(inter)
	if err != nil || empty {
		return Fragment{}, false, err
	}

	area, err := geometry.Area(inter)
	if err != nil {
		return Fragment{}, false, err
	}
	g, err := geometry.ToOrb(inter)
	if err != nil {
		return Fragment{}, false, err
	}

	return Fragment{FragmentArea: area, Geometry: g}, true, nil
}
