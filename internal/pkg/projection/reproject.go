package projection

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/pkg/errors"
	"github.com/twpayne/go-proj/v10"
)

// Transformer - преобразование точек между двумя CRS.
// Не безопасен для конкурентного использования; после работы вызвать Close.
type Transformer struct {
	from, to string
	ctx      *proj.Context
	pj       *proj.PJ
}

// NewTransformer строит преобразование from -> to
func NewTransformer(from, to string) (*Transformer, error) {
	fromCode, err := Normalize(from)
	if err != nil {
		return nil, errors.ErrGeometry.WithMessage("source CRS: %v", err).Wrap(err)
	}
	toCode, err := Normalize(to)
	if err != nil {
		return nil, errors.ErrGeometry.WithMessage("target CRS: %v", err).Wrap(err)
	}

	t := &Transformer{from: fromCode, to: toCode}
	if fromCode == toCode {
		return t, nil
	}

	t.ctx = proj.NewContext()
	pj, err := t.ctx.NewCRSToCRS(fromCode, toCode, nil)
	if err != nil {
		t.ctx.Destroy()
		return nil, errors.ErrGeometry.
			WithMessage("unsupported CRS transformation %s -> %s: %v", fromCode, toCode, err).
			Wrap(err)
	}
	defer pj.Destroy()

	// EPSG:4326 в PROJ задана в порядке широта/долгота
	t.pj, err = pj.NormalizeForVisualization()
	if err != nil {
		t.ctx.Destroy()
		return nil, errors.ErrGeometry.WithMessage("normalize axis order %s -> %s: %v", fromCode, toCode, err).Wrap(err)
	}
	return t, nil
}

// Identity проверяет, что исходная и целевая CRS совпадают
func (t *Transformer) Identity() bool {
	return t.pj == nil
}

// Close освобождает ресурсы PROJ
func (t *Transformer) Close() {
	if t.pj != nil {
		t.pj.Destroy()
		t.pj = nil
	}
	if t.ctx != nil {
		t.ctx.Destroy()
		t.ctx = nil
	}
}

// Point преобразует одну точку
func (t *Transformer) Point(p orb.Point) (orb.Point, error) {
	if err := checkFinite(p); err != nil {
		return p, err
	}
	if t.from == WGS84 {
		if err := checkGeographic(p); err != nil {
			return p, err
		}
	}
	if t.Identity() {
		return p, nil
	}

	c, err := t.pj.Forward(proj.NewCoord(p[0], p[1], 0, 0))
	if err != nil {
		return p, fmt.Errorf("transform %v: %w", p, err)
	}
	q := orb.Point{c[0], c[1]}
	if err := checkFinite(q); err != nil {
		return p, fmt.Errorf("coordinate %v outside %s domain", p, t.to)
	}
	return q, nil
}

// Geometry возвращает преобразованную копию геометрии
func (t *Transformer) Geometry(g orb.Geometry) (orb.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	out := orb.Clone(g)
	if t.Identity() {
		return out, nil
	}

	var firstErr error
	transform := func(p orb.Point) orb.Point {
		if firstErr != nil {
			return p
		}
		q, err := t.Point(p)
		if err != nil {
			firstErr = err
			return p
		}
		return q
	}

	out = project.Geometry(out, transform)
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Reproject возвращает копию слоя в целевой CRS; исходный слой не изменяется.
// Перепроецирование в текущую CRS слоя возвращает копию.
func Reproject(layer *domain.Layer, target string) (*domain.Layer, error) {
	if layer.CRS == "" {
		return nil, errors.ErrGeometry.WithMessage("layer CRS is not set")
	}

	t, err := NewTransformer(layer.CRS, target)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	out := &domain.Layer{CRS: t.to, Features: make([]domain.Feature, len(layer.Features))}
	for i, f := range layer.Features {
		g, err := t.Geometry(f.Geometry)
		if err != nil {
			return nil, errors.ErrGeometry.
				WithMessage("reproject feature %d from %s to %s: %v", i, t.from, t.to, err).
				Wrap(err)
		}
		props := make(map[string]interface{}, len(f.Properties))
		for k, v := range f.Properties {
			props[k] = v
		}
		out.Features[i] = domain.Feature{Geometry: g, Properties: props}
	}
	return out, nil
}

func (t *Transformer) String() string {
	return fmt.Sprintf("%s -> %s", t.from, t.to)
}

func checkFinite(p orb.Point) error {
	if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
		return fmt.Errorf("non-finite coordinate %v", p)
	}
	return nil
}

func checkGeographic(p orb.Point) error {
	if p[1] < -90 || p[1] > 90 || p[0] < -180 || p[0] > 180 {
		return fmt.Errorf("coordinate %v outside lon/lat range", p)
	}
	return nil
}
