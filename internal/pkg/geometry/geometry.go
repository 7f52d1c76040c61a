// Package geometry adapts orb geometries to the GEOS kernel.
package geometry

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/spatial-summarize/internal/pkg/errors"
	"github.com/twpayne/go-geos"
)

// STR-tree node capacity; GEOS recommends 10.
const indexNodeCapacity = 10

// FromOrb converts an orb geometry into a GEOS geometry via WKB.
// The caller owns the result and may Destroy it.
func FromOrb(g orb.Geometry) (geom *geos.Geom, err error) {
	if g == nil {
		return nil, fmt.Errorf("nil geometry")
	}
	data, err := wkb.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode wkb: %w", err)
	}

	defer recoverGEOS(&err)
	geom, err = geos.NewGeomFromWKB(data)
	if err != nil {
		return nil, fmt.Errorf("parse wkb: %w", err)
	}
	return geom, nil
}

// ToOrb converts a GEOS geometry back into orb.
func ToOrb(g *geos.Geom) (out orb.Geometry, err error) {
	defer recoverGEOS(&err)
	out, err = wkb.Unmarshal(g.ToWKB())
	if err != nil {
		return nil, fmt.Errorf("decode wkb: %w", err)
	}
	return out, nil
}

// Validate returns a GEOMETRY_ERROR describing why g is not OGC-valid.
func Validate(g *geos.Geom) (err error) {
	defer recoverGEOS(&err)
	if g.IsValid() {
		return nil
	}
	return errors.ErrGeometry.WithMessage("invalid geometry: %s", g.IsValidReason())
}

// Intersection returns a ∩ b. GEOS topology exceptions are returned as GEOMETRY_ERROR.
func Intersection(a, b *geos.Geom) (result *geos.Geom, err error) {
	defer recoverGEOS(&err)
	return a.Intersection(b), nil
}

// Area returns the planar area in squared CRS units.
func Area(g *geos.Geom) (area float64, err error) {
	defer recoverGEOS(&err)
	return g.Area(), nil
}

// IsEmpty reports whether g has no points.
func IsEmpty(g *geos.Geom) (empty bool, err error) {
	defer recoverGEOS(&err)
	return g.IsEmpty(), nil
}

// IsPolygonal reports whether g is a Polygon or MultiPolygon.
func IsPolygonal(g orb.Geometry) bool {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return true
	}
	return false
}

// Index is an STR-tree over a fixed set of geometries addressed by position.
// The indexed geometries must outlive the index.
type Index struct {
	tree *geos.STRtree
}

// NewIndex builds an index over geoms; nil entries are skipped.
func NewIndex(geoms []*geos.Geom) (idx *Index, err error) {
	defer recoverGEOS(&err)
	tree := geos.DefaultContext.NewSTRtree(indexNodeCapacity)
	for i, g := range geoms {
		if g == nil {
			continue
		}
		if err := tree.Insert(g, i); err != nil {
			tree.Destroy()
			return nil, fmt.Errorf("index geometry %d: %w", i, err)
		}
	}
	return &Index{tree: tree}, nil
}

// Query returns the positions of geometries whose envelopes intersect g's, in ascending order.
func (idx *Index) Query(g *geos.Geom) (hits []int, err error) {
	defer recoverGEOS(&err)
	idx.tree.Query(g, func(value any) {
		hits = append(hits, value.(int))
	})
	sort.Ints(hits)
	return hits, nil
}

// Destroy releases the tree.
func (idx *Index) Destroy() {
	idx.tree.Destroy()
}

func recoverGEOS(err *error) {
	if r := recover(); r != nil {
		appErr := errors.ErrGeometry.WithMessage("geos: %v", r)
		if e, ok := r.(error); ok {
			appErr = appErr.Wrap(e)
		}
		*err = appErr
	}
}
