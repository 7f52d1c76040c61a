package geometry

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/spatial-summarize/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geos"
)

func square(x, y, size float64) orb.Polygon {
	return orb.Polygon{{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y}}}
}

func TestIntersectionArea(t *testing.T) {
	a, err := FromOrb(square(0, 0, 2))
	require.NoError(t, err)
	defer a.Destroy()
	b, err := FromOrb(square(1, 0, 2))
	require.NoError(t, err)
	defer b.Destroy()

	inter, err := Intersection(a, b)
	require.NoError(t, err)
	defer inter.Destroy()

	area, err := Area(inter)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, area, 1e-12)

	g, err := ToOrb(inter)
	require.NoError(t, err)
	assert.True(t, IsPolygonal(g))
	assert.Equal(t, orb.Bound{Min: orb.Point{1, 0}, Max: orb.Point{2, 2}}, g.Bound())
}

func TestIntersection_Disjoint(t *testing.T) {
	a, err := FromOrb(square(0, 0, 1))
	require.NoError(t, err)
	defer a.Destroy()
	b, err := FromOrb(square(5, 5, 1))
	require.NoError(t, err)
	defer b.Destroy()

	inter, err := Intersection(a, b)
	require.NoError(t, err)
	defer inter.Destroy()

	empty, err := IsEmpty(inter)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestIntersection_TouchingEdgeIsNotPolygonal(t *testing.T) {
	a, err := FromOrb(square(0, 0, 1))
	require.NoError(t, err)
	defer a.Destroy()
	b, err := FromOrb(square(1, 0, 1))
	require.NoError(t, err)
	defer b.Destroy()

	inter, err := Intersection(a, b)
	require.NoError(t, err)
	defer inter.Destroy()

	area, err := Area(inter)
	require.NoError(t, err)
	assert.Zero(t, area)

	g, err := ToOrb(inter)
	require.NoError(t, err)
	assert.False(t, IsPolygonal(g))
}

func TestFromOrb_Nil(t *testing.T) {
	_, err := FromOrb(nil)
	assert.Error(t, err)
}

// bowTie crosses itself at (1, 1).
func bowTie() orb.Polygon {
	return orb.Polygon{{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}}
}

func TestValidate(t *testing.T) {
	valid, err := FromOrb(square(0, 0, 1))
	require.NoError(t, err)
	defer valid.Destroy()
	assert.NoError(t, Validate(valid))

	invalid, err := FromOrb(bowTie())
	require.NoError(t, err)
	defer invalid.Destroy()

	err = Validate(invalid)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrGeometry)
	assert.Contains(t, err.Error(), "invalid geometry")
}

func TestRecoverGEOS(t *testing.T) {
	run := func(v interface{}) (err error) {
		defer recoverGEOS(&err)
		panic(v)
	}

	err := run(fmt.Errorf("TopologyException: side location conflict"))
	assert.ErrorIs(t, err, errors.ErrGeometry)
	assert.Contains(t, err.Error(), "side location conflict")

	assert.ErrorIs(t, run("boom"), errors.ErrGeometry)
}

func TestIndex_Query(t *testing.T) {
	zones := make([]*geos.Geom, 0, 4)
	for _, sq := range []orb.Polygon{square(0, 0, 1), square(1, 0, 1), square(10, 10, 1)} {
		g, err := FromOrb(sq)
		require.NoError(t, err)
		defer g.Destroy()
		zones = append(zones, g)
	}
	zones = append(zones, nil)

	idx, err := NewIndex(zones)
	require.NoError(t, err)
	defer idx.Destroy()

	straddling, err := FromOrb(square(0.5, 0.25, 0.5))
	require.NoError(t, err)
	defer straddling.Destroy()
	hits, err := idx.Query(straddling)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, hits)

	far, err := FromOrb(square(50, 50, 1))
	require.NoError(t, err)
	defer far.Destroy()
	hits, err = idx.Query(far)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
