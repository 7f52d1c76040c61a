// Package projection перепроецирует слои между системами координат через PROJ.
//
// Идентификаторы CRS приводятся к виду EPSG:n; преобразования строит
// библиотека PROJ, поэтому поддерживается любая CRS из ее базы EPSG.
// Оси всегда в порядке долгота/широта (x/y).
package projection

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/twpayne/go-proj/v10"
)

const (
	WGS84         = "EPSG:4326"
	WebMercator   = "EPSG:3857"
	WorldMercator = "EPSG:3395"
	EqualArea     = "EPSG:6933"
)

// Равновеликие CRS, пригодные для вычисления площадей
var equalArea = map[string]struct{}{
	EqualArea:   {}, // NSIDC EASE-Grid 2.0 Global
	"EPSG:6931": {}, // EASE-Grid 2.0 North
	"EPSG:6932": {}, // EASE-Grid 2.0 South
	"EPSG:8857": {}, // Equal Earth Greenwich
	"EPSG:3035": {}, // ETRS89-extended / LAEA Europe
	"EPSG:5070": {}, // NAD83 / Conus Albers
	"EPSG:9311": {}, // US National Atlas Equal Area
	"EPSG:3571": {}, // North Pole LAEA Bering Sea
	"EPSG:3572": {}, // North Pole LAEA Alaska
	"EPSG:3573": {}, // North Pole LAEA Canada
	"EPSG:3574": {}, // North Pole LAEA Atlantic
	"EPSG:3575": {}, // North Pole LAEA Europe
	"EPSG:3576": {}, // North Pole LAEA Russia
}

// Результаты проверки CRS в базе PROJ
var known sync.Map

// Normalize приводит идентификатор CRS к виду EPSG:n
func Normalize(id string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(id))
	if s == "" {
		return "", fmt.Errorf("empty CRS identifier")
	}

	switch s {
	case "OGC:CRS84", "CRS84", "URN:OGC:DEF:CRS:OGC:1.3:CRS84", "URN:OGC:DEF:CRS:OGC::CRS84":
		return WGS84, nil
	}

	code := s
	switch {
	case strings.HasPrefix(s, "URN:OGC:DEF:CRS:EPSG:"):
		code = s[strings.LastIndex(s, ":")+1:]
	case strings.HasPrefix(s, "EPSG:"):
		code = strings.TrimPrefix(s, "EPSG:")
	}

	n, err := strconv.Atoi(code)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("malformed CRS identifier %q", id)
	}
	return fmt.Sprintf("EPSG:%d", n), nil
}

// IsSupported проверяет, что CRS распознана и известна PROJ
func IsSupported(id string) bool {
	code, err := Normalize(id)
	if err != nil {
		return false
	}
	if ok, cached := known.Load(code); cached {
		return ok.(bool)
	}

	ok := true
	if code != WGS84 {
		pj, err := proj.NewCRSToCRS(code, WGS84, nil)
		if err != nil {
			ok = false
		} else {
			pj.Destroy()
		}
	}
	known.Store(code, ok)
	return ok
}

// IsEqualArea проверяет, что CRS сохраняет площади
func IsEqualArea(id string) bool {
	code, err := Normalize(id)
	if err != nil {
		return false
	}
	_, ok := equalArea[code]
	return ok
}

// SRID возвращает числовой код EPSG для PostGIS
func SRID(id string) (int, error) {
	code, err := Normalize(id)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimPrefix(code, "EPSG:"))
}

// Same проверяет, что два идентификатора обозначают одну CRS
func Same(a, b string) bool {
	ca, errA := Normalize(a)
	cb, errB := Normalize(b)
	return errA == nil && errB == nil && ca == cb
}
