package overlay

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/pkg/errors"
)

// Reconciliation описывает переименования атрибутов, выполненные перед overlay.
// Ключи карт - исходные имена, значения - новые.
type Reconciliation struct {
	SourceRenames map[string]string `json:"source_renames,omitempty"`
	ZoneRenames   map[string]string `json:"zone_renames,omitempty"`
}

// Empty проверяет, что переименований нет
func (r Reconciliation) Empty() bool {
	return len(r.SourceRenames) == 0 && len(r.ZoneRenames) == 0
}

// ReconcileSchema разрешает конфликты имен между слоями:
// ключ зон сохраняет свое имя, а одноименный атрибут источника получает суффикс
// "_summary"; атрибут зоны, совпадающий с агрегируемой колонкой, получает суффикс "_zone".
func ReconcileSchema(zones, sources *domain.Layer, opts Options) (Reconciliation, error) {
	rec := Reconciliation{
		SourceRenames: map[string]string{},
		ZoneRenames:   map[string]string{},
	}

	if sources.HasField(opts.Key) {
		renamed := opts.Key + SourceKeySuffix
		if sources.HasField(renamed) {
			return rec, configError("source layer already has attribute %q", renamed)
		}
		rec.SourceRenames[opts.Key] = renamed
	}

	for _, c := range opts.Columns {
		if !zones.HasField(c) {
			continue
		}
		renamed := c + ZoneFieldSuffix
		if zones.HasField(renamed) {
			return rec, configError("zone layer already has attribute %q", renamed)
		}
		rec.ZoneRenames[c] = renamed
	}

	return rec, nil
}

func renameProperties(props map[string]interface{}, renames map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		if to, ok := renames[k]; ok {
			out[to] = v
			continue
		}
		out[k] = v
	}
	return out
}

// normalizeOptions проверяет опции и подставляет join по умолчанию
func (e *Engine) normalizeOptions(opts Options) (Options, error) {
	if opts.Key == "" {
		return opts, configError("key must not be empty")
	}
	if len(opts.Columns) == 0 {
		return opts, configError("at least one column is required")
	}

	seen := make(map[string]struct{}, len(opts.Columns))
	for _, c := range opts.Columns {
		if c == "" {
			return opts, configError("column name must not be empty")
		}
		if c == opts.Key {
			return opts, configError("column %q is the zone key", c)
		}
		if _, ok := seen[c]; ok {
			return opts, configError("column %q requested twice", c)
		}
		seen[c] = struct{}{}
	}

	if opts.JoinType == "" {
		opts.JoinType = e.cfg.DefaultJoin
	}
	if !opts.JoinType.IsValid() {
		return opts, configError("unsupported join type %q", opts.JoinType)
	}

	cols := make([]string, len(opts.Columns))
	copy(cols, opts.Columns)
	opts.Columns = cols
	return opts, nil
}

// zoneKeys проверяет наличие и уникальность ключа у каждой зоны
func zoneKeys(zones *domain.Layer, key string) ([]string, error) {
	if zones.Len() > 0 && !zones.HasField(key) {
		return nil, configError("key %q not found in zone layer", key)
	}

	keys := make([]string, zones.Len())
	seen := make(map[string]int, zones.Len())
	for i, f := range zones.Features {
		v, ok := f.Properties[key]
		if !ok || v == nil {
			return nil, configError("zone %d has no value for key %q", i, key)
		}
		k := keyString(v)
		id := keyIdentity(v)
		if prev, dup := seen[id]; dup {
			return nil, configError("key %q is not unique: zones %d and %d share value %s", key, prev, i, k)
		}
		seen[id] = i
		keys[i] = k
	}
	return keys, nil
}

// sourceValues извлекает числовые значения колонок; NaN обозначает пропуск
func sourceValues(sources *domain.Layer, columns []string) ([][]float64, error) {
	if sources.Len() > 0 {
		for _, c := range columns {
			if !sources.HasField(c) {
				return nil, configError("column %q not found in summary layer", c)
			}
		}
	}

	values := make([][]float64, sources.Len())
	for i, f := range sources.Features {
		row := make([]float64, len(columns))
		for j, c := range columns {
			v, err := toFloat(f.Properties[c])
			if err != nil {
				return nil, configError("column %q of feature %d is not numeric: %v", c, i, err)
			}
			row[j] = v
		}
		values[i] = row
	}
	return values, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("unexpected %T value %v", v, v)
}

func keyString(v interface{}) string {
	return fmt.Sprint(v)
}

// keyIdentity различает строку "1" и число 1; числа разных типов с одним значением совпадают
func keyIdentity(v interface{}) string {
	if _, isString := v.(string); !isString {
		if f, err := toFloat(v); err == nil {
			return fmt.Sprintf("number:%v", f)
		}
	}
	return fmt.Sprintf("%T:%v", v, v)
}

func configError(format string, args ...interface{}) error {
	return errors.ErrConfiguration.WithMessage(format, args...)
}

func geometryError(err error, format string, args ...interface{}) error {
	appErr := errors.ErrGeometry.WithMessage(format, args...)
	if err != nil {
		appErr = appErr.Wrap(err)
	}
	return appErr
}
