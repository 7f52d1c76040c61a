// Package docs Spatial Summarize API.
//
// Сервис площадного суммирования: агрегирует числовые атрибуты исходного
// полигонального слоя в полигоны зон пропорционально площади пересечения.
//
// Основные возможности:
// - Синхронное суммирование (sum, mean, min, max) по GeoJSON или сохраненным слоям
// - Хранение слоев в PostGIS
// - Асинхронные задачи через Redis Streams
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//	- application/geo+json
//
// swagger:meta
package docs
