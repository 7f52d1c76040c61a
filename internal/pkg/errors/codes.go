package errors

import "net/http"

var (
	// ErrConfiguration - некорректные параметры суммирования (ключ, колонки, тип join)
	ErrConfiguration = New(
		"CONFIGURATION_ERROR",
		"Invalid summary configuration",
		http.StatusBadRequest,
	)

	// ErrGeometry - неизвестная CRS, ошибка перепроецирования или геометрической операции
	ErrGeometry = New(
		"GEOMETRY_ERROR",
		"Geometry operation failed",
		http.StatusUnprocessableEntity,
	)

	ErrLayerNotFound = New(
		"LAYER_NOT_FOUND",
		"Layer not found",
		http.StatusNotFound,
	)

	ErrJobNotFound = New(
		"JOB_NOT_FOUND",
		"Summary job not found",
		http.StatusNotFound,
	)

	ErrInvalidLayer = New(
		"INVALID_LAYER",
		"Invalid layer data",
		http.StatusBadRequest,
	)

	ErrLayerTooLarge = New(
		"LAYER_TOO_LARGE",
		"Layer exceeds the maximum number of features",
		http.StatusRequestEntityTooLarge,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
