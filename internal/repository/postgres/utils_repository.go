package postgres

// Лимиты выборок
const (
	// DefaultQueryLimit - лимит по умолчанию для запросов
	DefaultQueryLimit = 100
	// MaxQueryLimit - максимальный лимит для запросов
	MaxQueryLimit = 1000
)

// normalizeLimit приводит limit и offset к допустимому диапазону
func normalizeLimit(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
