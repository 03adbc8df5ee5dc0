package domain

import (
	"fmt"
	"strconv"
)

// Имена полей идентичности записи. Бэкенд маркетплейса отдает "_id",
// часть старых эндпоинтов - "id".
const (
	IdentityField         = "_id"
	FallbackIdentityField = "id"
)

// Record - непрозрачная запись, определяемая приложением.
// Контроллеры не интерпретируют содержимое, кроме поля идентичности.
type Record map[string]any

// ID извлекает стабильный идентификатор записи.
// Числовые идентификаторы приводятся к строке.
func (r Record) ID() (string, bool) {
	for _, field := range []string{IdentityField, FallbackIdentityField} {
		raw, ok := r[field]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case string:
			if v != "" {
				return v, true
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case int:
			return fmt.Sprintf("%d", v), true
		case int64:
			return fmt.Sprintf("%d", v), true
		case fmt.Stringer:
			return v.String(), true
		}
	}
	return "", false
}

// CloneRecords делает поверхностную копию среза, чтобы отдавать наружу
// данные, которые не разделяют память с состоянием контроллера.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}

// AppendUnique добавляет к items новые записи, пропуская те, чей идентификатор
// уже встречался. Сохраняется первое вхождение и порядок поступления.
// Записи без идентификатора добавляются как есть.
func AppendUnique(items []Record, seen map[string]struct{}, incoming []Record) []Record {
	for _, rec := range incoming {
		id, ok := rec.ID()
		if ok {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		items = append(items, rec)
	}
	return items
}
