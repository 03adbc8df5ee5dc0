package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"strconv"
	"strings"
)

// WriteJSONError отправляет JSON-ответ с полем "error" и заданным статусом
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RespondWithJSON отправляет JSON-ответ
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// requestError - ошибка входных данных, обнаруженная внутри действия хендлера.
type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(message string) error {
	return &requestError{message: message}
}

// writeUseCaseError переводит ошибку ядра в HTTP-статус.
func writeUseCaseError(w http.ResponseWriter, logger port.LoggerPort, err error) {
	var apiErr *domain.APIError
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		WriteJSONError(w, http.StatusBadRequest, reqErr.message)
	case errors.Is(err, domain.ErrSessionNotFound):
		WriteJSONError(w, http.StatusNotFound, "View session not found")
	case errors.Is(err, domain.ErrSessionKind):
		WriteJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrControllerClosed):
		WriteJSONError(w, http.StatusGone, "View session is closed")
	case errors.Is(err, domain.ErrInvalidPagination), errors.Is(err, domain.ErrUnknownResource):
		WriteJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidToken):
		WriteJSONError(w, http.StatusUnauthorized, "Invalid token")
	case errors.As(err, &apiErr):
		WriteJSONError(w, apiErr.Status, apiErr.Message)
	default:
		logger.Error("Request failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSONBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	// Пустое тело допустимо: все поля необязательны или проверяются отдельно
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// splitList разбирает параметр, который может повторяться и содержать значения через запятую.
func splitList(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func parseIntList(q url.Values, key string) ([]int, error) {
	values := splitList(q, key)
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for %s", v, key)
		}
		out = append(out, n)
	}
	return out, nil
}

func parseFloatParam(q url.Values, key string) (*float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q for %s", raw, key)
	}
	return &v, nil
}

// ParseFeedFilters собирает фильтры ленты из query-параметров:
// sortMode, propertyType, minPrice, maxPrice, bedrooms, bathrooms, flag,
// location, point=lat,lon (повторяется), search.
func ParseFeedFilters(q url.Values) (domain.FeedFilters, error) {
	f := domain.FeedFilters{
		SortMode:      q.Get("sortMode"),
		PropertyTypes: splitList(q, "propertyType"),
		Locations:     splitList(q, "location"),
		Search:        q.Get("search"),
	}

	var err error
	if f.Price.Min, err = parseFloatParam(q, "minPrice"); err != nil {
		return f, err
	}
	if f.Price.Max, err = parseFloatParam(q, "maxPrice"); err != nil {
		return f, err
	}
	if f.Price.Min != nil && f.Price.Max != nil && *f.Price.Min > *f.Price.Max {
		return f, fmt.Errorf("minPrice must not exceed maxPrice")
	}
	if f.Bedrooms, err = parseIntList(q, "bedrooms"); err != nil {
		return f, err
	}
	if f.Bathrooms, err = parseIntList(q, "bathrooms"); err != nil {
		return f, err
	}

	for _, name := range splitList(q, "flag") {
		if f.Flags == nil {
			f.Flags = make(map[string]bool)
		}
		f.Flags[name] = true
	}

	for _, raw := range q["point"] {
		lat, lon, ok := strings.Cut(raw, ",")
		if !ok {
			return f, fmt.Errorf("invalid point %q, expected lat,lon", raw)
		}
		p, err := parsePoint(lat, lon)
		if err != nil {
			return f, fmt.Errorf("invalid point %q: %w", raw, err)
		}
		f.GeoPoints = append(f.GeoPoints, p)
	}

	switch f.Normalize().SortMode {
	case domain.SortModeNewest, domain.SortModeOldest, domain.SortModePriceLow, domain.SortModePriceHigh:
	default:
		return f, fmt.Errorf("unknown sortMode %q", f.SortMode)
	}
	return f, nil
}

func parsePoint(latRaw, lonRaw string) (domain.GeoPoint, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil || lat < -90 || lat > 90 {
		return domain.GeoPoint{}, fmt.Errorf("latitude out of range")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil || lon < -180 || lon > 180 {
		return domain.GeoPoint{}, fmt.Errorf("longitude out of range")
	}
	return domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

// getIntOrDefault читает целый query-параметр; пустое значение - def.
func getIntOrDefault(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q for %s", raw, key)
	}
	return v, nil
}
