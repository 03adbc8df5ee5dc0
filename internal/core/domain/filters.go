package domain

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/mmcloughlin/geohash"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Режимы сортировки ленты.
const (
	SortModeNewest    = "newest"
	SortModeOldest    = "oldest"
	SortModePriceLow  = "price_low"
	SortModePriceHigh = "price_high"
)

// GeoHashPrecision - точность geohash-ячейки (~1.2 км x 0.6 км), в которой ищем объекты вокруг точки.
const GeoHashPrecision = 6

// GeoPoint - точка на карте, выбранная пользователем.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PriceRange - кортеж [min, max]; nil означает отсутствие границы.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// FeedFilters - критерии ленты. Для контроллера это значение сравнивается
// только целиком: изменение канонического представления начинает новую эпоху.
type FeedFilters struct {
	SortMode      string          `json:"sortMode,omitempty"`
	PropertyTypes []string        `json:"propertyTypes,omitempty"`
	Price         PriceRange      `json:"price"`
	Bedrooms      []int           `json:"bedrooms,omitempty"`
	Bathrooms     []int           `json:"bathrooms,omitempty"`
	Flags         map[string]bool `json:"flags,omitempty"`
	Locations     []string        `json:"locations,omitempty"`
	GeoPoints     []GeoPoint      `json:"geoPoints,omitempty"`
	Search        string          `json:"search,omitempty"`
}

// lower приводит строку к нижнему регистру. Caser хранит состояние,
// поэтому создается на каждый вызов.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Normalize приводит фильтры к каноническому виду: множества отсортированы
// и без повторов, строковые значения в нижнем регистре, пустые флаги убраны.
func (f FeedFilters) Normalize() FeedFilters {
	out := FeedFilters{
		SortMode:      strings.TrimSpace(lower(f.SortMode)),
		PropertyTypes: normalizeStrings(f.PropertyTypes),
		Price:         f.Price,
		Bedrooms:      normalizeInts(f.Bedrooms),
		Bathrooms:     normalizeInts(f.Bathrooms),
		Locations:     normalizeStrings(f.Locations),
		Search:        strings.TrimSpace(f.Search),
	}
	if out.SortMode == "" {
		out.SortMode = SortModeNewest
	}
	for name, enabled := range f.Flags {
		name = strings.TrimSpace(lower(name))
		if !enabled || name == "" {
			continue
		}
		if out.Flags == nil {
			out.Flags = make(map[string]bool)
		}
		out.Flags[name] = true
	}
	if len(f.GeoPoints) > 0 {
		out.GeoPoints = make([]GeoPoint, len(f.GeoPoints))
		copy(out.GeoPoints, f.GeoPoints)
	}
	return out
}

// Sort возвращает поле и направление сортировки для режима ленты.
func (f FeedFilters) Sort() (string, SortOrder) {
	switch f.SortMode {
	case SortModeOldest:
		return DefaultSortField, SortAsc
	case SortModePriceLow:
		return "price", SortAsc
	case SortModePriceHigh:
		return "price", SortDesc
	default:
		return DefaultSortField, SortDesc
	}
}

// Params кодирует фильтры (кроме сортировки и поиска) в query-параметры.
// Точки на карте передаются как geohash-ячейки.
func (f FeedFilters) Params() url.Values {
	n := f.Normalize()
	q := url.Values{}
	if len(n.PropertyTypes) > 0 {
		q.Set("propertyType", strings.Join(n.PropertyTypes, ","))
	}
	if n.Price.Min != nil {
		q.Set("minPrice", strconv.FormatFloat(*n.Price.Min, 'f', -1, 64))
	}
	if n.Price.Max != nil {
		q.Set("maxPrice", strconv.FormatFloat(*n.Price.Max, 'f', -1, 64))
	}
	if len(n.Bedrooms) > 0 {
		q.Set("bedrooms", joinInts(n.Bedrooms))
	}
	if len(n.Bathrooms) > 0 {
		q.Set("bathrooms", joinInts(n.Bathrooms))
	}
	if names := n.FlagNames(); len(names) > 0 {
		q.Set("flags", strings.Join(names, ","))
	}
	if len(n.Locations) > 0 {
		q.Set("location", strings.Join(n.Locations, ","))
	}
	if cells := n.GeoCells(); len(cells) > 0 {
		q.Set("geohash", strings.Join(cells, ","))
	}
	return q
}

// FlagNames возвращает отсортированные имена включенных флагов.
func (f FeedFilters) FlagNames() []string {
	names := make([]string, 0, len(f.Flags))
	for name, enabled := range f.Flags {
		if enabled {
			names = append(names, name)
		}
	}
	return normalizeStrings(names)
}

// GeoCells возвращает отсортированный список уникальных geohash-ячеек для точек фильтра.
func (f FeedFilters) GeoCells() []string {
	if len(f.GeoPoints) == 0 {
		return nil
	}
	cells := make([]string, 0, len(f.GeoPoints))
	for _, p := range f.GeoPoints {
		cells = append(cells, geohash.EncodeWithPrecision(p.Lat, p.Lon, GeoHashPrecision))
	}
	return normalizeStrings(cells)
}

// Key - каноническое представление фильтров; равенство ключей означает равенство фильтров.
func (f FeedFilters) Key() string {
	n := f.Normalize()
	q := n.Params()
	field, order := n.Sort()
	q.Set("sortField", field)
	q.Set("sortOrder", string(order))
	if n.Search != "" {
		q.Set("search", n.Search)
	}
	return q.Encode()
}

// Equal сравнивает фильтры по значению.
func (f FeedFilters) Equal(other FeedFilters) bool {
	return f.Key() == other.Key()
}

// Request кодирует фильтры и номер страницы в запрос страницы.
func (f FeedFilters) Request(page, limit int) PageRequest {
	n := f.Normalize()
	field, order := n.Sort()
	return PageRequest{
		Page:      page,
		Limit:     limit,
		SortField: field,
		SortOrder: order,
		Search:    n.Search,
		Params:    n.Params(),
	}
}

func normalizeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(lower(v))
		if v == "" {
			continue
		}
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeInts(values []int) []int {
	if len(values) == 0 {
		return nil
	}
	set := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
