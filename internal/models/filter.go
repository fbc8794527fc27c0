package models

// LocationFilter описывает параметры запроса /users/by_location.
// Учитывается только одно семейство фильтров: State, затем Zips, затем Point.
type LocationFilter struct {
	State    string   // Код штата, точное совпадение
	Zips     []string // Список почтовых индексов
	Point    *Point   // Центр поиска по радиусу
	RadiusKm *float64 // Радиус в километрах (nil — значение по умолчанию)
}

// Point — географическая точка в градусах.
type Point struct {
	Latitude  float64
	Longitude float64
}

// FilterKind — семейство фильтра, выбранное по приоритету.
type FilterKind string

const (
	FilterAll    FilterKind = "all"
	FilterState  FilterKind = "state"
	FilterZip    FilterKind = "zip"
	FilterRadius FilterKind = "lat_long"
)

// Kind возвращает семейство фильтра с наивысшим приоритетом.
func (f LocationFilter) Kind() FilterKind {
	switch {
	case f.State != "":
		return FilterState
	case len(f.Zips) > 0:
		return FilterZip
	case f.Point != nil:
		return FilterRadius
	default:
		return FilterAll
	}
}
