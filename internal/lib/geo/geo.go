// Package geo содержит расчёт расстояний по поверхности Земли и разбор
// параметров поиска по местоположению.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKm — средний радиус Земли в километрах.
const EarthRadiusKm = 6371.0

// boxMarginDeg расширяет прямоугольник на погрешность вычислений с плавающей точкой.
const boxMarginDeg = 1e-9

var (
	// ErrInvalidCoordinates — координаты не являются парой чисел в допустимых пределах.
	ErrInvalidCoordinates = errors.New("lat_long must be two numbers: latitude in [-90, 90], longitude in [-180, 180]")
	// ErrInvalidRadius — радиус не является положительным числом.
	ErrInvalidRadius = errors.New("radius must be a positive number")
	// ErrEmptyZipList — в параметре zip нет ни одного индекса.
	ErrEmptyZipList = errors.New("zip must contain at least one zip code")
)

// DistanceKm возвращает расстояние между точками по формуле гаверсинусов.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// BoundingBox — прямоугольник в градусах, гарантированно содержащий круг поиска.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains сообщает, лежит ли точка внутри прямоугольника.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// BoundingBoxFor строит прямоугольник вокруг круга радиусом radiusKm.
// Если круг захватывает полюс или линию перемены дат, долгота не ограничивается.
func BoundingBoxFor(lat, lon, radiusKm float64) BoundingBox {
	dLat := radiusKm/EarthRadiusKm*180/math.Pi + boxMarginDeg

	box := BoundingBox{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
		MinLon: -180,
		MaxLon: 180,
	}
	if lat+dLat >= 90 || lat-dLat <= -90 {
		return box
	}

	// Крайняя долгота круга достигается ближе к полюсу, чем широта центра.
	sinD := math.Sin(radiusKm / EarthRadiusKm)
	cosLat := math.Cos(toRadians(lat))
	if sinD >= cosLat {
		return box
	}
	dLon := math.Asin(sinD/cosLat)*180/math.Pi + boxMarginDeg
	if lon-dLon < -180 || lon+dLon > 180 {
		return box
	}
	box.MinLon = lon - dLon
	box.MaxLon = lon + dLon
	return box
}

// ValidPoint проверяет, что координаты конечны и лежат в допустимых пределах.
func ValidPoint(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ParseZips разбирает строку вида "78705, 78756" в список уникальных индексов.
func ParseZips(raw string) ([]string, error) {
	seen := make(map[string]struct{})
	var zips []string
	for _, part := range strings.Split(raw, ",") {
		zip := strings.TrimSpace(part)
		if zip == "" {
			continue
		}
		if _, ok := seen[zip]; ok {
			continue
		}
		seen[zip] = struct{}{}
		zips = append(zips, zip)
	}
	if len(zips) == 0 {
		return nil, ErrEmptyZipList
	}
	return zips, nil
}

// ParseLatLong принимает либо два значения (lat_long[]=..&lat_long[]=..),
// либо одно значение через запятую (lat_long=lat,long).
func ParseLatLong(values []string) (lat, lon float64, err error) {
	if len(values) == 1 {
		values = strings.Split(values[0], ",")
	}
	if len(values) != 2 {
		return 0, 0, ErrInvalidCoordinates
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(values[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s", ErrInvalidCoordinates, values[0])
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(values[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s", ErrInvalidCoordinates, values[1])
	}
	if !ValidPoint(lat, lon) {
		return 0, 0, ErrInvalidCoordinates
	}
	return lat, lon, nil
}

// ParseRadius разбирает радиус в километрах.
func ParseRadius(raw string) (float64, error) {
	radius, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidRadius, raw)
	}
	if !ValidRadius(radius) {
		return 0, ErrInvalidRadius
	}
	return radius, nil
}

// ValidRadius проверяет, что радиус конечен и положителен.
func ValidRadius(radius float64) bool {
	return !math.IsNaN(radius) && !math.IsInf(radius, 0) && radius > 0
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
