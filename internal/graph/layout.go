package graph

import "math"

// Point — позиция узла на холсте.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout — сохранённые позиции по id сущности. Хранится отдельным ключом
// от самой схемы и переживает реимпорт для уже известных id.
type Layout map[string]Point

// Константы сетки по умолчанию (3 колонки, фиксированный шаг).
const (
	gridCols   = 3
	gridPitchX = 400
	gridPitchY = 450
	gridMargin = 50
)

// Центр круговой раскладки для интерактивно созданных таблиц.
const (
	placeOriginX = 600
	placeOriginY = 360
)

// GridDefault — детерминированная позиция по порядковому индексу сущности.
func GridDefault(i int) Point {
	return Point{
		X: float64((i%gridCols)*gridPitchX + gridMargin),
		Y: float64((i/gridCols)*gridPitchY + gridMargin),
	}
}

// Placement — позиция n-й интерактивно созданной таблицы: по кругу вокруг
// фиксированного центра, радиус и угол растут с каждым созданием, чтобы
// новые таблицы не накладывались друг на друга.
func Placement(n int) Point {
	angle := float64(n) * math.Pi / 3
	radius := float64(260 + 40*(n/6))
	return Point{
		X: placeOriginX + radius*math.Cos(angle),
		Y: placeOriginY + radius*math.Sin(angle),
	}
}

// Clone — независимая копия раскладки.
func (l Layout) Clone() Layout {
	out := make(Layout, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Retain оставляет только позиции перечисленных id (реимпорт: позиции
// известных сущностей сохраняем, исчезнувших — выбрасываем).
func (l Layout) Retain(ids map[string]bool) Layout {
	out := make(Layout, len(l))
	for k, v := range l {
		if ids[k] {
			out[k] = v
		}
	}
	return out
}
