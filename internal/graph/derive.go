package graph

import (
	"ermapa/internal/schema"
)

// Node — производное представление сущности для рендера.
type Node struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Identifier  string      `json:"identifier"`
	Description string      `json:"description,omitempty"`
	Fields      []NodeField `json:"fields"`
	Position    Point       `json:"position"`
}

type NodeField struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Identifier    string `json:"identifier"`
	Format        string `json:"format"`
	IsRequired    bool   `json:"isRequired"`
	IsPrimaryKey  bool   `json:"isPrimaryKey"`
	IsRelation    bool   `json:"isRelation"`
	RelationTable string `json:"relationTableIdentifier,omitempty"`
	Multiple      bool   `json:"multiple"`
}

// Edge — одно ребро на каждое relation-поле, чья целевая сущность
// разрешилась. Всегда указывает в первичный ключ цели.
type Edge struct {
	ID          string `json:"id"`
	Source      string `json:"sourceEntity"`
	Target      string `json:"targetEntity"`
	SourceField string `json:"sourceField"`
	TargetField string `json:"targetField"`
	SourceTable string `json:"sourceTable"`
	TargetTable string `json:"targetTable"`
	Cardinality string `json:"cardinality"` // one-to-one | one-to-many
}

// Derive — чистая трансформация (сущности, раскладка) → (узлы, рёбра).
// Детерминирована; порядок узлов и рёбер повторяет порядок объявления.
//
// Позиция узла: сохранённая раскладка по id > px/py из исходных данных
// сущности > позиция в сетке по порядковому индексу.
//
// Relation-поле с неразрешимой целью ребра не даёт — это не ошибка,
// а допустимая висячая ссылка.
func Derive(entities []*schema.Entity, layout Layout) ([]Node, []Edge) {
	byIdentifier := make(map[string]*schema.Entity, len(entities))
	for _, e := range entities {
		byIdentifier[e.Identifier] = e
	}

	nodes := make([]Node, 0, len(entities))
	edges := make([]Edge, 0)

	for i, e := range entities {
		pos, ok := layout[e.ID]
		if !ok {
			if e.PX != 0 || e.PY != 0 {
				pos = Point{X: e.PX, Y: e.PY}
			} else {
				pos = GridDefault(i)
			}
		}

		label := e.Name
		if label == "" {
			label = e.Identifier
		}

		fields := make([]NodeField, 0, len(e.Fields))
		for _, f := range e.Fields {
			fields = append(fields, NodeField{
				ID:            f.ID,
				Name:          fieldLabel(f),
				Identifier:    f.Identifier,
				Format:        f.Format,
				IsRequired:    f.IsRequired,
				IsPrimaryKey:  f.Identifier == schema.PrimaryIdentifier,
				IsRelation:    f.Format == schema.FormatRelation,
				RelationTable: f.RelationTable,
				Multiple:      f.Multiple,
			})
		}

		nodes = append(nodes, Node{
			ID:          e.ID,
			Label:       label,
			Identifier:  e.Identifier,
			Description: e.Description,
			Fields:      fields,
			Position:    pos,
		})

		for _, f := range e.Fields {
			if f.Format != schema.FormatRelation || f.RelationTable == "" {
				continue
			}
			target, ok := byIdentifier[f.RelationTable]
			if !ok {
				continue // висячая ссылка — терпим
			}
			pk := target.PrimaryKey()
			if pk == nil {
				continue
			}
			cardinality := "one-to-one"
			if f.Multiple {
				cardinality = "one-to-many"
			}
			edges = append(edges, Edge{
				ID:          "edge-" + e.ID + "-" + f.Identifier + "-to-" + target.ID + "-id",
				Source:      e.ID,
				Target:      target.ID,
				SourceField: f.ID,
				TargetField: pk.ID,
				SourceTable: e.Identifier,
				TargetTable: target.Identifier,
				Cardinality: cardinality,
			})
		}
	}

	return nodes, edges
}

func fieldLabel(f schema.Field) string {
	if f.Name != "" {
		return f.Name
	}
	return f.Identifier
}
