package schema

// NewPrimaryKeyField — синтезированный первичный ключ фиксированной формы.
func NewPrimaryKeyField(tableID string) Field {
	return Field{
		ID:          tableID + "-id",
		TableID:     tableID,
		Identifier:  PrimaryIdentifier,
		Name:        "ID",
		Format:      FormatInt,
		IsRequired:  true,
		IsUnique:    true,
		IsFilter:    true,
		IsEditable:  false,
		IsVisible:   true,
		Position:    0,
		Description: "primary key of the table",
	}
}

// Normalize гарантирует каждой сущности ровно одно поле с identifier="id".
// Если поле уже есть — сущность не трогаем; иначе синтезируем ключ и
// вставляем первым, сдвигая позиции остальных. Операция идемпотентна:
// Normalize(Normalize(E)) == Normalize(E).
func Normalize(entities []*Entity) []*Entity {
	for _, e := range entities {
		if e == nil {
			continue
		}
		if e.FieldByIdentifier(PrimaryIdentifier) != nil {
			continue
		}
		pk := NewPrimaryKeyField(e.ID)
		fields := make([]Field, 0, len(e.Fields)+1)
		fields = append(fields, pk)
		for _, f := range e.Fields {
			f.Position++
			fields = append(fields, f)
		}
		e.Fields = fields
	}
	return entities
}
