package api

import (
	"fmt"
	"strings"

	"ermapa/internal/graph"
	"ermapa/internal/schema"
)

// Состояния сессии редактирования. Слот ровно один: вход в новое состояние
// замещает активное, вложенности нет.
type SessionKind string

const (
	SessionIdle    SessionKind = "idle"
	SessionField   SessionKind = "field"
	SessionEntity  SessionKind = "entity"
	SessionConfirm SessionKind = "confirm_delete"
)

// Session — явное однослотовое состояние "что сейчас редактируется".
// Field/Entity == nil означает создание, не редактирование.
type Session struct {
	Kind     SessionKind    `json:"kind"`
	TableID  string         `json:"tableId,omitempty"`
	EntityID string         `json:"entityId,omitempty"`
	Field    *schema.Field  `json:"field,omitempty"`
	Entity   *schema.Entity `json:"entity,omitempty"`
}

// SessionState — копия текущей сессии.
func (s *Storage) SessionState() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.session
	out.Field = cloneField(s.session.Field)
	out.Entity = cloneEntity(s.session.Entity)
	if out.Kind == "" {
		out.Kind = SessionIdle
	}
	return out
}

// BeginFieldEdit открывает сессию поля. field == nil — создание.
// Неизвестная таблица — явная ошибка, не тихий игнор.
func (s *Storage) BeginFieldEdit(tableID string, field *schema.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	table := s.entityByIDLocked(tableID)
	if table == nil {
		return ErrUnknownTable
	}
	s.session = Session{Kind: SessionField, TableID: table.ID, Field: cloneField(field)}
	return nil
}

// BeginEntityEdit открывает сессию сущности. entity == nil — у вызывателя
// нет снимка, редактируем по id.
func (s *Storage) BeginEntityEdit(entityID string, entity *schema.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entityByIDLocked(entityID)
	if e == nil {
		return ErrUnknownEntity
	}
	s.session = Session{Kind: SessionEntity, EntityID: e.ID, Entity: cloneEntity(entity)}
	return nil
}

// BeginDeleteConfirm — подтверждение удаления таблицы.
func (s *Storage) BeginDeleteConfirm(tableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	table := s.entityByIDLocked(tableID)
	if table == nil {
		return ErrUnknownTable
	}
	s.session = Session{Kind: SessionConfirm, TableID: table.ID}
	return nil
}

// CancelSession — безусловный возврат в Idle, модель не трогается.
func (s *Storage) CancelSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{Kind: SessionIdle}
}

// CommitField применяет данные формы поля к модели.
//
// Редактирование ищет цель сперва по стабильному id, затем по identifier
// (внешние вызыватели держат устаревшие снимки после перезагрузок);
// если цель так и не нашлась — данные вставляются новым полем в конец,
// а не теряются молча. Создание добавляет поле с position = текущему
// количеству полей.
//
// При ошибках валидации модель не меняется, сессия остаётся открытой
// (форму можно поправить и отправить снова). Успех закрывает сессию.
func (s *Storage) CommitField(data FieldData) ([]FieldError, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Kind != SessionField {
		return nil, false, ErrNoSession
	}
	table := s.entityByIDLocked(s.session.TableID)
	if table == nil {
		return nil, false, ErrUnknownTable
	}

	editing := s.session.Field
	if errs := s.validateFieldData(table, data, editing); len(errs) > 0 {
		return errs, false, nil
	}

	// не-relation форматы не несут цель и фильтры
	if data.Format != schema.FormatRelation {
		data.RelationTable = ""
		data.RelationFilters = nil
	}
	// multiple осмыслен только для relation/attachment/list
	switch data.Format {
	case schema.FormatRelation, schema.FormatAttachment, schema.FormatList:
	default:
		data.Multiple = false
	}
	if data.Default != nil && strings.TrimSpace(*data.Default) == "" {
		data.Default = nil
	}

	if editing != nil {
		// двухфазный поиск цели: id, затем identifier
		target := table.FieldByID(editing.ID)
		if target == nil {
			target = table.FieldByIdentifier(editing.Identifier)
		}
		if target != nil {
			applyFieldData(target, data)
			s.session = Session{Kind: SessionIdle}
			s.refreshSearchLocked()
			return nil, s.persistLocked(), nil
		}
		// цель исчезла — вставляем как новое поле, не роняем данные
		s.log.Warn().Str("table", table.Identifier).Str("field", data.Identifier).
			Msg("edited field not found, appending as new")
	}

	f := schema.Field{
		ID:       s.newID(),
		TableID:  table.ID,
		Position: len(table.Fields),
	}
	applyFieldData(&f, data)
	table.Fields = append(table.Fields, f)

	s.session = Session{Kind: SessionIdle}
	s.refreshSearchLocked()
	return nil, s.persistLocked(), nil
}

func applyFieldData(f *schema.Field, data FieldData) {
	f.Identifier = strings.TrimSpace(data.Identifier)
	f.Name = strings.TrimSpace(data.Name)
	f.Format = data.Format
	f.Multiple = data.Multiple
	f.IsRequired = data.IsRequired
	f.IsFilter = data.IsFilter
	f.IsUnique = data.IsUnique
	f.IsEditable = data.IsEditable
	f.IsVisible = data.IsVisible
	f.History = data.History
	f.Default = data.Default
	f.Description = data.Description
	f.RelationTable = data.RelationTable
	f.RelationFilters = data.RelationFilters
	f.Options = data.Options
}

// CommitEntity применяет данные формы сущности: identifier/name/description
// меняются на месте. Переименование identifier переставляет цели
// relation-полей в других таблицах — рёбра не провисают.
func (s *Storage) CommitEntity(data EntityData) ([]FieldError, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Kind != SessionEntity {
		return nil, false, ErrNoSession
	}
	e := s.entityByIDLocked(s.session.EntityID)
	if e == nil {
		return nil, false, ErrUnknownEntity
	}

	if errs := s.validateEntityData(data, e); len(errs) > 0 {
		return errs, false, nil
	}

	oldIdent := e.Identifier
	newIdent := strings.TrimSpace(data.Identifier)
	if newIdent != oldIdent {
		for _, other := range s.entities {
			for i := range other.Fields {
				f := &other.Fields[i]
				if f.Format == schema.FormatRelation && f.RelationTable == oldIdent {
					f.RelationTable = newIdent
				}
			}
		}
	}
	e.Identifier = newIdent
	e.Name = strings.TrimSpace(data.Name)
	e.Description = data.Description

	s.session = Session{Kind: SessionIdle}
	s.refreshSearchLocked()
	return nil, s.persistLocked(), nil
}

// DeleteField убирает поле и перенумеровывает остальные в плотную
// последовательность 0..n-1. Первичный ключ удалить нельзя. Уже
// отсутствующее поле — no-op (устаревший колбэк).
func (s *Storage) DeleteField(tableID, fieldID string) ([]FieldError, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.entityByIDLocked(tableID)
	if table == nil {
		return nil, false, ErrUnknownTable
	}

	idx := -1
	for i := range table.Fields {
		if table.Fields[i].ID == fieldID || table.Fields[i].Identifier == fieldID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, true, nil
	}
	if table.Fields[idx].Identifier == schema.PrimaryIdentifier {
		return []FieldError{ferr(ErrPKProtected, "identifier", "Primary key field cannot be deleted")}, false, nil
	}

	table.Fields = append(table.Fields[:idx], table.Fields[idx+1:]...)
	table.Reposition()

	s.session = Session{Kind: SessionIdle}
	return nil, s.persistLocked(), nil
}

// DeleteEntity убирает сущность. Relation-поля других таблиц, смотревшие
// на неё, деградируют до обычного текстового поля с очисткой цели и
// фильтров — это документированная односторонняя потеря, не ошибка.
func (s *Storage) DeleteEntity(entityID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, e := range s.entities {
		if e.ID == entityID || e.Identifier == entityID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, ErrUnknownEntity
	}
	removed := s.entities[idx]
	s.entities = append(s.entities[:idx], s.entities[idx+1:]...)
	delete(s.layout, removed.ID)

	for _, other := range s.entities {
		for i := range other.Fields {
			f := &other.Fields[i]
			if f.Format == schema.FormatRelation && f.RelationTable == removed.Identifier {
				f.Format = schema.FormatString
				f.RelationTable = ""
				f.RelationFilters = nil
				f.Multiple = false
				f.Options = nil
			}
		}
	}

	s.session = Session{Kind: SessionIdle}
	s.refreshSearchLocked()
	s.log.Info().Str("table", removed.Identifier).Msg("table deleted")
	return s.persistLocked(), nil
}

// CreateEntity добавляет новую таблицу с синтезированным первичным ключом
// и круговой позицией, не совпадающей с позициями существующих узлов.
func (s *Storage) CreateEntity() (*schema.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	ident := s.freeTableIdentifierLocked()
	e := &schema.Entity{
		ID:         id,
		Identifier: ident,
		Name:       fmt.Sprintf("Table %d", len(s.entities)+1),
	}
	schema.Normalize([]*schema.Entity{e})

	pos := s.freePlacementLocked()
	s.entities = append(s.entities, e)
	s.layout[id] = pos

	s.refreshSearchLocked()
	return cloneEntity(e), s.persistLocked()
}

func (s *Storage) freeTableIdentifierLocked() string {
	n := len(s.entities) + 1
	for {
		ident := fmt.Sprintf("table_%d", n)
		if s.entityByIdentifierLocked(ident) == nil {
			return ident
		}
		n++
	}
}

// freePlacementLocked перебирает круговые позиции, пока кандидат не
// перестанет совпадать с позицией какого-либо существующего узла.
func (s *Storage) freePlacementLocked() graph.Point {
	nodes, _ := graph.Derive(s.entities, s.layout)
	taken := make(map[graph.Point]bool, len(nodes))
	for _, n := range nodes {
		taken[n.Position] = true
	}
	for {
		p := graph.Placement(s.created)
		s.created++
		if !taken[p] {
			return p
		}
	}
}
