package schema

import "regexp"

// Форматы полей. Закрытый набор; relation/attachment/list — особые,
// для них имеет смысл флаг multiple.
const (
	FormatString     = "string"
	FormatText       = "text"
	FormatInt        = "int"
	FormatFloat      = "float"
	FormatBool       = "bool"
	FormatDate       = "date"
	FormatTime       = "time"
	FormatDateTime   = "datetime"
	FormatRelation   = "relation"
	FormatAttachment = "attachment"
	FormatList       = "list"
)

// PrimaryIdentifier — технический идентификатор первичного ключа.
// Ровно одно такое поле обязано быть у каждой сущности после Normalize.
const PrimaryIdentifier = "id"

// IdentRe — синтаксис технических имён (сущностей и полей).
var IdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Entity описывает таблицу схемы. Порядок Fields значим и сохраняется.
// PX/PY — позиция, пришедшая из файла импорта (0 = не задана);
// актуальную позицию для рендера держит layout-слой.
type Entity struct {
	ID          string  `json:"id"`
	Identifier  string  `json:"identifier"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	PX          float64 `json:"px,omitempty"`
	PY          float64 `json:"py,omitempty"`
	Fields      []Field `json:"tableFields"`
}

// Field — поле сущности.
type Field struct {
	ID              string           `json:"id"`
	TableID         string           `json:"tableId,omitempty"`
	Identifier      string           `json:"identifier"`
	Name            string           `json:"name"`
	Format          string           `json:"fieldFormat"`
	Multiple        bool             `json:"multiple"`
	IsRequired      bool             `json:"isRequired"`
	IsFilter        bool             `json:"isFilter"`
	IsUnique        bool             `json:"isUnique"`
	IsEditable      bool             `json:"isEditable"`
	IsVisible       bool             `json:"isVisible"`
	History         bool             `json:"history"`
	Position        int              `json:"position"`
	Default         *string          `json:"default"`
	Description     string           `json:"description,omitempty"`
	RelationTable   string           `json:"relationTableIdentifier,omitempty"`
	RelationFilters []RelationFilter `json:"relationFilters,omitempty"`
	Options         *TypeOptions     `json:"storeData,omitempty"`
}

// RelationFilter ограничивает выбор строк целевой сущности relation-поля.
// Валидируется один раз при создании; при последующих изменениях целевой
// схемы автоматически НЕ перепроверяется (устаревшие фильтры терпим).
type RelationFilter struct {
	Field    string   `json:"field"`
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
}

// TypeOptions — вариантный payload, форма зависит от формата поля.
// Заполнен должен быть ровно тот вариант, который соответствует формату
// (проверяется MismatchFor).
type TypeOptions struct {
	Number     *NumberOptions     `json:"number,omitempty"`
	String     *StringOptions     `json:"string,omitempty"`
	Text       *TextOptions       `json:"text,omitempty"`
	List       *ListOptions       `json:"list,omitempty"`
	Attachment *AttachmentOptions `json:"attachment,omitempty"`
}

type NumberOptions struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

type StringOptions struct {
	Pattern string `json:"pattern,omitempty"`
	MaxLen  *int   `json:"maxLen,omitempty"`
}

type TextOptions struct {
	Rich bool `json:"rich,omitempty"`
}

// ListOptions: либо явные значения со стабильными целыми ключами,
// либо имя справочника (Catalog), из которого значения берутся.
type ListOptions struct {
	Values  []ListValue `json:"values,omitempty"`
	Mode    string      `json:"mode,omitempty"` // dropdown | radio
	Catalog string      `json:"catalog,omitempty"`
}

type ListValue struct {
	Key   int    `json:"key"`
	Value string `json:"value"`
}

type AttachmentOptions struct {
	Extensions []string `json:"extensions,omitempty"`
}

// MismatchFor возвращает имя чужого варианта, заполненного для данного
// формата, либо "" если payload согласован.
func (o *TypeOptions) MismatchFor(format string) string {
	if o == nil {
		return ""
	}
	allowed := map[string]bool{}
	switch format {
	case FormatInt, FormatFloat:
		allowed["number"] = true
	case FormatString:
		allowed["string"] = true
	case FormatText:
		allowed["text"] = true
	case FormatList:
		allowed["list"] = true
	case FormatAttachment:
		allowed["attachment"] = true
	}
	if o.Number != nil && !allowed["number"] {
		return "number"
	}
	if o.String != nil && !allowed["string"] {
		return "string"
	}
	if o.Text != nil && !allowed["text"] {
		return "text"
	}
	if o.List != nil && !allowed["list"] {
		return "list"
	}
	if o.Attachment != nil && !allowed["attachment"] {
		return "attachment"
	}
	return ""
}

// KnownFormat проверяет принадлежность закрытому набору форматов.
func KnownFormat(f string) bool {
	switch f {
	case FormatString, FormatText, FormatInt, FormatFloat, FormatBool,
		FormatDate, FormatTime, FormatDateTime,
		FormatRelation, FormatAttachment, FormatList:
		return true
	}
	return false
}

// ordered — форматы с естественным порядком (для операторов диапазона).
func ordered(f string) bool {
	switch f {
	case FormatInt, FormatFloat, FormatDate, FormatTime, FormatDateTime:
		return true
	}
	return false
}

// OperatorsFor возвращает допустимые операторы relation-фильтра по формату
// целевого поля. Relation-поля фильтровать нельзя — пустой набор.
func OperatorsFor(format string) []string {
	switch {
	case format == FormatRelation:
		return nil
	case ordered(format):
		return []string{"eq", "neq", "gt", "gte", "lt", "lte", "between"}
	case format == FormatString || format == FormatText:
		return []string{"eq", "neq", "contains"}
	default:
		return []string{"eq", "neq"}
	}
}

// OperatorAllowed — входит ли op в набор для данного формата.
func OperatorAllowed(format, op string) bool {
	for _, o := range OperatorsFor(format) {
		if o == op {
			return true
		}
	}
	return false
}

// FieldByID ищет поле по стабильному id.
func (e *Entity) FieldByID(id string) *Field {
	if id == "" {
		return nil
	}
	for i := range e.Fields {
		if e.Fields[i].ID == id {
			return &e.Fields[i]
		}
	}
	return nil
}

// FieldByIdentifier ищет поле по техническому имени.
func (e *Entity) FieldByIdentifier(ident string) *Field {
	for i := range e.Fields {
		if e.Fields[i].Identifier == ident {
			return &e.Fields[i]
		}
	}
	return nil
}

// PrimaryKey возвращает поле "id" (после Normalize существует всегда).
func (e *Entity) PrimaryKey() *Field {
	return e.FieldByIdentifier(PrimaryIdentifier)
}

// Reposition перенумеровывает поля в плотную последовательность 0..n-1
// в текущем порядке списка.
func (e *Entity) Reposition() {
	for i := range e.Fields {
		e.Fields[i].Position = i
	}
}
