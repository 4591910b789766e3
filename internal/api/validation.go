package api

import (
	"fmt"
	"strings"

	"ermapa/internal/schema"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Коды ошибок, которыми будем пользоваться
const (
	ErrRequired          = "required"
	ErrIdentifierInvalid = "identifier_invalid"
	ErrIdentifierTaken   = "identifier_taken"
	ErrFormatUnknown     = "format_unknown"
	ErrRelationTarget    = "relation_target_missing"
	ErrOptionsMismatch   = "options_mismatch"
	ErrCatalogUnknown    = "catalog_unknown"
	ErrFilterInvalid     = "filter_invalid"
	ErrBetweenArity      = "between_arity"
	ErrPKProtected       = "pk_protected"
)

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

// FieldData — payload формы поля (форма присылает его целиком, и на
// создание, и на редактирование).
type FieldData struct {
	Identifier      string                  `json:"identifier"`
	Name            string                  `json:"name"`
	Format          string                  `json:"fieldFormat"`
	Multiple        bool                    `json:"multiple"`
	IsRequired      bool                    `json:"isRequired"`
	IsFilter        bool                    `json:"isFilter"`
	IsUnique        bool                    `json:"isUnique"`
	IsEditable      bool                    `json:"isEditable"`
	IsVisible       bool                    `json:"isVisible"`
	History         bool                    `json:"history"`
	Default         *string                 `json:"default"`
	Description     string                  `json:"description"`
	RelationTable   string                  `json:"relationTableIdentifier"`
	RelationFilters []schema.RelationFilter `json:"relationFilters"`
	Options         *schema.TypeOptions     `json:"storeData"`
}

// EntityData — payload формы сущности.
type EntityData struct {
	Identifier  string `json:"identifier"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// validateFieldData проверяет данные поля перед коммитом. editing — поле,
// которое редактируем (nil при создании): исключается из проверки
// уникальности. Модель при ошибках не трогается.
func (s *Storage) validateFieldData(table *schema.Entity, data FieldData, editing *schema.Field) []FieldError {
	var errs []FieldError

	// 1) identifier: синтаксис + уникальность в пределах таблицы
	ident := strings.TrimSpace(data.Identifier)
	if ident == "" {
		errs = append(errs, ferr(ErrRequired, "identifier", "Identifier is required"))
	} else if !schema.IdentRe.MatchString(ident) {
		errs = append(errs, ferr(ErrIdentifierInvalid, "identifier",
			"Identifier must start with a letter or underscore and contain only letters, digits and underscores"))
	} else {
		for i := range table.Fields {
			f := &table.Fields[i]
			if editing != nil && (f.ID == editing.ID || f.Identifier == editing.Identifier) {
				continue
			}
			if f.Identifier == ident {
				errs = append(errs, ferr(ErrIdentifierTaken, "identifier",
					"Identifier '"+ident+"' is already used in this table"))
				break
			}
		}
	}

	// 2) name
	if strings.TrimSpace(data.Name) == "" {
		errs = append(errs, ferr(ErrRequired, "name", "Name is required"))
	}

	// 3) формат
	if !schema.KnownFormat(data.Format) {
		errs = append(errs, ferr(ErrFormatUnknown, "fieldFormat",
			fmt.Sprintf("Unknown field format %q", data.Format)))
		return errs // дальше проверять бессмысленно
	}

	// 4) relation обязан иметь цель
	if data.Format == schema.FormatRelation && strings.TrimSpace(data.RelationTable) == "" {
		errs = append(errs, ferr(ErrRelationTarget, "relationTableIdentifier",
			"Relation fields must reference a target table"))
	}

	// 5) вариантный payload должен соответствовать формату
	if m := data.Options.MismatchFor(data.Format); m != "" {
		errs = append(errs, ferr(ErrOptionsMismatch, "storeData",
			fmt.Sprintf("Options payload %q does not match format %q", m, data.Format)))
	}

	// 5.1) list со справочником — справочник должен существовать
	if data.Options != nil && data.Options.List != nil && data.Options.List.Catalog != "" {
		if _, ok := s.catalogs[data.Options.List.Catalog]; !ok {
			errs = append(errs, ferr(ErrCatalogUnknown, "storeData",
				fmt.Sprintf("Catalog %q is not known", data.Options.List.Catalog)))
		}
	}

	// 6) relation-фильтры проверяем один раз, на входе, против текущей цели
	if data.Format == schema.FormatRelation && len(data.RelationFilters) > 0 {
		errs = append(errs, s.validateRelationFilters(data.RelationTable, data.RelationFilters)...)
	}

	return errs
}

// validateRelationFilters: поля фильтра существуют у целевой сущности,
// сами не являются relation, оператор допустим для формата поля,
// between требует ровно два значения. После создания фильтры заново
// НЕ перепроверяются (устаревшие терпим, см. линтер).
func (s *Storage) validateRelationFilters(targetIdent string, filters []schema.RelationFilter) []FieldError {
	target := s.entityByIdentifierLocked(targetIdent)
	if target == nil {
		// цель проверяется отдельно; здесь фильтры проверить не обо что
		return nil
	}
	var errs []FieldError
	for _, fl := range filters {
		tf := target.FieldByIdentifier(fl.Field)
		if tf == nil {
			errs = append(errs, ferr(ErrFilterInvalid, "relationFilters",
				fmt.Sprintf("Filter references unknown field %q of %q", fl.Field, targetIdent)))
			continue
		}
		if tf.Format == schema.FormatRelation {
			errs = append(errs, ferr(ErrFilterInvalid, "relationFilters",
				fmt.Sprintf("Filter field %q must not be a relation", fl.Field)))
			continue
		}
		if !schema.OperatorAllowed(tf.Format, fl.Operator) {
			errs = append(errs, ferr(ErrFilterInvalid, "relationFilters",
				fmt.Sprintf("Operator %q is not allowed for %s field %q", fl.Operator, tf.Format, fl.Field)))
			continue
		}
		if fl.Operator == "between" && len(fl.Values) != 2 {
			errs = append(errs, ferr(ErrBetweenArity, "relationFilters",
				"Operator 'between' takes exactly two values"))
		}
	}
	return errs
}

// validateEntityData: name непустой, identifier по синтаксису и уникален
// среди всех сущностей (кроме самой редактируемой).
func (s *Storage) validateEntityData(data EntityData, editing *schema.Entity) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(data.Name) == "" {
		errs = append(errs, ferr(ErrRequired, "name", "Name is required"))
	}

	ident := strings.TrimSpace(data.Identifier)
	if ident == "" {
		errs = append(errs, ferr(ErrRequired, "identifier", "Identifier is required"))
	} else if !schema.IdentRe.MatchString(ident) {
		errs = append(errs, ferr(ErrIdentifierInvalid, "identifier",
			"Identifier must start with a letter or underscore and contain only letters, digits and underscores"))
	} else {
		for _, e := range s.entities {
			if editing != nil && e.ID == editing.ID {
				continue
			}
			if e.Identifier == ident {
				errs = append(errs, ferr(ErrIdentifierTaken, "identifier",
					"Identifier '"+ident+"' is already used by another table"))
				break
			}
		}
	}

	return errs
}
