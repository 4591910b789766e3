package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Виды импорта: structured — весь текст это JSON-массив сущностей,
// embedded — массив нужно вытащить из окружающего свободного текста.
const (
	ImportStructured = "structured"
	ImportEmbedded   = "embedded"
)

// FormatError — payload импорта не разобрался или массив не найден.
// Существующая модель при этом не трогается (решает вызывающий).
type FormatError struct {
	Cause error
}

func (e *FormatError) Error() string {
	if e.Cause == nil {
		return "format error"
	}
	return "format error: " + e.Cause.Error()
}

func (e *FormatError) Unwrap() error { return e.Cause }

// Parse разбирает сырой импорт по указанному виду.
func Parse(raw []byte, kind string) ([]*Entity, error) {
	switch kind {
	case ImportEmbedded:
		return ParseEmbedded(raw)
	default:
		return ParseStructured(raw)
	}
}

// ParseStructured: текст целиком — JSON-массив описателей сущностей.
func ParseStructured(raw []byte) ([]*Entity, error) {
	var entities []*Entity
	if err := json.Unmarshal(raw, &entities); err != nil {
		return nil, &FormatError{Cause: err}
	}
	fillIDs(entities)
	return entities, nil
}

// ParseEmbedded ищет ПЕРВЫЙ синтаксически корректный top-level массив
// внутри произвольного текста и разбирает его. Нет такого массива —
// фатальный FormatError для этого импорта, не частичный результат.
func ParseEmbedded(raw []byte) ([]*Entity, error) {
	payload, ok := extractArray(raw)
	if !ok {
		return nil, &FormatError{Cause: fmt.Errorf("no top-level array found in input")}
	}
	var entities []*Entity
	if err := json.Unmarshal(payload, &entities); err != nil {
		return nil, &FormatError{Cause: err}
	}
	fillIDs(entities)
	return entities, nil
}

// extractArray сканирует кандидатов от каждой '[' до парной ']'
// (с учётом строк и экранирования) и возвращает первый кусок,
// который действительно парсится как JSON-массив.
func extractArray(raw []byte) ([]byte, bool) {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '[' {
			continue
		}
		end, ok := matchBracket(raw, i)
		if !ok {
			continue
		}
		candidate := raw[i : end+1]
		var probe []json.RawMessage
		if json.Unmarshal(candidate, &probe) == nil {
			return candidate, true
		}
	}
	return nil, false
}

// matchBracket возвращает индекс ']' , закрывающей скобку на позиции start.
func matchBracket(raw []byte, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for j := start; j < len(raw); j++ {
		c := raw[j]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return 0, false
}

// fillIDs дозаполняет отсутствующие id детерминированными значениями —
// файлы импорта часто приходят без них. Синтезированный id обязан быть
// уникальным в пределах импорта: сущности-дубликаты по identifier иначе
// склеились бы в один узел и один слот раскладки.
func fillIDs(entities []*Entity) {
	taken := map[string]bool{}
	for _, e := range entities {
		if e == nil {
			continue
		}
		if strings.TrimSpace(e.ID) != "" {
			taken[e.ID] = true
		}
		for i := range e.Fields {
			if strings.TrimSpace(e.Fields[i].ID) != "" {
				taken[e.Fields[i].ID] = true
			}
		}
	}
	for _, e := range entities {
		if e == nil {
			continue
		}
		if strings.TrimSpace(e.ID) == "" {
			e.ID = uniqueID("table-"+e.Identifier, taken)
		}
		for i := range e.Fields {
			f := &e.Fields[i]
			if f.TableID == "" {
				f.TableID = e.ID
			}
			if strings.TrimSpace(f.ID) == "" {
				f.ID = uniqueID("field-"+e.ID+"-"+f.Identifier, taken)
			}
		}
	}
}

// uniqueID возвращает base либо base с первым свободным порядковым
// суффиксом и регистрирует результат как занятый.
func uniqueID(base string, taken map[string]bool) string {
	id := base
	for n := 2; taken[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	taken[id] = true
	return id
}
