package api

import (
	"fmt"

	"ermapa/internal/schema"
)

type SchemaIssue struct {
	Table   string `json:"table"` // identifier сущности
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Lint сообщает о противоречиях в схеме, ничего не исправляя. Висячие
// relation-цели и устаревшие фильтры здесь именно репортятся: чинит их
// только явное удаление сущности (деградация) либо пользователь.
func (s *Storage) Lint() []SchemaIssue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var issues []SchemaIssue

	seen := map[string]string{}
	for _, e := range s.entities {
		if prev, ok := seen[e.Identifier]; ok {
			issues = append(issues, SchemaIssue{
				Table: e.Identifier, Code: "identifier_duplicate",
				Message: fmt.Sprintf("identifier %q is shared with table id %s", e.Identifier, prev),
			})
		}
		seen[e.Identifier] = e.ID

		for _, f := range e.Fields {
			if m := f.Options.MismatchFor(f.Format); m != "" {
				issues = append(issues, SchemaIssue{
					Table: e.Identifier, Field: f.Identifier, Code: "options_mismatch",
					Message: fmt.Sprintf("options payload %q does not match format %q", m, f.Format),
				})
			}

			if f.Format != schema.FormatRelation {
				continue
			}
			target := s.entityByIdentifierLocked(f.RelationTable)
			if target == nil {
				issues = append(issues, SchemaIssue{
					Table: e.Identifier, Field: f.Identifier, Code: "relation_dangling",
					Message: fmt.Sprintf("relation target %q does not exist", f.RelationTable),
				})
				continue
			}
			for _, fl := range f.RelationFilters {
				tf := target.FieldByIdentifier(fl.Field)
				switch {
				case tf == nil:
					issues = append(issues, SchemaIssue{
						Table: e.Identifier, Field: f.Identifier, Code: "filter_stale",
						Message: fmt.Sprintf("filter references missing field %q of %q", fl.Field, target.Identifier),
					})
				case tf.Format == schema.FormatRelation:
					issues = append(issues, SchemaIssue{
						Table: e.Identifier, Field: f.Identifier, Code: "filter_stale",
						Message: fmt.Sprintf("filter field %q of %q became a relation", fl.Field, target.Identifier),
					})
				case !schema.OperatorAllowed(tf.Format, fl.Operator):
					issues = append(issues, SchemaIssue{
						Table: e.Identifier, Field: f.Identifier, Code: "filter_stale",
						Message: fmt.Sprintf("operator %q no longer fits %s field %q", fl.Operator, tf.Format, fl.Field),
					})
				case fl.Operator == "between" && len(fl.Values) != 2:
					issues = append(issues, SchemaIssue{
						Table: e.Identifier, Field: f.Identifier, Code: "between_arity",
						Message: "operator 'between' takes exactly two values",
					})
				}
			}
		}
	}
	return issues
}
