package api

import (
	"errors"
	"io"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"ermapa/internal/graph"
	"ermapa/internal/schema"
)

// GET /api/graph — узлы и рёбра для рендер-слоя.
func GraphHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		nodes, edges := storage.Graph()
		c.JSON(http.StatusOK, gin.H{"nodes": nodes, "edges": edges})
	}
}

// GET /api/tables — модель в форме, идентичной формату импорта.
func TablesHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, storage.Tables())
	}
}

// POST /api/tables — создать пустую таблицу (с синтезированным ключом).
func CreateEntityHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, persisted := storage.CreateEntity()
		c.JSON(http.StatusCreated, gin.H{"table": e, "persisted": persisted})
	}
}

// DELETE /api/tables/:id
func DeleteEntityHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		persisted, err := storage.DeleteEntity(c.Param("id"))
		if err != nil {
			c.JSON(statusForOpError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"persisted": persisted})
	}
}

// DELETE /api/tables/:id/fields/:fieldId
func DeleteFieldHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		errs, persisted, err := storage.DeleteField(c.Param("id"), c.Param("fieldId"))
		if err != nil {
			c.JSON(statusForOpError(err), gin.H{"error": err.Error()})
			return
		}
		if len(errs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
			return
		}
		c.JSON(http.StatusOK, gin.H{"persisted": persisted})
	}
}

type movePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PUT /api/tables/:id/position — конец перетаскивания узла.
func MoveEntityHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p movePayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		persisted, err := storage.MoveEntity(c.Param("id"), graph.Point{X: p.X, Y: p.Y})
		if err != nil {
			c.JSON(statusForOpError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"persisted": persisted})
	}
}

// ===== Сессия редактирования =====

type beginFieldPayload struct {
	TableID string        `json:"tableId"`
	Field   *schema.Field `json:"field"` // null = создание
}

type beginEntityPayload struct {
	EntityID string         `json:"entityId"`
	Entity   *schema.Entity `json:"entity"`
}

type beginDeletePayload struct {
	TableID string `json:"tableId"`
}

// GET /api/session
func SessionStateHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, storage.SessionState())
	}
}

// POST /api/session/field
func BeginFieldEditHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p beginFieldPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		if err := storage.BeginFieldEdit(p.TableID, p.Field); err != nil {
			c.JSON(statusForOpError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, storage.SessionState())
	}
}

// POST /api/session/entity
func BeginEntityEditHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p beginEntityPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		if err := storage.BeginEntityEdit(p.EntityID, p.Entity); err != nil {
			c.JSON(statusForOpError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, storage.SessionState())
	}
}

// POST /api/session/delete
func BeginDeleteHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p beginDeletePayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		if err := storage.BeginDeleteConfirm(p.TableID); err != nil {
			c.JSON(statusForOpError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, storage.SessionState())
	}
}

// DELETE /api/session — отмена, безусловная и немедленная.
func CancelSessionHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		storage.CancelSession()
		c.Status(http.StatusNoContent)
	}
}

// POST /api/session/field/commit
func CommitFieldHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var data FieldData
		if err := c.ShouldBindJSON(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		errs, persisted, err := storage.CommitField(data)
		if err != nil {
			c.JSON(statusForOpError(err), gin.H{"error": err.Error()})
			return
		}
		if len(errs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
			return
		}
		c.JSON(http.StatusOK, gin.H{"persisted": persisted})
	}
}

// POST /api/session/entity/commit
func CommitEntityHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var data EntityData
		if err := c.ShouldBindJSON(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		errs, persisted, err := storage.CommitEntity(data)
		if err != nil {
			c.JSON(statusForOpError(err), gin.H{"error": err.Error()})
			return
		}
		if len(errs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
			return
		}
		c.JSON(http.StatusOK, gin.H{"persisted": persisted})
	}
}

// ===== Поиск =====

// GET /api/search?q=
func SearchHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, storage.Search(c.Query("q")))
	}
}

// POST /api/search/next
func NextMatchHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, storage.NextMatch())
	}
}

// POST /api/search/previous
func PreviousMatchHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, storage.PreviousMatch())
	}
}

// ===== Импорт =====

// POST /api/import?kind=structured|embedded — тело запроса: сырой текст.
func ImportHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil || len(raw) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Empty body"})
			return
		}
		kind := c.DefaultQuery("kind", schema.ImportStructured)
		count, persisted, err := storage.ImportSchema(raw, kind)
		if err != nil {
			var fe *schema.FormatError
			if errors.As(err, &fe) {
				// импорт прерван, модель не тронута; причину отдаём как есть
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"error": "format error", "details": fe.Error(),
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tables": count, "persisted": persisted})
	}
}

// ===== Прочее =====

// GET /api/lint
func LintHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		issues := storage.Lint()
		if issues == nil {
			issues = []SchemaIssue{}
		}
		c.JSON(http.StatusOK, gin.H{"issues": issues})
	}
}

// GET /api/catalogs и GET /api/catalogs/:name
func CatalogListHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		names := make([]string, 0, len(storage.catalogs))
		for name := range storage.catalogs {
			names = append(names, name)
		}
		sort.Strings(names)
		c.JSON(http.StatusOK, names)
	}
}

func CatalogHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		cat, ok := storage.catalogs[name]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Catalog not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": name, "items": cat.Items})
	}
}
