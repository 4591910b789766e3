package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// statusForOpError переводит доменные ошибки в HTTP-статусы: исчезнувшие
// id — 404, операция вне сессии — 409, остальное — 500.
func statusForOpError(err error) int {
	switch {
	case errors.Is(err, ErrUnknownTable), errors.Is(err, ErrUnknownEntity):
		return http.StatusNotFound
	case errors.Is(err, ErrNoSession):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewRouter собирает маршруты поверх общего Storage.
func NewRouter(storage *Storage) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	{
		api.GET("/graph", GraphHandler(storage))
		api.GET("/tables", TablesHandler(storage))
		api.POST("/tables", CreateEntityHandler(storage))
		api.DELETE("/tables/:id", DeleteEntityHandler(storage))
		api.PUT("/tables/:id/position", MoveEntityHandler(storage))
		api.DELETE("/tables/:id/fields/:fieldId", DeleteFieldHandler(storage))

		api.GET("/session", SessionStateHandler(storage))
		api.DELETE("/session", CancelSessionHandler(storage))
		api.POST("/session/field", BeginFieldEditHandler(storage))
		api.POST("/session/field/commit", CommitFieldHandler(storage))
		api.POST("/session/entity", BeginEntityEditHandler(storage))
		api.POST("/session/entity/commit", CommitEntityHandler(storage))
		api.POST("/session/delete", BeginDeleteHandler(storage))

		api.GET("/search", SearchHandler(storage))
		api.POST("/search/next", NextMatchHandler(storage))
		api.POST("/search/previous", PreviousMatchHandler(storage))

		api.POST("/import", ImportHandler(storage))

		api.GET("/lint", LintHandler(storage))
		api.GET("/catalogs", CatalogListHandler(storage))
		api.GET("/catalogs/:name", CatalogHandler(storage))
	}

	return r
}

// RunServer блокируется до завершения сервера.
func RunServer(addr string, storage *Storage) error {
	return NewRouter(storage).Run(addr)
}
