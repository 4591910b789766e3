package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"ermapa/internal/api"
	"ermapa/internal/schema"
)

// watchImports следит за папкой и импортирует появившиеся там файлы схем:
// *.json — структурированный импорт, *.txt — вложенный (первый валидный
// JSON-массив внутри произвольного текста). Ошибки разбора только логируются,
// текущая модель при них не трогается.
func watchImports(dir string, storage *api.Storage, logger zerolog.Logger) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error().Err(err).Msg("import watcher unavailable")
		return
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("cannot watch import dir")
		return
	}
	logger.Info().Str("dir", dir).Msg("watching for schema imports")

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			kind := ""
			switch strings.ToLower(filepath.Ext(ev.Name)) {
			case ".json":
				kind = schema.ImportStructured
			case ".txt":
				kind = schema.ImportEmbedded
			default:
				continue
			}
			// редакторы пишут файл не атомарно; короткая пауза
			// даёт записи завершиться
			time.Sleep(100 * time.Millisecond)
			raw, err := os.ReadFile(ev.Name)
			if err != nil {
				logger.Error().Err(err).Str("file", ev.Name).Msg("import file unreadable")
				continue
			}
			count, persisted, err := storage.ImportSchema(raw, kind)
			if err != nil {
				logger.Error().Err(err).Str("file", ev.Name).Msg("import failed")
				continue
			}
			logger.Info().Str("file", ev.Name).Int("tables", count).
				Bool("persisted", persisted).Msg("schema imported from watch dir")
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("watcher error")
		}
	}
}
