package main

import (
	"fmt"
	"log"

	"ermapa/internal/api"
	"ermapa/internal/config"
	"ermapa/internal/graph"
	"ermapa/internal/logging"
	"ermapa/internal/reference"
	"ermapa/internal/schema"
	"ermapa/internal/store"
)

func main() {
	// 1. Конфигурация: defaults -> JSON -> ENV -> флаги
	cfg := config.LoadWithPath("config.json")

	logger, err := logging.New(cfg.LogPath)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}

	// 2. Шлюз хранения (SQLite). Пустой путь = работаем только в памяти.
	var st *store.Store
	if cfg.DBPath != "" {
		st, err = store.Open(cfg.DBPath)
		if err != nil {
			// деградация до памяти, не падение: схему можно
			// импортировать заново, а редактор должен подняться
			logger.Error().Err(err).Str("path", cfg.DBPath).Msg("store unavailable, running in-memory")
			st = nil
		} else {
			defer st.Close()
		}
	}

	// 3. Восстанавливаем схему и раскладку из последнего снимка
	var entities []*schema.Entity
	layout := graph.Layout{}
	if st != nil {
		if loaded, found, err := st.LoadSchema(); err != nil {
			logger.Error().Err(err).Msg("schema snapshot unreadable")
		} else if found {
			entities = loaded
		}
		if l, found, err := st.LoadLayout(); err != nil {
			logger.Error().Err(err).Msg("layout snapshot unreadable")
		} else if found {
			layout = l
		}
	}
	schema.Normalize(entities)
	fmt.Printf("Загружено сущностей: %d\n", len(entities))

	// 4. YAML-справочники для list-полей (отсутствие папки не фатально)
	catalogs, err := reference.LoadCatalogs(cfg.CatalogsDir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", cfg.CatalogsDir).Msg("catalogs not loaded")
		catalogs = nil
	}
	fmt.Printf("Загружено справочников: %d\n", len(catalogs))

	storage := api.NewStorage(entities, layout, catalogs, st, logger)

	// 5. Автоимпорт из отслеживаемой папки
	if cfg.WatchDir != "" {
		go watchImports(cfg.WatchDir, storage, logger)
	}

	// 6. REST API сервер
	fmt.Printf("Стартуем сервер Ermapa на :%s...\n", cfg.Port)
	if err := api.RunServer(":"+cfg.Port, storage); err != nil {
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}
}
