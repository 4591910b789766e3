package config

import (
	"encoding/json"
	"flag"
	"os"
	"strings"
)

type Config struct {
	Port        string `json:"port"`
	DBPath      string `json:"dbPath"`      // файл SQLite; пусто = только память
	CatalogsDir string `json:"catalogsDir"` // YAML-справочники для list-полей
	WatchDir    string `json:"watchDir"`    // папка автоимпорта; пусто = выключен
	LogPath     string `json:"logPath"`     // пусто = stdout
}

func def() Config {
	return Config{
		Port:        "8080",
		DBPath:      "ermapa.db",
		CatalogsDir: "reference/catalogs",
		WatchDir:    "",
		LogPath:     "",
	}
}

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// base — слои без флагов: defaults -> JSON (если файл есть) -> ENV.
func base(jsonPath string) Config {
	cfg := def()

	if st, err := os.Stat(jsonPath); err == nil && !st.IsDir() {
		if c2, err := loadJSON(jsonPath); err == nil {
			cfg = c2
		}
	}

	cfg.Port = getenv("ERMAPA_PORT", cfg.Port)
	cfg.DBPath = getenv("ERMAPA_DB_PATH", cfg.DBPath)
	cfg.CatalogsDir = getenv("ERMAPA_CATALOGS_DIR", cfg.CatalogsDir)
	cfg.WatchDir = getenv("ERMAPA_WATCH_DIR", cfg.WatchDir)
	cfg.LogPath = getenv("ERMAPA_LOG_PATH", cfg.LogPath)

	return cfg
}

// LoadWithPath читает JSON по указанному пути, потом применяет ENV и флаги.
func LoadWithPath(jsonPath string) Config {
	return load(jsonPath, os.Args[1:])
}

// load собирает конфиг на собственном FlagSet: функцию можно звать повторно,
// глобальный flag.CommandLine не трогается. Если флагом передан другой
// конфиг — базовые слои перечитываются от него, а поверх ложатся только
// явно переданные флаги (не их значения по умолчанию).
func load(jsonPath string, args []string) Config {
	cfg := base(jsonPath)

	fs := flag.NewFlagSet("ermapa", flag.ExitOnError)
	configPath := fs.String("config", jsonPath, "Path to config JSON")
	port := fs.String("port", cfg.Port, "HTTP port")
	db := fs.String("db", cfg.DBPath, "SQLite file path (empty = in-memory only)")
	catalogs := fs.String("catalogs", cfg.CatalogsDir, "Path to YAML catalogs directory")
	watch := fs.String("watch", cfg.WatchDir, "Directory to watch for schema imports (empty = off)")
	logPath := fs.String("log", cfg.LogPath, "Log file path (empty = stdout)")
	fs.Parse(args)

	if *configPath != jsonPath {
		cfg = base(*configPath)
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if explicit["port"] {
		cfg.Port = strings.TrimSpace(*port)
	}
	if explicit["db"] {
		cfg.DBPath = strings.TrimSpace(*db)
	}
	if explicit["catalogs"] {
		cfg.CatalogsDir = strings.TrimSpace(*catalogs)
	}
	if explicit["watch"] {
		cfg.WatchDir = strings.TrimSpace(*watch)
	}
	if explicit["log"] {
		cfg.LogPath = strings.TrimSpace(*logPath)
	}

	return cfg
}
