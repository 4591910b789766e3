package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const permission = 0664

// New собирает логгер: в файл (append), если путь задан, иначе stdout.
func New(path string) (zerolog.Logger, error) {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return zerolog.Nop(), err
		}
		w = zerolog.SyncWriter(f)
	}
	return zerolog.New(w).With().Timestamp().Logger(), nil
}
