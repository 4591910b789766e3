package api

import (
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ermapa/internal/graph"
	"ermapa/internal/reference"
	"ermapa/internal/schema"
	"ermapa/internal/store"
)

// Операции, ссылающиеся на исчезнувший id (устаревший колбэк после
// удаления), получают явную ошибку — без частичных мутаций.
var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownEntity = errors.New("unknown entity")
	ErrNoSession     = errors.New("no active edit session")
)

// Storage владеет канонической моделью схемы (единственный источник
// правды), раскладкой, сессией редактирования и поисковым состоянием.
// Узлы/рёбра — чистая производная, пересчитывается на чтении.
type Storage struct {
	mu       sync.RWMutex
	entities []*schema.Entity
	layout   graph.Layout
	session  Session
	search   searchState
	created  int // счётчик интерактивно созданных таблиц — для круговой раскладки
	catalogs map[string]reference.Catalog
	store    *store.Store // может быть nil — тогда живём только в памяти
	log      zerolog.Logger
	entropy  io.Reader
}

// NewStorage принимает уже нормализованные сущности.
func NewStorage(entities []*schema.Entity, layout graph.Layout,
	catalogs map[string]reference.Catalog, st *store.Store, log zerolog.Logger) *Storage {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	if layout == nil {
		layout = graph.Layout{}
	}
	if catalogs == nil {
		catalogs = map[string]reference.Catalog{}
	}
	return &Storage{
		entities: entities,
		layout:   layout,
		catalogs: catalogs,
		store:    st,
		log:      log,
		entropy:  ulid.Monotonic(src, 0),
	}
}

func (s *Storage) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// entityByIDLocked — двухфазный поиск: сперва по стабильному id, затем по
// identifier. Вторая фаза — осознанный контракт: внешние вызыватели могут
// держать устаревшие снимки после перезагрузок.
func (s *Storage) entityByIDLocked(id string) *schema.Entity {
	for _, e := range s.entities {
		if e.ID == id {
			return e
		}
	}
	for _, e := range s.entities {
		if e.Identifier == id {
			return e
		}
	}
	return nil
}

func (s *Storage) entityByIdentifierLocked(ident string) *schema.Entity {
	for _, e := range s.entities {
		if e.Identifier == ident {
			return e
		}
	}
	return nil
}

// persistLocked пишет схему и раскладку в шлюз хранения. Сбой ввода-вывода
// не фатален для сессии: пользователь продолжает работать, теряется только
// долговременность (до следующей успешной записи).
func (s *Storage) persistLocked() bool {
	if s.store == nil {
		return true
	}
	if err := s.store.SaveSchema(s.entities); err != nil {
		s.log.Error().Err(err).Msg("persist schema failed")
		return false
	}
	if err := s.store.SaveLayout(s.layout); err != nil {
		s.log.Error().Err(err).Msg("persist layout failed")
		return false
	}
	return true
}

// Graph — снимок производного графа для рендера.
func (s *Storage) Graph() ([]graph.Node, []graph.Edge) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return graph.Derive(s.entities, s.layout)
}

// Tables — глубокая копия модели (наружу внутренние указатели не отдаём).
func (s *Storage) Tables() []*schema.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntities(s.entities)
}

// Layout — копия раскладки.
func (s *Storage) Layout() graph.Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout.Clone()
}

// MoveEntity фиксирует позицию после перетаскивания узла.
func (s *Storage) MoveEntity(id string, p graph.Point) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entityByIDLocked(id)
	if e == nil {
		return false, ErrUnknownEntity
	}
	s.layout[e.ID] = p
	return s.persistLocked(), nil
}

// ImportSchema разбирает сырой импорт и замещает модель целиком
// (единственный случай wholesale-замены). Раскладка для уже известных id
// сохраняется. При любой ошибке разбора текущая модель не трогается.
// Возвращает число импортированных сущностей и флаг успешной записи.
func (s *Storage) ImportSchema(raw []byte, kind string) (int, bool, error) {
	entities, err := schema.Parse(raw, kind)
	if err != nil {
		return 0, false, err
	}
	schema.Normalize(entities)

	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]bool, len(entities))
	for _, e := range entities {
		known[e.ID] = true
	}
	s.entities = entities
	s.layout = s.layout.Retain(known)
	s.refreshSearchLocked()
	persisted := s.persistLocked()
	s.log.Info().Int("tables", len(entities)).Str("kind", kind).Msg("schema imported")
	return len(entities), persisted, nil
}

func cloneEntities(src []*schema.Entity) []*schema.Entity {
	// через JSON: модель целиком сериализуема, а ручное копирование
	// вложенных срезов легко разъезжается с типами
	b, err := json.Marshal(src)
	if err != nil {
		return nil
	}
	var out []*schema.Entity
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

func cloneField(f *schema.Field) *schema.Field {
	if f == nil {
		return nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil
	}
	var out schema.Field
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return &out
}

func cloneEntity(e *schema.Entity) *schema.Entity {
	if e == nil {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	var out schema.Entity
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return &out
}
