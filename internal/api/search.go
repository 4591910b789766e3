package api

import "strings"

// searchState — поисковый индекс по узлам: упорядоченный набор совпадений
// и курсор для навигации вперёд/назад. Сам ничего не рисует — только
// сообщает рендеру, какой id сейчас "текущий".
type searchState struct {
	term    string
	matches []string // id сущностей в порядке объявления
	index   int
}

type SearchResult struct {
	Matches      []string `json:"matches"`
	CurrentIndex int      `json:"currentIndex"`
	Current      string   `json:"current,omitempty"`
}

// Search: регистронезависимое вхождение по отображаемому имени И по
// identifier. Пустой/пробельный запрос очищает подсветку.
func (s *Storage) Search(term string) SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.term = strings.TrimSpace(term)
	s.search.index = 0
	s.search.matches = s.matchesLocked(s.search.term)
	return s.searchResultLocked()
}

// NextMatch/PreviousMatch двигают курсор по модулю числа совпадений
// (заворачиваются в обе стороны). Без совпадений — no-op.
func (s *Storage) NextMatch() SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.search.matches); n > 0 {
		s.search.index = (s.search.index + 1) % n
	}
	return s.searchResultLocked()
}

func (s *Storage) PreviousMatch() SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.search.matches); n > 0 {
		s.search.index = (s.search.index - 1 + n) % n
	}
	return s.searchResultLocked()
}

func (s *Storage) matchesLocked(term string) []string {
	if term == "" {
		return nil
	}
	needle := strings.ToLower(term)
	var out []string
	for _, e := range s.entities {
		label := e.Name
		if label == "" {
			label = e.Identifier
		}
		if strings.Contains(strings.ToLower(label), needle) ||
			strings.Contains(strings.ToLower(e.Identifier), needle) {
			out = append(out, e.ID)
		}
	}
	return out
}

// refreshSearchLocked перезапускает сохранённый запрос после изменения
// модели: устаревшие id выпадают сами, курсор по возможности остаётся на
// том же узле.
func (s *Storage) refreshSearchLocked() {
	if s.search.term == "" {
		return
	}
	current := ""
	if s.search.index < len(s.search.matches) {
		current = s.search.matches[s.search.index]
	}
	s.search.matches = s.matchesLocked(s.search.term)
	s.search.index = 0
	for i, id := range s.search.matches {
		if id == current {
			s.search.index = i
			break
		}
	}
}

func (s *Storage) searchResultLocked() SearchResult {
	res := SearchResult{
		Matches:      append([]string(nil), s.search.matches...),
		CurrentIndex: -1,
	}
	if len(s.search.matches) > 0 {
		res.CurrentIndex = s.search.index
		res.Current = s.search.matches[s.search.index]
	}
	return res
}
