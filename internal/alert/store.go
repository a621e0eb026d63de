package alert

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shenikar/crime_alerting_system/internal/models"
)

// Store хранит текущий набор активных инцидентов и классифицирует переходы:
// новая активация, разрешение, массовое разрешение.
type Store struct {
	mu     sync.Mutex
	active map[uuid.UUID]*models.Incident
}

func NewStore() *Store {
	return &Store{
		active: make(map[uuid.UUID]*models.Incident),
	}
}

// Ingest принимает полный срез инцидентов от коллаборатора-поставщика и
// возвращает diff относительно предыдущего активного набора.
// Активации отсортированы по CreatedAt по возрастанию, чтобы потребители
// детерминированно брали "самый свежий" как последний элемент.
// Инциденты без координат отбрасываются до диффа: это фильтрация
// презентационного слоя, а не записи-источника истины.
func (s *Store) Ingest(batch []*models.Incident) (activated, resolved []*models.Incident) {
	next := make(map[uuid.UUID]*models.Incident, len(batch))
	for _, inc := range batch {
		if inc == nil || !inc.IsActive() || !inc.HasLocation() {
			continue
		}
		next[inc.ID] = inc
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, inc := range next {
		if _, ok := s.active[id]; !ok {
			activated = append(activated, inc)
		}
	}
	for id, inc := range s.active {
		if _, ok := next[id]; !ok {
			resolved = append(resolved, inc)
		}
	}

	s.active = next

	sort.Slice(activated, func(i, j int) bool {
		return activated[i].CreatedAt.Before(activated[j].CreatedAt)
	})
	return activated, resolved
}

// Resolve убирает один инцидент из активного набора (ручное подтверждение
// оператором). Возвращает nil, если инцидент не был активен.
func (s *Store) Resolve(id uuid.UUID) *models.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.active[id]
	if !ok {
		return nil
	}
	delete(s.active, id)
	return inc
}

// ResolveAll помечает разрешёнными все активные инциденты (кнопка
// "подтвердить все" у оператора).
func (s *Store) ResolveAll() []*models.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := make([]*models.Incident, 0, len(s.active))
	for _, inc := range s.active {
		resolved = append(resolved, inc)
	}
	s.active = make(map[uuid.UUID]*models.Incident)

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].CreatedAt.Before(resolved[j].CreatedAt)
	})
	return resolved
}

// IsActive проверяет членство инцидента в активном наборе
func (s *Store) IsActive(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[id]
	return ok
}

// ActiveCount возвращает размер активного набора
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Active возвращает снапшот активного набора, отсортированный по CreatedAt
func (s *Store) Active() []*models.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Incident, 0, len(s.active))
	for _, inc := range s.active {
		out = append(out, inc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
