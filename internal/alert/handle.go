package alert

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shenikar/crime_alerting_system/internal/mapengine"
)

// MarkerHandle владеет ровно одним маркером на внешней карте.
// Release срабатывает ровно один раз: повторный вызов - no-op,
// потому что при гонках teardown'а доказать "ровно один вызов" сложнее,
// чем сделать освобождение идемпотентным.
type MarkerHandle struct {
	incidentID uuid.UUID
	ref        mapengine.MarkerRef
	release    func(mapengine.MarkerRef)
	once       sync.Once
}

func newMarkerHandle(id uuid.UUID, ref mapengine.MarkerRef, release func(mapengine.MarkerRef)) *MarkerHandle {
	return &MarkerHandle{
		incidentID: id,
		ref:        ref,
		release:    release,
	}
}

// IncidentID возвращает id инцидента-владельца
func (h *MarkerHandle) IncidentID() uuid.UUID {
	return h.incidentID
}

// Release освобождает маркер на внешней карте
func (h *MarkerHandle) Release() {
	h.once.Do(func() {
		if h.release != nil {
			h.release(h.ref)
		}
	})
}
