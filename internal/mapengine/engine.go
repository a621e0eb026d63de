package mapengine

import "errors"

// ErrEngineNotReady возвращается, когда карта на стороне дашборда ещё не готова
// принимать команды (нет подключённых клиентов).
var ErrEngineNotReady = errors.New("map engine is not ready")

// Coordinates - географические координаты точки на карте
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// FlyToOptions - параметры анимированного перелёта камеры
type FlyToOptions struct {
	Zoom       float64 `json:"zoom"`
	Bearing    float64 `json:"bearing"`
	Pitch      float64 `json:"pitch"`
	DurationMs int64   `json:"duration_ms"`
}

// MarkerContent - содержимое всплывающей подсказки маркера
type MarkerContent struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// MarkerRef - непрозрачная ссылка на созданный движком маркер
type MarkerRef struct {
	Key string
}

// MapEngine определяет узкий контракт карты как внешнего разделяемого ресурса.
// Логика оркестрации не знает, чем карта отрисована: в тестах подставляется фейк.
type MapEngine interface {
	AddMarker(key string, coords Coordinates, content MarkerContent) (MarkerRef, error)
	// RemoveMarker идемпотентен: удаление уже удалённого маркера не ошибка.
	RemoveMarker(ref MarkerRef)
	FlyTo(coords Coordinates, opts FlyToOptions)
	AddLayer(id string, kind string, payload any) error
	RemoveLayer(id string)
}

// AudioPlayer воспроизводит звуковые сигналы на дашборде.
// Один и тот же тип сигнала не должен звучать дважды одновременно,
// разные типы могут накладываться.
type AudioPlayer interface {
	PlayCue(cue string) error
}
