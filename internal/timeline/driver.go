package timeline

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State - положение таймлайна: год, месяц и доля месяца.
// SubMonthProgress всегда в [0,1).
type State struct {
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	SubMonthProgress float64 `json:"sub_month_progress"`
	Playing          bool    `json:"playing"`
	Dragging         bool    `json:"dragging"`
}

// Driver превращает непрерывную позицию скраба в дискретную тройку
// (год, месяц, доля месяца) и самостоятельно гонит её вперёд в режиме
// воспроизведения. Перемотка пользователем (drag) приостанавливает
// автономное продвижение, не останавливая кадровый цикл.
type Driver struct {
	startYear int
	endYear   int
	perMonth  time.Duration
	frameRate time.Duration
	logger    *logrus.Logger

	mu       sync.Mutex
	state    State
	lastTick time.Time
	running  bool

	onPlayingChange func(bool)
	onTick          func(State)
}

// NewDriver создает Driver для диапазона [startYear, endYear]
func NewDriver(startYear, endYear int, perMonth, frameRate time.Duration, logger *logrus.Logger) *Driver {
	return &Driver{
		startYear: startYear,
		endYear:   endYear,
		perMonth:  perMonth,
		frameRate: frameRate,
		logger:    logger,
		state: State{
			Year:  startYear,
			Month: 1,
		},
	}
}

// SetOnPlayingChange задает колбэк на смену режима воспроизведения,
// чтобы хост мог приостановить дорогую отрисовку на время скраба
func (d *Driver) SetOnPlayingChange(fn func(bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onPlayingChange = fn
}

// SetOnTick задает колбэк на каждое автономное продвижение
func (d *Driver) SetOnTick(fn func(State)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onTick = fn
}

func (d *Driver) totalRangeMonths() int {
	return (d.endYear - d.startYear + 1) * 12
}

// Run запускает кадровый цикл. Блокируется до отмены контекста;
// отменённый цикл не мутирует состояние.
func (d *Driver) Run(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.lastTick = time.Now()
	d.mu.Unlock()

	ticker := time.NewTicker(d.frameRate)
	defer ticker.Stop()

	d.logger.Info("Timeline frame loop started")
	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			d.running = false
			d.mu.Unlock()
			d.logger.Info("Timeline frame loop stopped")
			return
		case now := <-ticker.C:
			d.frame(now)
		}
	}
}

// frame - один кадр цикла: считает elapsed с прошлого кадра и продвигает
// состояние, если идёт воспроизведение и нет перетаскивания
func (d *Driver) frame(now time.Time) {
	d.mu.Lock()
	delta := now.Sub(d.lastTick)
	d.lastTick = now

	if !d.state.Playing || d.state.Dragging {
		d.mu.Unlock()
		return
	}

	d.advanceLocked(delta)
	st := d.state
	tick := d.onTick
	d.mu.Unlock()

	if tick != nil {
		tick(st)
	}
}

// Advance продвигает состояние на delta реального времени.
// Во время перетаскивания - no-op.
func (d *Driver) Advance(delta time.Duration) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Dragging {
		return d.state
	}
	d.advanceLocked(delta)
	return d.state
}

func (d *Driver) advanceLocked(delta time.Duration) {
	if d.perMonth <= 0 {
		return
	}
	d.state.SubMonthProgress += float64(delta) / float64(d.perMonth)

	// Перенос: месяц -> год, год -> startYear (зацикленное воспроизведение)
	for d.state.SubMonthProgress >= 1 {
		d.state.SubMonthProgress -= 1
		d.state.Month++
		if d.state.Month > 12 {
			d.state.Month = 1
			d.state.Year++
			if d.state.Year > d.endYear {
				d.state.Year = d.startYear
			}
		}
	}
}

// ScrubTo устанавливает позицию по проценту [0,100] линейной интерполяцией.
// В отличие от воспроизведения, скраб на границах зажимается, а не заворачивается.
func (d *Driver) ScrubTo(percent float64) State {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	total := d.totalRangeMonths()
	progressMonths := percent / 100 * float64(total-1)
	whole := math.Floor(progressMonths)

	d.state.Year = d.startYear + int(whole)/12
	d.state.Month = int(whole)%12 + 1
	d.state.SubMonthProgress = progressMonths - whole
	return d.state
}

// ProgressPercent - обратное отображение к ScrubTo, точное с точностью
// до погрешности плавающей точки
func (d *Driver) ProgressPercent() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.progressPercentLocked()
}

func (d *Driver) progressPercentLocked() float64 {
	total := d.totalRangeMonths()
	monthsElapsed := float64((d.state.Year-d.startYear)*12 + (d.state.Month - 1))
	return (monthsElapsed + d.state.SubMonthProgress) / float64(total-1) * 100
}

// Play включает воспроизведение со свежей базой elapsed-времени
func (d *Driver) Play() {
	d.mu.Lock()
	if d.state.Playing {
		d.mu.Unlock()
		return
	}
	d.state.Playing = true
	d.lastTick = time.Now()
	notify := d.onPlayingChange
	d.mu.Unlock()

	if notify != nil {
		notify(true)
	}
}

// Pause останавливает воспроизведение
func (d *Driver) Pause() {
	d.mu.Lock()
	if !d.state.Playing {
		d.mu.Unlock()
		return
	}
	d.state.Playing = false
	notify := d.onPlayingChange
	d.mu.Unlock()

	if notify != nil {
		notify(false)
	}
}

// BeginDrag приостанавливает автономное продвижение на время перетаскивания
func (d *Driver) BeginDrag() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Dragging = true
}

// EndDrag возобновляет продвижение с позиции перетаскивания.
// База elapsed-времени сбрасывается: время, прошедшее до перетаскивания,
// не "досчитывается".
func (d *Driver) EndDrag() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Dragging = false
	d.lastTick = time.Now()
}

// Snapshot возвращает текущее состояние таймлайна
func (d *Driver) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}
