package alert

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/crime_alerting_system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeIncident(category string, createdAt time.Time) *models.Incident {
	return &models.Incident{
		ID:        uuid.New(),
		Category:  category,
		Priority:  models.PriorityHigh,
		Latitude:  55.75,
		Longitude: 37.61,
		Status:    models.StatusActive,
		CreatedAt: createdAt,
	}
}

func TestStoreIngest_NewActivations(t *testing.T) {
	// Подготовка
	store := NewStore()
	base := time.Now()
	older := activeIncident("robbery", base.Add(-time.Hour))
	newer := activeIncident("assault", base)

	// Действие: newer идет первым, чтобы проверить сортировку
	activated, resolved := store.Ingest([]*models.Incident{newer, older})

	// Проверки: активации отсортированы по CreatedAt asc
	require.Len(t, activated, 2)
	assert.Empty(t, resolved)
	assert.Equal(t, older.ID, activated[0].ID)
	assert.Equal(t, newer.ID, activated[1].ID)
	assert.Equal(t, 2, store.ActiveCount())
}

func TestStoreIngest_DiffAgainstPreviousSet(t *testing.T) {
	// Подготовка
	store := NewStore()
	base := time.Now()
	a := activeIncident("robbery", base.Add(-2*time.Hour))
	b := activeIncident("assault", base.Add(-time.Hour))
	store.Ingest([]*models.Incident{a, b})

	// Действие: a пропал из среза, появился c
	c := activeIncident("arson", base)
	activated, resolved := store.Ingest([]*models.Incident{b, c})

	// Проверки
	require.Len(t, activated, 1)
	assert.Equal(t, c.ID, activated[0].ID)
	require.Len(t, resolved, 1)
	assert.Equal(t, a.ID, resolved[0].ID)
	assert.True(t, store.IsActive(b.ID))
	assert.False(t, store.IsActive(a.ID))
}

func TestStoreIngest_SameSetIsNoop(t *testing.T) {
	// Подготовка
	store := NewStore()
	a := activeIncident("robbery", time.Now())
	store.Ingest([]*models.Incident{a})

	// Действие
	activated, resolved := store.Ingest([]*models.Incident{a})

	// Проверки
	assert.Empty(t, activated)
	assert.Empty(t, resolved)
	assert.Equal(t, 1, store.ActiveCount())
}

func TestStoreIngest_FiltersMalformedRecords(t *testing.T) {
	// Подготовка
	store := NewStore()
	base := time.Now()

	noCoords := activeIncident("theft", base)
	noCoords.Latitude = 0
	noCoords.Longitude = 0

	badCoords := activeIncident("theft", base)
	badCoords.Latitude = 120

	alreadyResolved := activeIncident("theft", base)
	alreadyResolved.Status = models.StatusResolved

	ok := activeIncident("robbery", base)

	// Действие
	activated, resolved := store.Ingest([]*models.Incident{nil, noCoords, badCoords, alreadyResolved, ok})

	// Проверки: до активного набора дошёл только пригодный инцидент
	require.Len(t, activated, 1)
	assert.Equal(t, ok.ID, activated[0].ID)
	assert.Empty(t, resolved)
	assert.Equal(t, 1, store.ActiveCount())
}

func TestStoreResolve(t *testing.T) {
	// Подготовка
	store := NewStore()
	a := activeIncident("robbery", time.Now())
	store.Ingest([]*models.Incident{a})

	// Действие
	got := store.Resolve(a.ID)

	// Проверки
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
	assert.False(t, store.IsActive(a.ID))

	// Повторное разрешение того же id - nil
	assert.Nil(t, store.Resolve(a.ID))
	assert.Nil(t, store.Resolve(uuid.New()))
}

func TestStoreResolveAll(t *testing.T) {
	// Подготовка
	store := NewStore()
	base := time.Now()
	a := activeIncident("robbery", base.Add(-time.Hour))
	b := activeIncident("assault", base)
	store.Ingest([]*models.Incident{b, a})

	// Действие
	resolved := store.ResolveAll()

	// Проверки: набор пуст, разрешённые отсортированы по CreatedAt
	require.Len(t, resolved, 2)
	assert.Equal(t, a.ID, resolved[0].ID)
	assert.Equal(t, b.ID, resolved[1].ID)
	assert.Equal(t, 0, store.ActiveCount())
	assert.Empty(t, store.Active())
}

func TestStoreActive_SortedSnapshot(t *testing.T) {
	// Подготовка
	store := NewStore()
	base := time.Now()
	a := activeIncident("robbery", base.Add(-time.Hour))
	b := activeIncident("assault", base)
	store.Ingest([]*models.Incident{b, a})

	// Действие
	snapshot := store.Active()

	// Проверки
	require.Len(t, snapshot, 2)
	assert.Equal(t, a.ID, snapshot[0].ID)
	assert.Equal(t, b.ID, snapshot[1].ID)
}
