package models

// Stats - агрегированная статистика по инцидентам для виджетов дашборда
type Stats struct {
	ActiveCount int            `json:"active_count"`
	TotalCount  int            `json:"total_count"`
	ByCategory  map[string]int `json:"by_category"`
	ByDistrict  map[string]int `json:"by_district"`
	ByPriority  map[string]int `json:"by_priority"`
}

// TimelineBounds - диапазон лет, покрытый историческими инцидентами
type TimelineBounds struct {
	StartYear int `json:"start_year"`
	EndYear   int `json:"end_year"`
}
