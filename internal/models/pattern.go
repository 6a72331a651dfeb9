package models

// DefaultCapacity используется для интервалов шаблона без явного числа мест.
const DefaultCapacity = 20

// PatternInterval - один интервал недельного шаблона.
// Время в формате "15:04" или "15:04:05".
type PatternInterval struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Capacity  int    `json:"capacity" validate:"gte=0"` // 0 = DefaultCapacity
}

// DayPattern - интервалы занятий для одного дня недели.
// DayOfWeek: 1=понедельник ... 7=воскресенье.
type DayPattern struct {
	DayOfWeek int               `json:"day_of_week" validate:"required,gte=1,lte=7"`
	Intervals []PatternInterval `json:"intervals" validate:"required,min=1,dive"`
}

// WeeklyPattern - типизированный недельный шаблон расписания секции.
// Форма проверяется на границе сервиса, а не внутри генерации.
type WeeklyPattern struct {
	Days []DayPattern `json:"days" validate:"required,min=1,dive"`
}
