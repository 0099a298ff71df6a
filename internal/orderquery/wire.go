package orderquery

import (
	"go.uber.org/zap"

	"potracker/internal/export"
)

func NewModule(repo Repository, logger *zap.Logger) *Controller {
	svc := NewService(repo)
	uc := NewQueryUseCase(svc, export.NewService(logger.Named("export")))
	return NewController(uc, logger)
}
