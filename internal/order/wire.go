package order

import (
	"go.uber.org/zap"

	"potracker/internal/classification"
	"potracker/internal/config"
	"potracker/internal/order/controller"
	"potracker/internal/order/service"
	"potracker/internal/order/usecase"
)

// Module is the write side shared by the upload endpoint and the mailbox poller.
type Module struct {
	UseCase    *usecase.SubmitDocumentUseCase
	Controller *controller.DocumentController
}

func NewModule(orderRepo service.OrderRepository, extractor classification.Extractor, cfg *config.Config, logger *zap.Logger) *Module {
	adapter := classification.NewAdapter(extractor, cfg.Extractor.Timeout, logger.Named("classification"))
	lifecycleSvc := service.NewLifecycleService(orderRepo, logger.Named("lifecycle"))

	submitUC := usecase.NewSubmitDocumentUseCase(
		adapter,
		lifecycleSvc,
		logger,
		cfg.Order.MaxRetryAttempts,
	)

	return &Module{
		UseCase:    submitUC,
		Controller: controller.NewDocumentController(submitUC, logger, cfg.Server.UploadMaxBytes),
	}
}
