package disputefx

import (
	"go.uber.org/fx"

	"craftly/internal/api/controllers"
	"craftly/internal/services"
)

var Module = fx.Provide(
	services.NewDisputeService,
	provideDisputeController,
)

func provideDisputeController(disputeService services.DisputeService) *controllers.DisputeController {
	return controllers.NewDisputeController(disputeService)
}
