package escrowfx

import (
	"go.uber.org/fx"

	"craftly/internal/api/controllers"
	"craftly/internal/gateway"
	"craftly/internal/repositories"
	"craftly/internal/services"
	"craftly/pkg/utils"
)

var Module = fx.Provide(
	services.NewFeeSplitService,
	provideEscrowService,
	services.NewOrderQueryService,
	provideOrderController,
)

func provideEscrowService(
	orderRepo repositories.OrderRepositoryInterface,
	disputeRepo repositories.DisputeRepositoryInterface,
	gw gateway.Client,
	fees services.FeeSplitService,
	mail services.IMailService,
) services.EscrowService {
	cfg := services.EscrowConfig{
		HoldDays: utils.GetEnvInt("ESCROW_HOLD_DAYS", 7),
	}
	return services.NewEscrowService(orderRepo, disputeRepo, gw, fees, mail, cfg)
}

func provideOrderController(orderService services.OrderQueryService, escrowService services.EscrowService) *controllers.OrderController {
	return controllers.NewOrderController(orderService, escrowService)
}
