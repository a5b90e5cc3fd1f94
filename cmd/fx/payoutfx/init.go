package payoutfx

import (
	"go.uber.org/fx"

	"craftly/internal/api/controllers"
	"craftly/internal/gateway"
	"craftly/internal/repositories"
	"craftly/internal/services"
	"craftly/pkg/utils"
)

var Module = fx.Provide(
	providePayoutService,
	services.NewConnectService,
	providePayoutController,
)

func providePayoutService(
	payoutRepo repositories.PayoutRepositoryInterface,
	accountRepo repositories.SellerAccountRepositoryInterface,
	gw gateway.Client,
) services.PayoutService {
	cfg := services.PayoutConfig{
		Currency: utils.GetEnv("CURRENCY", "eur"),
	}
	return services.NewPayoutService(payoutRepo, accountRepo, gw, cfg)
}

func providePayoutController(payoutService services.PayoutService, connectService services.ConnectService) *controllers.PayoutController {
	return controllers.NewPayoutController(payoutService, connectService)
}
