package checkoutfx

import (
	"go.uber.org/fx"

	"craftly/internal/api/controllers"
	"craftly/internal/gateway"
	"craftly/internal/repositories"
	"craftly/internal/services"
	"craftly/pkg/utils"
)

var Module = fx.Provide(
	provideCheckoutService, provideCheckoutController,
)

func provideCheckoutService(
	gigRepo repositories.GigRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	accountRepo repositories.SellerAccountRepositoryInterface,
	gw gateway.Client,
	fees services.FeeSplitService,
) services.CheckoutService {
	cfg := services.CheckoutConfig{
		FeePercent: utils.GetEnvInt("PLATFORM_FEE_PERCENT", 15),
		MinAmount:  utils.GetEnvInt64("MIN_ORDER_AMOUNT", 100),
		MaxAmount:  utils.GetEnvInt64("MAX_ORDER_AMOUNT", 25000),
		Currency:   utils.GetEnv("CURRENCY", "eur"),
	}
	return services.NewCheckoutService(gigRepo, orderRepo, accountRepo, gw, fees, cfg)
}

func provideCheckoutController(checkoutService services.CheckoutService) *controllers.CheckoutController {
	return controllers.NewCheckoutController(checkoutService)
}
