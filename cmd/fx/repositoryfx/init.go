package repositoryfx

import (
	"go.uber.org/fx"

	"craftly/internal/repositories"
)

var Module = fx.Provide(
	repositories.NewGigRepository,
	repositories.NewOrderRepository,
	repositories.NewDisputeRepository,
	repositories.NewPayoutRepository,
	repositories.NewSellerAccountRepository,
	repositories.NewWebhookEventRepository,
)
