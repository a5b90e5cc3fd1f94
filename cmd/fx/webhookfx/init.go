package webhookfx

import (
	"go.uber.org/fx"

	"craftly/internal/api/controllers"
	"craftly/internal/services"
	"craftly/pkg/memcache"
)

var Module = fx.Provide(
	provideEventCache,
	services.NewWebhookService,
	provideWebhookController,
)

func provideEventCache() memcache.EventCache {
	return memcache.NewEventIDCache()
}

func provideWebhookController(webhookService services.WebhookService) *controllers.WebhookController {
	return controllers.NewWebhookController(webhookService)
}
