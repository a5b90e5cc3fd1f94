package gatewayfx

import (
	"log"
	"os"

	"go.uber.org/fx"

	"craftly/internal/gateway"
	"craftly/pkg/utils"
)

var Module = fx.Provide(
	provideGatewayClient, provideWebhookVerifier,
)

func stripeConfig() gateway.StripeConfig {
	return gateway.StripeConfig{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:      utils.GetEnv("CURRENCY", "eur"),
	}
}

func provideGatewayClient() gateway.Client {
	instance, err := gateway.NewStripeGateway(stripeConfig())
	if err != nil {
		log.Fatalf("Error initializing payment gateway: %v", err)
	}
	return instance
}

func provideWebhookVerifier() gateway.Verifier {
	return gateway.NewStripeVerifier(stripeConfig().WebhookSecret)
}
