package mailfx

import (
	"log"
	"os"

	"go.uber.org/fx"

	"craftly/internal/services"
	"craftly/pkg/utils"
)

var Module = fx.Provide(
	provideMailService,
)

func provideMailService() services.IMailService {
	cfg := services.SMTPConfig{
		Host:       os.Getenv("SMTP_HOST"),
		Port:       utils.GetEnvInt("SMTP_PORT", 587),
		Username:   os.Getenv("SMTP_USERNAME"),
		Password:   os.Getenv("SMTP_PASSWORD"),
		From:       utils.GetEnv("SMTP_FROM", "no-reply@craftly.app"),
		FromName:   utils.GetEnv("SMTP_FROM_NAME", "Craftly"),
		UseSSL:     utils.GetEnvBool("SMTP_USE_SSL", false),
		RequireTLS: utils.GetEnvBool("SMTP_REQUIRE_TLS", true),
		AppName:    utils.GetEnv("APP_NAME", "Craftly"),
		AppBaseURL: utils.GetEnv("APP_BASE_URL", "https://craftly.app"),
	}

	instance, err := services.NewSMTPMailService(cfg)
	if err != nil {
		log.Fatalf("Error initializing mail service: %v", err)
	}
	return instance
}
