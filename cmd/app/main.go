package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"craftly/cmd/fx/checkoutfx"
	"craftly/cmd/fx/dbfx"
	"craftly/cmd/fx/disputefx"
	"craftly/cmd/fx/escrowfx"
	"craftly/cmd/fx/gatewayfx"
	"craftly/cmd/fx/mailfx"
	"craftly/cmd/fx/payoutfx"
	"craftly/cmd/fx/repositoryfx"
	"craftly/cmd/fx/webhookfx"
	"craftly/internal/api/controllers"
	"craftly/internal/services"
	"craftly/pkg/middleware"
	"craftly/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on process environment")
	}

	app := fx.New(
		dbfx.Module,
		repositoryfx.Module,
		gatewayfx.Module,
		mailfx.Module,
		escrowfx.Module,
		checkoutfx.Module,
		disputefx.Module,
		payoutfx.Module,
		webhookfx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
		fx.Invoke(StartAutoRelease),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := utils.GetEnv("PORT", "8080")
				log.Printf("Starting HTTP server at :%s", port)
				if err := engine.Run(":" + port); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

// StartAutoRelease runs the escrow release sweep on a fixed interval. Each
// tick captures funds for delivered orders whose hold window has expired.
func StartAutoRelease(lc fx.Lifecycle, escrowService services.EscrowService) {
	interval := time.Duration(utils.GetEnvInt("AUTO_RELEASE_INTERVAL_MINUTES", 60)) * time.Minute
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						sweepCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
						if err := escrowService.RunAutoRelease(sweepCtx); err != nil {
							log.Printf("Auto-release sweep failed: %v", err)
						}
						cancel()
					case <-done:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})
}

func ProvideRouter(
	checkoutController *controllers.CheckoutController,
	orderController *controllers.OrderController,
	disputeController *controllers.DisputeController,
	payoutController *controllers.PayoutController,
	webhookController *controllers.WebhookController) *gin.Engine {

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, checkoutController, orderController, disputeController, payoutController, webhookController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	checkoutController *controllers.CheckoutController,
	orderController *controllers.OrderController,
	disputeController *controllers.DisputeController,
	payoutController *controllers.PayoutController,
	webhookController *controllers.WebhookController) {

	// Signature-verified, so outside the JWT middleware.
	r.POST("/webhooks/payment", webhookController.HandleGatewayWebhook)

	authed := r.Group("/", middleware.JWTAuthMiddleware())
	adminOnly := middleware.RoleMiddleware("admin")

	ordersGroup := authed.Group("/orders")
	ordersGroup.POST("/checkout", checkoutController.CreateCheckout)
	ordersGroup.GET("/:id", orderController.GetOrder)
	ordersGroup.POST("/:id/deliver", orderController.SubmitDelivery)
	ordersGroup.POST("/:id/accept-delivery", orderController.AcceptDelivery)
	ordersGroup.POST("/:id/request-revision", orderController.RequestRevision)
	ordersGroup.POST("/:id/cancel", orderController.CancelOrder)
	ordersGroup.POST("/:id/dispute", disputeController.OpenDisputeForOrder)

	disputesGroup := authed.Group("/disputes")
	disputesGroup.POST("", disputeController.OpenDispute)
	disputesGroup.GET("", adminOnly, disputeController.ListAllDisputes)
	disputesGroup.GET("/my", disputeController.ListMyDisputes)
	disputesGroup.GET("/:id", disputeController.GetDispute)
	disputesGroup.POST("/:id/evidence", disputeController.AddEvidence)
	disputesGroup.POST("/:id/escalate", adminOnly, disputeController.Escalate)
	disputesGroup.POST("/:id/resolve", adminOnly, disputeController.Resolve)

	authed.GET("/sellers/:id/earnings", payoutController.GetEarnings)
	authed.POST("/payouts", payoutController.CreatePayout)
	authed.GET("/payouts", payoutController.ListPayouts)

	connectGroup := authed.Group("/sellers/connect")
	connectGroup.POST("", payoutController.CreateConnectAccount)
	connectGroup.GET("/status", payoutController.GetConnectStatus)
	connectGroup.POST("/login-link", payoutController.CreateLoginLink)
}
