package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"stylizer/internal/http/handlers"
	httpapi "stylizer/internal/http/httpapi"
	"stylizer/internal/infra"
	"stylizer/internal/payments"
	providerimage "stylizer/internal/providers/image"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	transformer, err := newTransformer(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build image backend")
	}
	logger.Info().Str("backend", cfg.ImageBackend).Msg("image backend selected")

	stripeClient := payments.NewStripeClient(cfg.StripeSecretKey)
	prices := payments.NewPriceTable(cfg.PriceAmountCents)
	checkout := payments.NewCheckout(stripeClient.CheckoutSessions, prices, cfg.FrontendURL, &logger)
	confirmer := payments.NewConfirmer(stripeClient.CheckoutSessions)
	webhook := payments.NewWebhookVerifier(cfg.StripeWebhookSecret, &logger)
	if webhook.Degraded() {
		logger.Warn().Msg("STRIPE_WEBHOOK_SECRET not set, webhook signatures will not be verified")
	}

	app := &handlers.App{
		Config:      cfg,
		Logger:      logger,
		Transformer: transformer,
		Checkout:    checkout,
		Confirmer:   confirmer,
		Webhook:     webhook,
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// newTransformer builds the one backend adapter named by IMAGE_BACKEND.
// LoadConfig already validated that the matching credential is present.
func newTransformer(cfg *infra.Config, logger *infra.Logger) (providerimage.Transformer, error) {
	switch cfg.ImageBackend {
	case infra.BackendGetimg:
		return providerimage.NewGetimgClient(providerimage.GetimgOptions{
			APIKey:         cfg.GetimgAPIKey,
			Logger:         logger,
			RequestTimeout: cfg.ImageBackendTimeout,
		})
	case infra.BackendDalle:
		return providerimage.NewDalleClient(providerimage.DalleOptions{
			APIKey:         cfg.OpenAIAPIKey,
			Logger:         logger,
			RequestTimeout: cfg.ImageBackendTimeout,
		})
	case infra.BackendReplicate:
		return providerimage.NewReplicateClient(providerimage.ReplicateOptions{
			APIToken:       cfg.ReplicateAPIToken,
			Logger:         logger,
			RequestTimeout: cfg.ImageBackendTimeout,
		})
	case infra.BackendOpenAIEdit:
		return providerimage.NewOpenAIEditClient(providerimage.OpenAIEditOptions{
			APIKey:         cfg.OpenAIAPIKey,
			Logger:         logger,
			RequestTimeout: cfg.ImageBackendTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported image backend %q", cfg.ImageBackend)
	}
}
