package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/billing"
	"github.com/jhoicas/Ventas-api/internal/application/events"
	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/payment"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/postgres"
	infrapubsub "github.com/jhoicas/Ventas-api/internal/infrastructure/pubsub"
	infraredis "github.com/jhoicas/Ventas-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/Ventas-api/internal/interfaces/http"
	"github.com/jhoicas/Ventas-api/internal/observability/tracing"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: todas las rutas /api responderán 401")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.App, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar tracing")
	}

	// Store: PostgreSQL si está configurado; si no, memoria (desarrollo).
	var (
		uow    repository.UnitOfWork
		reader repository.Repos
	)
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				log.Fatal().Err(err).Msg("aplicar migraciones")
			}
			log.Info().Strs("applied", applied).Msg("migraciones al día")
		}
		uow = postgres.NewTxRunner(pool, log.Component("tx"))
		reader = postgres.NewRepos(pool)
	} else {
		log.Warn().Msg("DB_HOST/DATABASE_URL sin definir: usando store en memoria, los datos no persisten")
		store := memory.NewStore()
		uow = store
		reader = store.Repos()
	}

	// Redis opcional: candado de secuencias e idempotencia.
	var (
		locker fiscal.SequenceLocker
		idem   httpRouter.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible: sin idempotencia ni candado de secuencias")
		} else {
			defer rdb.Close()
			locker = infraredis.NewSequenceLocker(rdb, log.Component("ncf-lock"))
			idem = infraredis.NewIdempotencyStore(rdb)
		}
	}

	taxRate, err := decimal.NewFromString(cfg.Billing.TaxRate)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.Billing.TaxRate).Msg("BILLING_TAX_RATE inválido")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		log.Fatal().Str("value", cfg.Billing.TaxRate).Msg("BILLING_TAX_RATE debe estar entre 0 y 1")
	}
	billingCfg := billing.Config{
		TaxRate:         &taxRate,
		FiscalNumbering: cfg.Billing.FiscalNumbering,
		DefaultNCFType:  cfg.Billing.DefaultNCFType,
		DefaultCurrency: cfg.Billing.DefaultCurrency,
		PaymentTermDays: cfg.Billing.PaymentTermDays,
	}

	allocator := fiscal.NewAllocator(uow, locker, log.Component("fiscal"))
	stockLedger := inventory.NewLedger(log.Component("inventory"))
	invoiceUC := billing.NewInvoiceUseCase(uow, reader, stockLedger, allocator, billingCfg, log.Component("billing"))
	quoteUC := billing.NewQuoteUseCase(uow, reader, billingCfg, log.Component("quotes"))
	paymentLedger := payment.NewLedger(uow, log.Component("payments"))
	sequenceUC := fiscal.NewSequenceUseCase(uow, reader)

	// Outbox: Pub/Sub si hay tópico; si no, los eventos van al log.
	if cfg.Outbox.Enabled {
		var publisher events.Publisher = events.LogPublisher{Log: log.Component("events")}
		if cfg.PubSub.Enabled() {
			ps, err := infrapubsub.NewPublisher(ctx, cfg.PubSub)
			if err != nil {
				log.Fatal().Err(err).Msg("cliente de Pub/Sub")
			}
			defer ps.Close()
			publisher = ps
		}
		dispatcher := events.NewDispatcher(reader.Outbox, publisher, events.DispatcherConfig{
			BatchSize:    cfg.Outbox.BatchSize,
			PollInterval: cfg.Outbox.PollInterval,
			MaxAttempts:  cfg.Outbox.MaxAttempts,
		}, log.Component("outbox"))
		go dispatcher.Run(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.Tracing())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Ventas API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Invoices:    invoiceUC,
		Quotes:      quoteUC,
		Payments:    paymentLedger,
		Sequences:   sequenceUC,
		Reader:      reader,
		Idempotency: idem,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
		Log:         log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de tracing")
	}

	log.Info().Msg("aplicación detenida")
}
