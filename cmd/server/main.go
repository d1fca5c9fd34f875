package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/discover-nairobi/internal/catalog"
	"github.com/iliyamo/discover-nairobi/internal/config"
	"github.com/iliyamo/discover-nairobi/internal/database"
	"github.com/iliyamo/discover-nairobi/internal/handler"
	"github.com/iliyamo/discover-nairobi/internal/middleware"
	"github.com/iliyamo/discover-nairobi/internal/payment"
	"github.com/iliyamo/discover-nairobi/internal/queue"
	"github.com/iliyamo/discover-nairobi/internal/repository"
	"github.com/iliyamo/discover-nairobi/internal/router"
	"github.com/iliyamo/discover-nairobi/internal/service"
	"github.com/iliyamo/discover-nairobi/internal/store"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(glog.INFO)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	st := openStore(ctx, cfg, rdb)

	bookings := repository.NewBookingRepo(st)
	organizers := repository.NewOrganizerRepo(st)
	users := repository.NewUserRepo(st)
	tokens := repository.NewTokenRepo(st)
	profiles := repository.NewProfileRepo(st)
	favorites := repository.NewFavoriteRepo(st)

	var remote catalog.Fetcher
	if cfg.Catalog.URL != "" {
		remote = catalog.NewRemote(cfg.Catalog)
	}
	events := catalog.New(organizers, remote, cfg.Catalog.CacheTTL)

	var (
		resolver payment.Resolver
		callback *payment.CallbackGateway
	)
	switch cfg.Payment.Gateway {
	case "callback":
		callback = payment.NewCallbackGateway(cfg.Payment.CallbackTimeout)
		resolver = callback
	default:
		sim := payment.NewSimulatedGateway(cfg.Payment.Timings.ConfirmDelay)
		sim.FailureRate = cfg.Payment.FailureRate
		resolver = sim
	}
	payments := payment.NewManager(resolver, cfg.Payment.Timings)

	var pub service.Publisher = service.NopPublisher{}
	if cfg.AMQPURL != "" {
		pub = service.NewAMQPPublisher(cfg.AMQPURL)
		consumer := &queue.Consumer{URL: cfg.AMQPURL, LogPath: cfg.BookingLogPath}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("booking-consumer stopped: %v", err)
			}
		}()
	}

	bookingSvc := service.NewBookingService(bookings, events, payments, pub)
	organizerSvc := service.NewOrganizerService(organizers, bookings, pub)

	paymentH := handler.NewPaymentHandler(payments, callback, cfg.Payment.WebhookSecret)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	cacheCfg := config.LoadCacheConfig()
	router.RegisterPublic(e, handler.NewEventsHandler(events), paymentH, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterCustomer(e,
		handler.NewBookingHandler(bookingSvc, profiles, users),
		paymentH,
		handler.NewProfileHandler(profiles, favorites, users),
		cfg.JWTSecret)
	router.RegisterOrganizer(e, handler.NewOrganizerHandler(organizerSvc, users), cfg.JWTSecret, middleware.NewCacheBuster(cacheCfg, rdb))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s, payments=%s)", addr, cfg.Env, cfg.StoreDriver, cfg.Payment.Gateway)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// openStore builds the record store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg config.Config, rdb *redis.Client) store.Store {
	switch cfg.StoreDriver {
	case config.StoreRedis:
		if rdb == nil {
			log.Fatal("STORE_DRIVER=redis but redis is unavailable")
		}
		return store.NewRedisStore(rdb, cfg.StorePrefix)
	case config.StoreMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("mysql: %v", err)
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("mysql: %v", err)
		}
		return store.NewMySQLStore(db)
	}
	return store.NewMemoryStore()
}
