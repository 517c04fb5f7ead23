package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/ulesfyw/fyw-pay/internal/config"
	"github.com/ulesfyw/fyw-pay/internal/database"
	"github.com/ulesfyw/fyw-pay/internal/gateway"
	"github.com/ulesfyw/fyw-pay/internal/handler"
	"github.com/ulesfyw/fyw-pay/internal/mailer"
	"github.com/ulesfyw/fyw-pay/internal/queue"
	"github.com/ulesfyw/fyw-pay/internal/repository"
	"github.com/ulesfyw/fyw-pay/internal/router"
	"github.com/ulesfyw/fyw-pay/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis may be absent; rate limiting and caching then pass through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	packageRepo := repository.NewPackageRepo(db)
	studentRepo := repository.NewStudentRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	eventRepo := repository.NewWebhookEventRepo(db)

	var gw gateway.Client
	switch cfg.PaymentGateway {
	case "flutterwave":
		gw = gateway.NewFlutterwaveClient(cfg.FlutterwaveSecretKey)
	default:
		gw = gateway.NewPaystackClient(cfg.PaystackSecretKey)
	}

	invites := service.NewInviteService(cfg.InvitesDir, cfg.AppURL)
	m := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
	})

	studentSvc := service.NewStudentService(studentRepo, packageRepo)
	publish := service.NewSettlementPublisher(cfg.AMQPURL)
	paymentSvc := service.NewPaymentService(paymentRepo, eventRepo, studentRepo, packageRepo, gw, invites, publish)
	adminSvc := service.NewAdminService(
		service.AdminConfig{
			Email:        cfg.AdminEmail,
			PasswordHash: cfg.AdminPasswordHash,
			JWTSecret:    cfg.JWTSecret,
			TokenTTLMin:  cfg.AccessTTLMin,
		},
		studentRepo, studentRepo, packageRepo, paymentRepo, invites, m,
	)

	// Settlement notifications (email + payments log) run off the broker.
	go func() {
		if err := queue.StartSettlementConsumer(cfg.AMQPURL, m); err != nil {
			log.Printf("settlement consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	// Generated invite SVGs are served statically.
	e.Static("/invites", cfg.InvitesDir)

	router.Register(e, router.Handlers{
		Student: &handler.StudentHandler{Students: studentSvc, Packages: packageRepo},
		Payment: &handler.PaymentHandler{Payments: paymentSvc, FrontendURL: cfg.FrontendURL},
		Webhook: &handler.WebhookHandler{
			Payments:              paymentSvc,
			PaystackSecretKey:     cfg.PaystackSecretKey,
			FlutterwaveSecretHash: cfg.FlutterwaveSecretHash,
		},
		Admin: &handler.AdminHandler{Admin: adminSvc, Packages: packageRepo},
	}, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, gateway=%s)", addr, cfg.Env, cfg.PaymentGateway)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
