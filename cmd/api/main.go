package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/gigfolio/gigfolio-backend/internal/config"
	"github.com/gigfolio/gigfolio-backend/internal/db"
	"github.com/gigfolio/gigfolio-backend/internal/handlers"
	"github.com/gigfolio/gigfolio-backend/internal/models"
	"github.com/gigfolio/gigfolio-backend/internal/realtime"
	"github.com/gigfolio/gigfolio-backend/internal/routes"
	"github.com/gigfolio/gigfolio-backend/internal/services/mailer"
	"github.com/gigfolio/gigfolio-backend/internal/services/payments"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Bid{},
		&models.Assignment{},
		&models.Notification{},
		&models.Chat{},
		&models.Subscription{},
		&models.Review{},
	); err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis not reachable: ", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Static("/uploads", cfg.UploadDir)

	routes.Setup(app, routes.Deps{
		DB:        gdb,
		Hub:       hub,
		RDB:       rdb,
		Stripe:    payments.NewStripeService(cfg.StripeSecretKey),
		Mailer:    mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom),
		JWTSecret: cfg.JWTSecret,
		ExpiresIn: cfg.JWTExpiresMin,

		UploadDir:  cfg.UploadDir,
		AppBaseURL: cfg.AppBaseURL,

		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	})

	stop := make(chan struct{})
	defer close(stop)
	handlers.StartSubscriptionSweeper(gdb, stop)

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
