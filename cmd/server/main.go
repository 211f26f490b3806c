// main.go
//
// Data, notification and Box services for the DesignSafe-CI portal
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of portal-data.
// portal-data is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// portal-data is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with portal-data.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/designsafe-ci/portal-data/internal/box"
	"github.com/designsafe-ci/portal-data/internal/config"
	"github.com/designsafe-ci/portal-data/internal/database"
	"github.com/designsafe-ci/portal-data/internal/events"
	"github.com/designsafe-ci/portal-data/internal/handlers"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/middleware"
	"github.com/designsafe-ci/portal-data/internal/search"
	"github.com/designsafe-ci/portal-data/internal/services"
	"github.com/designsafe-ci/portal-data/internal/types"
	"github.com/designsafe-ci/portal-data/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	swagger "github.com/gofiber/swagger"

	_ "github.com/designsafe-ci/portal-data/docs/api" // Swagger docs
)

// @title DesignSafe Portal Data API
// @version 1.0.0
// @description Data listings, file operations, notifications and Box.com integration for the DesignSafe-CI portal
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/designsafe-ci/portal-data

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.ValidateServer(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	backend, err := search.NewBackend(cfg.Elastic, log)
	if err != nil {
		log.Fatal("failed to create search client", "error", err)
	}
	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := backend.EnsureIndex(startCtx); err != nil {
		log.Fatal("failed to prepare search index", "index", cfg.Elastic.DefaultIndex, "error", err)
	}
	cancel()
	store := search.NewStore(backend, log)

	notifications := services.NewNotificationService(db, log)
	dispatcher := events.NewDispatcher(log)
	dispatcher.Connect("notifications", notifications.Receiver())

	if cfg.RedisAddr != "" {
		publisher, err := events.NewRedisPublisher(cfg.RedisAddr, cfg.RedisChannel, log)
		if err != nil {
			log.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer publisher.Close()
		dispatcher.Connect("websockets", publisher.Receiver())
	}

	auth := services.NewAuthService(cfg, log)
	agaveClients := services.NewAgaveClients(db, cfg.AgaveBaseURL, cfg.AgaveClientKey, cfg.AgaveClientSecret, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New())
	if cfg.SessionSecret != "" {
		// the authorizer owns its session cookie
		app.Use(encryptcookie.New(encryptcookie.Config{
			Key:    cfg.SessionSecret,
			Except: []string{"cookie_session"},
		}))
	}

	prometheus := fiberprometheus.New("portal_data")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	app.Get("/swagger/*", swagger.HandlerDefault)

	authUser := middleware.AuthUser(auth)

	// Callbacks from the job system carry no session
	notificationsHandler := &handlers.NotificationsHandler{Service: notifications, Events: dispatcher, Log: log}
	webhooksHandler := &handlers.WebhooksHandler{Events: dispatcher, Agave: agaveClients, Log: log}
	app.Post("/webhooks/", webhooksHandler.Generic)

	notify := app.Group("/notifications")
	notify.Post("/jobs/", notificationsHandler.JobWebhook)
	notify.Get("/notifications/", authUser, notificationsHandler.List)
	notify.Get("/unread/", authUser, notificationsHandler.Unread)
	notify.Post("/delete/", authUser, notificationsHandler.Delete)
	notify.Delete("/delete/", authUser, notificationsHandler.Delete)

	if cfg.BoxEnabled() {
		boxHandler := &handlers.BoxHandler{
			Service:  services.NewBoxService(db, box.NewClient(cfg.BoxClientID, cfg.BoxClientSecret, cfg.BoxRedirectURL), log),
			Sessions: session.New(session.Config{CookieHTTPOnly: true, CookieSameSite: "Lax"}),
			Log:      log,
		}
		boxRoutes := app.Group("/box", authUser)
		boxRoutes.Get("/", boxHandler.Index)
		boxRoutes.Get("/initialize/", boxHandler.Initialize)
		boxRoutes.Get("/oauth2/", boxHandler.OAuth2Callback)
		boxRoutes.Get("/disconnect/", boxHandler.DisconnectConfirm)
		boxRoutes.Post("/disconnect/", boxHandler.Disconnect)
	} else {
		log.Info("box integration disabled")
	}

	api := app.Group("/api")

	healthHandler := &handlers.HealthHandler{Config: cfg, DB: db, Search: backend, Log: log}
	api.Get("/health", healthHandler.Health)

	dataHandler := &handlers.DataHandler{Store: store, Log: log}
	data := api.Group("/data", authUser)
	data.Get("/listing/:system/*", dataHandler.Listing)
	data.Get("/search/:system/*", dataHandler.Search)
	data.Post("/files/:system/*", dataHandler.FileAction)

	licensesHandler := &handlers.LicensesHandler{Service: services.NewLicenseService(db)}
	api.Get("/licenses/", authUser, licensesHandler.List)

	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFoundResponse(c, "[404] Resource Not Found")
	})

	log.Info("authorizer will be initialized on first authenticated request", "url", cfg.AuthzURL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("gracefully shutting down")
		_ = app.Shutdown()
	}()

	log.Info("starting server", "port", cfg.Port, "index", cfg.Elastic.DefaultIndex)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("failed to start server", "error", err)
	}
	log.Info("server stopped")
}

// customErrorHandler answers every unhandled error with the standard envelope
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var ce *types.CustomError
	var fe *fiber.Error
	switch {
	case errors.As(err, &ce):
		code, message, errorType = ce.Code, ce.Message, ce.Type
	case errors.As(err, &fe):
		code, message = fe.Code, fe.Message
	}

	return utils.ErrorResponse(c, message, code, errorType)
}
