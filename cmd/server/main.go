package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mesobkitchen/orderdesk/internal/cart"
	"github.com/mesobkitchen/orderdesk/internal/config"
	"github.com/mesobkitchen/orderdesk/internal/geocode"
	"github.com/mesobkitchen/orderdesk/internal/handlers"
	"github.com/mesobkitchen/orderdesk/internal/logging"
	"github.com/mesobkitchen/orderdesk/internal/orderapi"
	"github.com/mesobkitchen/orderdesk/internal/orderevents"
	"github.com/mesobkitchen/orderdesk/internal/orderstore"
	"github.com/mesobkitchen/orderdesk/internal/session"
	httpserver "github.com/mesobkitchen/orderdesk/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	rootCtx := logging.IntoContext(context.Background(), logger)

	store, err := session.OpenStore(configuration.STATE_DB_PATH)
	if err != nil {
		log.Fatalf("state store init failed: %v", err)
	}

	sess := session.New(store)
	apiClient := orderapi.NewClient(configuration.BACKEND_URL, sess)

	// restored tokens get checked in the background, startup never waits
	go sess.ValidateOnStart(rootCtx, apiClient)

	orders := orderstore.New(apiClient)
	storeCtx, stopUpdates := context.WithCancel(rootCtx)
	orders.Start(storeCtx)

	var producer *orderevents.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = orderevents.NewProducer(strings.Split(configuration.KAFKA_ADDRESS, ","))
	}
	var publisher handlers.EventPublisher
	if producer != nil {
		publisher = producer
	}

	geocoder := geocode.NewClient(configuration.GEOCODER_URL)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		Session:       sess,
		AuthHandler:   &handlers.AuthHandler{API: apiClient, Session: sess},
		CartHandler:   &handlers.CartHandler{Cart: cart.New(), API: apiClient, Session: sess, Geocoder: geocoder, Producer: publisher},
		DriverHandler: &handlers.DriverHandler{Store: orders, Producer: publisher},
		WaiterHandler: &handlers.WaiterHandler{Store: orders, Producer: publisher},
		AdminHandler:  &handlers.AdminHandler{API: apiClient, Producer: publisher},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.LISTEN_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	stopUpdates()
	orders.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	if err := store.Close(); err != nil {
		log.Printf("state store close error: %v", err)
	}

	log.Println("shutdown complete")
}
