package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"

	gateway "github.com/gatherbot/gather/internal/adapters/gateway/telegram"
	opshttp "github.com/gatherbot/gather/internal/adapters/handler/http"
	handler "github.com/gatherbot/gather/internal/adapters/handler/telegram"
	repo "github.com/gatherbot/gather/internal/adapters/repository/postgres"
	"github.com/gatherbot/gather/internal/config"
	"github.com/gatherbot/gather/internal/core/services"
)

func main() {
	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.DB.ConnString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Bot %s started", botAPI.Self.UserName)

	pollRepo := repo.NewPollRepository(db)
	messageGateway := gateway.NewGateway(botAPI)
	syncSvc := services.NewSyncService(pollRepo, messageGateway)
	interactionSvc := services.NewInteractionService(pollRepo, messageGateway, syncSvc)
	botHandler := handler.NewHandler(botAPI, interactionSvc)

	server := &stdhttp.Server{Addr: cfg.OpsAddr, Handler: opshttp.NewHandler(db)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go botHandler.Run(ctx)

	<-ctx.Done()
	fmt.Println("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
