// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, каталог, реестр токенов, сервисы,
// обработчики и HTTP-сервер.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/gift-roulette/internal/config"
	"serotonyl.ru/gift-roulette/internal/db/postgres"
	"serotonyl.ru/gift-roulette/internal/features/roulette"
	"serotonyl.ru/gift-roulette/internal/jobs"
	"serotonyl.ru/gift-roulette/internal/server"
	"serotonyl.ru/gift-roulette/internal/telegram/initdata"
)

// App содержит все компоненты приложения.
type App struct {
	Server    *server.Server
	Scheduler *jobs.Scheduler
	Tokens    *roulette.TokenStore
	DB        *pgxpool.Pool
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Каталог кейсов (до БД: битый каталог — сразу выходим) ===
	catalog, err := roulette.LoadCatalog(cfg.RouletteCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки каталога: %w", err)
	}
	log.Infof("Каталог загружен: %v", catalog.Keys())

	selector, err := roulette.NewRandomSelector(catalog)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации ГСЧ: %w", err)
	}

	// === 2. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 3. Рулетка ===
	tokens := roulette.NewTokenStore(cfg.RouletteTokenTTL, nil)
	verifier := initdata.NewVerifier(cfg.TelegramBotToken, cfg.AuthMaxAge, nil)
	repo := roulette.NewRepository(pool)
	service := roulette.NewService(repo, catalog, selector, tokens, verifier)
	handler := roulette.NewHandler(service)

	// === 4. HTTP и планировщик ===
	srv := server.New(cfg, handler, pool)
	scheduler := jobs.NewScheduler(cfg.StatsSchedule, tokens, pool)

	return &App{
		Server:    srv,
		Scheduler: scheduler,
		Tokens:    tokens,
		DB:        pool,
	}, nil
}
