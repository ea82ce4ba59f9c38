// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает периодический отчёт о состоянии сервиса:
// сколько токенов в реестре и как занят пул соединений.
// Очистка токенов сюда не входит: TTL проверяется при погашении и выдаче.
package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// TokenCounter — реестр токенов рулетки.
type TokenCounter interface {
	Len() int
}

// PoolStater — пул соединений БД.
type PoolStater interface {
	Stat() *pgxpool.Stat
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	tokens   TokenCounter
	pool     PoolStater
}

// NewScheduler создаёт планировщик. schedule — cron-выражение или "@every 15m".
func NewScheduler(schedule string, tokens TokenCounter, pool PoolStater) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		schedule: schedule,
		tokens:   tokens,
		pool:     pool,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if ctx.Err() != nil {
			return
		}
		s.Report()
	}); err != nil {
		return fmt.Errorf("некорректное расписание %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.Infof("Планировщик задач запущен (%s)", s.schedule)
	return nil
}

// Report пишет в лог текущее состояние.
func (s *Scheduler) Report() {
	fields := log.Fields{"tokens": s.tokens.Len()}
	if s.pool != nil {
		stat := s.pool.Stat()
		fields["pool_total"] = stat.TotalConns()
		fields["pool_acquired"] = stat.AcquiredConns()
		fields["pool_idle"] = stat.IdleConns()
	}
	log.WithFields(fields).Info("[CRON] Состояние сервиса")
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
