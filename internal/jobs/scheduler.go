// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает единственное расписание: ежедневное напоминание
// сотрудникам, не отметившим статус.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"tabel-bot/internal/common"
	"tabel-bot/internal/features/status"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron          *cron.Cron
	statusService *status.Service
	send          common.SendFunc

	reminderHour   int
	reminderMinute int
}

// NewScheduler создаёт планировщик в рабочем часовом поясе.
// SkipIfStillRunning защищает от наложения запусков при медленной рассылке.
func NewScheduler(statusService *status.Service, loc *time.Location, hour, minute int, send common.SendFunc) *Scheduler {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger()))),
	)

	return &Scheduler{
		cron:           c,
		statusService:  statusService,
		send:           send,
		reminderHour:   hour,
		reminderMinute: minute,
	}
}

// Start регистрирует расписание и запускает планировщик.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("%d %d * * *", s.reminderMinute, s.reminderHour)

	_, err := s.cron.AddFunc(spec, func() {
		log.Info("[CRON] Рассылка напоминаний о статусе")
		sent, failed, err := s.statusService.SendReminders(ctx, s.send)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка рассылки напоминаний")
			return
		}
		log.WithFields(log.Fields{
			"sent":   sent,
			"failed": failed,
		}).Info("[CRON] Напоминания отправлены")
	})
	if err != nil {
		return fmt.Errorf("ошибка регистрации задачи напоминаний: %w", err)
	}

	s.cron.Start()
	log.WithField("spec", spec).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и дожидается активных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
