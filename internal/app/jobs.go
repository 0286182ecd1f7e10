package app

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() error {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		a.log.Warn("timezone config error, using UTC", zap.String("location", a.appConfig.System.Location))
		loc = time.UTC
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	ttl := a.appConfig.Cart.IdleTTL
	_, err = a.sched.AddFunc(a.appConfig.Cart.EvictSchedule, func() {
		a.evictIdleCarts(ttl)
	})
	if err != nil {
		return fmt.Errorf("sched.AddFunc[%s]: %w", a.appConfig.Cart.EvictSchedule, err)
	}

	return nil
}

// evictIdleCarts drops idle stores from memory; their carts stay in storage.
func (a *Application) evictIdleCarts(ttl time.Duration) int {
	n := a.registry.EvictIdle(ttl)
	a.log.Debug("idle cart eviction done", zap.Int("evicted", n), zap.Int("live", a.registry.Len()))
	return n
}

// StartBackgroundJobs starts the scheduler.
func (a *Application) StartBackgroundJobs() {
	a.sched.Start()
}
