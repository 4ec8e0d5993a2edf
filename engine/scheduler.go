package engine

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// SweepSchedule is how often expired upload sessions are dropped
const SweepSchedule = "@every 1m"

// InitializeSchedules starts the cron jobs (currently just the session sweep)
func (serverHandler *ServerHandler) InitializeSchedules() error {
	c := cron.New()
	var sweepJob cron.Job
	sweepJob = cron.FuncJob(serverHandler.sweepJobFunc)
	sweepJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(sweepJob)
	if _, err := c.AddJob(SweepSchedule, sweepJob); err != nil {
		Logger.Error("Unable to schedule session sweep", "schedule", SweepSchedule, "error", err)
		return err
	}
	Logger.Info("Adding session sweep scheduler", "schedule", SweepSchedule, "ttl", serverHandler.ServerConfig.SessionTTL.String())
	c.Start()
	serverHandler.cron = c
	return nil
}

// StopSchedules stops the cron jobs and waits for a running sweep to finish
func (serverHandler *ServerHandler) StopSchedules() {
	if serverHandler.cron == nil {
		return
	}
	<-serverHandler.cron.Stop().Done()
	serverHandler.cron = nil
}

func (serverHandler *ServerHandler) sweepJobFunc() {
	removed := serverHandler.Sessions.Sweep()
	if removed > 0 {
		Logger.Info("Expired upload sessions dropped", "count", removed, "remaining", serverHandler.Sessions.Len())
	}
}
