// Package scheduler triggers saved jobs: cron-scheduled jobs fire through a
// shared cron runner, run-now jobs fire immediately. Every firing records a
// JobInstance row and hands the job to the Executor.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dataround/link/internal/models"
	"github.com/dataround/link/internal/settings"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// cronParser accepts the console's 6-field expressions (seconds first,
// Quartz-style "?" for day fields).
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// ValidateCron reports whether the runner can schedule the expression.
func ValidateCron(expr string) error {
	_, err := cronParser.Parse(expr)
	return err
}

// Executor submits one job execution to the engine and updates the instance
// as it progresses.
type Executor interface {
	Execute(ctx context.Context, job *models.Job, instance *models.JobInstance) error
}

// Scheduler owns the cron runner and the mapping from job IDs to entries.
// Concurrent cron firings are bounded by the SCHEDULER_POOL_SIZE setting,
// sized when the scheduler is built.
type Scheduler struct {
	db       *gorm.DB
	executor Executor
	runner   *cron.Cron
	workers  chan struct{}

	mu      sync.Mutex
	entries map[uint64]cron.EntryID
}

// New constructs a stopped Scheduler.
func New(db *gorm.DB, executor Executor) *Scheduler {
	poolSize := settings.IntValue(settings.SchedulerPoolSizeKey, settings.DefaultSchedulerPoolSize)
	if poolSize < 1 {
		poolSize = 1
	}
	return &Scheduler{
		db:       db,
		executor: executor,
		runner:   cron.New(cron.WithParser(cronParser)),
		workers:  make(chan struct{}, poolSize),
		entries:  make(map[uint64]cron.EntryID),
	}
}

// Start loads every cron-scheduled job from the database, registers it, and
// starts the runner.
func (s *Scheduler) Start(ctx context.Context) error {
	var jobs []models.Job
	if err := s.db.WithContext(ctx).
		Where("schedule_type = ?", models.ScheduleCron).
		Find(&jobs).Error; err != nil {
		return fmt.Errorf("scheduler: load jobs: %w", err)
	}
	for i := range jobs {
		if errSchedule := s.Schedule(&jobs[i]); errSchedule != nil {
			log.WithError(errSchedule).WithField("job_id", jobs[i].ID).Warn("skipping unschedulable job")
		}
	}
	log.WithField("jobs", len(jobs)).Info("scheduler started")
	s.runner.Start()
	return nil
}

// Stop halts the runner and waits for in-flight firings.
func (s *Scheduler) Stop() {
	ctx := s.runner.Stop()
	<-ctx.Done()
}

// Schedule registers (or re-registers) a job's cron trigger. Jobs without a
// cron schedule are only deregistered. Saving a job calls this so edits take
// effect without a restart.
func (s *Scheduler) Schedule(job *models.Job) error {
	s.Remove(job.ID)
	if job.ScheduleType != models.ScheduleCron {
		return nil
	}
	if err := ValidateCron(job.Cron); err != nil {
		return fmt.Errorf("scheduler: job %d cron %q: %w", job.ID, job.Cron, err)
	}

	jobID := job.ID
	entryID, err := s.runner.AddFunc(job.Cron, func() {
		s.fire(jobID)
	})
	if err != nil {
		return fmt.Errorf("scheduler: job %d: %w", jobID, err)
	}

	s.mu.Lock()
	s.entries[jobID] = entryID
	s.mu.Unlock()
	return nil
}

// Remove deregisters a job's trigger, if any.
func (s *Scheduler) Remove(jobID uint64) {
	s.mu.Lock()
	entryID, ok := s.entries[jobID]
	if ok {
		delete(s.entries, jobID)
	}
	s.mu.Unlock()
	if ok {
		s.runner.Remove(entryID)
	}
}

// Scheduled reports whether a job currently has a registered trigger.
func (s *Scheduler) Scheduled(jobID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[jobID]
	return ok
}

// RunNow executes a job immediately, returning the created instance.
func (s *Scheduler) RunNow(ctx context.Context, jobID, userID uint64) (*models.JobInstance, error) {
	var job models.Job
	if err := s.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		return nil, fmt.Errorf("scheduler: job %d: %w", jobID, err)
	}
	return s.execute(ctx, &job, userID)
}

// fire is the cron callback: it re-reads the job, honors the validity
// window, and runs it. A firing waits for a worker slot, so at most
// pool-size cron executions run at once; interactive RunNow calls are not
// throttled.
func (s *Scheduler) fire(jobID uint64) {
	s.workers <- struct{}{}
	defer func() { <-s.workers }()

	ctx := context.Background()
	var job models.Job
	if err := s.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		log.WithError(err).WithField("job_id", jobID).Error("fired job no longer loadable")
		return
	}

	now := time.Now()
	if job.StartTime != nil && now.Before(*job.StartTime) {
		log.WithField("job_id", jobID).Debug("skipping firing before validity window")
		return
	}
	if job.EndTime != nil && now.After(*job.EndTime) {
		log.WithField("job_id", jobID).Info("validity window passed, removing trigger")
		s.Remove(jobID)
		return
	}

	if _, err := s.execute(ctx, &job, job.CreateBy); err != nil {
		log.WithError(err).WithField("job_id", jobID).Error("scheduled execution failed")
	}
}

// execute records a running instance and hands it to the executor. Executor
// failures mark the instance failed and keep the error text for the
// instance log view.
func (s *Scheduler) execute(ctx context.Context, job *models.Job, userID uint64) (*models.JobInstance, error) {
	now := time.Now()
	instance := &models.JobInstance{
		JobID:     job.ID,
		ProjectID: job.ProjectID,
		Status:    models.InstanceRunning,
		StartTime: &now,
		UpdateBy:  userID,
	}
	if err := s.db.WithContext(ctx).Create(instance).Error; err != nil {
		return nil, fmt.Errorf("scheduler: create instance: %w", err)
	}
	log.WithFields(log.Fields{"job_id": job.ID, "instance_id": instance.ID}).Info("executing job")

	if err := s.executor.Execute(ctx, job, instance); err != nil {
		end := time.Now()
		instance.Status = models.InstanceFailure
		instance.EndTime = &end
		instance.LogContent = err.Error()
		if errSave := s.db.WithContext(ctx).Save(instance).Error; errSave != nil {
			log.WithError(errSave).Error("persisting failed instance")
		}
		return instance, fmt.Errorf("scheduler: execute job %d: %w", job.ID, err)
	}
	return instance, nil
}
