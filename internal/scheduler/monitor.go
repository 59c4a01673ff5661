package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dataround/link/internal/models"
	"github.com/dataround/link/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Monitor finishes job instances. The executor leaves engine-backed
// instances running; the monitor polls the engine's job detail endpoint,
// copies the reported metrics onto the instance, and closes it out as
// success or failure. With no engine configured, submitted instances are
// finished immediately since the rendered config is the whole run.
type Monitor struct {
	db        *gorm.DB
	statusURL string
	client    *http.Client

	stop chan struct{}
	done chan struct{}
}

// NewMonitor builds a monitor; statusURL may be empty for engineless
// deployments.
func NewMonitor(db *gorm.DB, statusURL string) *Monitor {
	return &Monitor{
		db:        db,
		statusURL: strings.TrimRight(statusURL, "/"),
		client:    &http.Client{Timeout: 15 * time.Second},
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the poll loop.
func (m *Monitor) Start() {
	go m.loop()
}

// Stop halts the poll loop and waits for the in-flight sweep.
func (m *Monitor) Stop() {
	close(m.stop)
	<-m.done
}

func (m *Monitor) loop() {
	defer close(m.done)
	for {
		timer := time.NewTimer(pollInterval())
		select {
		case <-m.stop:
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := m.Sweep(context.Background()); err != nil {
			log.WithError(err).Error("instance sweep failed")
		}
	}
}

// pollInterval reads the configured interval from settings on every cycle,
// so operators can change it without a restart. Floor one second.
func pollInterval() time.Duration {
	secs := settings.IntValue(settings.InstancePollIntervalSecondsKey, settings.DefaultInstancePollIntervalSeconds)
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// Sweep runs one poll pass over all unfinished instances.
func (m *Monitor) Sweep(ctx context.Context) error {
	var instances []models.JobInstance
	if err := m.db.WithContext(ctx).
		Where("status IN ?", []models.InstanceStatus{models.InstanceSubmitted, models.InstanceRunning}).
		Find(&instances).Error; err != nil {
		return fmt.Errorf("monitor: load instances: %w", err)
	}

	for i := range instances {
		instance := &instances[i]
		if instance.EngineJobID == "" {
			if m.statusURL == "" {
				m.finishLocal(ctx, instance)
			}
			continue
		}
		detail, err := m.fetchDetail(ctx, instance.EngineJobID)
		if err != nil {
			log.WithError(err).WithField("instance_id", instance.ID).Warn("engine status unavailable")
			continue
		}
		m.apply(ctx, instance, detail)
	}
	return nil
}

// engineJobDetail is the engine's job detail response.
type engineJobDetail struct {
	JobStatus string        `json:"jobStatus"`
	ErrorMsg  string        `json:"errorMsg"`
	Metrics   engineMetrics `json:"metrics"`
}

// engineMetrics aggregates the pipeline counters the engine reports.
type engineMetrics struct {
	SourceReceivedCount int64   `json:"SourceReceivedCount"`
	SinkWriteCount      int64   `json:"SinkWriteCount"`
	SourceReceivedQPS   float64 `json:"SourceReceivedQPS"`
	SinkWriteQPS        float64 `json:"SinkWriteQPS"`
	SourceReceivedBytes int64   `json:"SourceReceivedBytes"`
	SinkWriteBytes      int64   `json:"SinkWriteBytes"`
}

func (m *Monitor) fetchDetail(ctx context.Context, engineJobID string) (engineJobDetail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.statusURL+"/"+engineJobID, nil)
	if err != nil {
		return engineJobDetail{}, fmt.Errorf("build status request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return engineJobDetail{}, fmt.Errorf("fetch job %s: %w", engineJobID, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256<<10))
	if resp.StatusCode != http.StatusOK {
		return engineJobDetail{}, fmt.Errorf("engine returned %d for job %s", resp.StatusCode, engineJobID)
	}
	var detail engineJobDetail
	if errParse := json.Unmarshal(body, &detail); errParse != nil {
		return engineJobDetail{}, fmt.Errorf("parse job %s detail: %w", engineJobID, errParse)
	}
	return detail, nil
}

// apply copies the engine's view onto the instance and persists it.
func (m *Monitor) apply(ctx context.Context, instance *models.JobInstance, detail engineJobDetail) {
	switch strings.ToUpper(detail.JobStatus) {
	case "FINISHED":
		instance.Status = models.InstanceSuccess
	case "FAILED", "CANCELED", "CANCELLING":
		instance.Status = models.InstanceFailure
		if detail.ErrorMsg != "" {
			instance.LogContent = detail.ErrorMsg
		}
	default:
		instance.Status = models.InstanceRunning
	}

	instance.ReadCount = detail.Metrics.SourceReceivedCount
	instance.WriteCount = detail.Metrics.SinkWriteCount
	instance.ReadQPS = detail.Metrics.SourceReceivedQPS
	instance.WriteQPS = detail.Metrics.SinkWriteQPS
	instance.ReadBytes = detail.Metrics.SourceReceivedBytes
	instance.WriteBytes = detail.Metrics.SinkWriteBytes

	if instance.Status != models.InstanceRunning && instance.EndTime == nil {
		end := time.Now()
		instance.EndTime = &end
	}
	if err := m.db.WithContext(ctx).Save(instance).Error; err != nil {
		log.WithError(err).WithField("instance_id", instance.ID).Error("persisting polled instance")
		return
	}
	if instance.Status != models.InstanceRunning {
		log.WithFields(log.Fields{
			"instance_id": instance.ID,
			"status":      instance.Status,
		}).Info("instance finished")
	}
}

// finishLocal closes out an instance that never went to an engine.
func (m *Monitor) finishLocal(ctx context.Context, instance *models.JobInstance) {
	end := time.Now()
	instance.Status = models.InstanceSuccess
	instance.EndTime = &end
	if err := m.db.WithContext(ctx).Save(instance).Error; err != nil {
		log.WithError(err).WithField("instance_id", instance.ID).Error("persisting local instance")
	}
}
