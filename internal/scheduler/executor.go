package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dataround/link/internal/filesync"
	"github.com/dataround/link/internal/jobconfig"
	"github.com/dataround/link/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EngineExecutor renders the engine config for a job and submits it to the
// execution engine's REST endpoint. With no endpoint configured it stores
// the rendered config and marks the instance submitted, which keeps local
// development working without an engine.
type EngineExecutor struct {
	db        *gorm.DB
	submitURL string
	client    *http.Client
}

// NewEngineExecutor builds an executor; submitURL may be empty.
func NewEngineExecutor(db *gorm.DB, submitURL string) *EngineExecutor {
	return &EngineExecutor{
		db:        db,
		submitURL: submitURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Execute renders and submits the job, updating the instance in place.
// File-sync jobs bypass the engine and copy files in-process.
func (e *EngineExecutor) Execute(ctx context.Context, job *models.Job, instance *models.JobInstance) error {
	genCtx, err := e.loadContext(ctx, job)
	if err != nil {
		return err
	}
	if job.JobType == models.JobTypeFileSync {
		return e.executeFileSync(ctx, genCtx, instance)
	}
	config, err := jobconfig.Build(genCtx)
	if err != nil {
		return err
	}

	instance.JobConfig = string(config)
	instance.Status = models.InstanceSubmitted
	if e.submitURL != "" {
		engineJobID, errSubmit := e.submit(ctx, config)
		if errSubmit != nil {
			return errSubmit
		}
		instance.EngineJobID = engineJobID
		instance.Status = models.InstanceRunning
	}
	if errSave := e.db.WithContext(ctx).Save(instance).Error; errSave != nil {
		return fmt.Errorf("save instance %d: %w", instance.ID, errSave)
	}
	log.WithFields(log.Fields{"instance_id": instance.ID, "engine_job_id": instance.EngineJobID}).Info("job submitted")
	return nil
}

// executeFileSync copies the configured files and closes the instance out
// directly: the copy loop is the whole run, so the metrics and the success
// status are known as soon as it returns.
func (e *EngineExecutor) executeFileSync(ctx context.Context, genCtx jobconfig.Context, instance *models.JobInstance) error {
	source, err := fileStore(genCtx.SourceConnector)
	if err != nil {
		return err
	}
	target, err := fileStore(genCtx.TargetConnector)
	if err != nil {
		return err
	}

	result, err := filesync.Run(ctx, source, target, filesync.Options{
		SourcePath:  genCtx.Payload.SourcePath,
		TargetPath:  genCtx.Payload.TargetPath,
		FilePattern: genCtx.Payload.FilePattern,
		Recursive:   genCtx.Payload.IncludeSubdirectories,
	})
	if err != nil {
		return err
	}

	secs := result.Elapsed.Seconds()
	if secs <= 0 {
		secs = 1
	}
	end := time.Now()
	instance.Status = models.InstanceSuccess
	instance.EndTime = &end
	instance.ReadCount = result.ReadCount
	instance.WriteCount = result.WriteCount
	instance.ReadBytes = result.ReadBytes
	instance.WriteBytes = result.WriteBytes
	instance.ReadQPS = float64(result.ReadCount) / secs
	instance.WriteQPS = float64(result.WriteCount) / secs
	if errSave := e.db.WithContext(ctx).Save(instance).Error; errSave != nil {
		return fmt.Errorf("save instance %d: %w", instance.ID, errSave)
	}
	log.WithFields(log.Fields{"instance_id": instance.ID, "files": result.ReadCount}).Info("file sync finished")
	return nil
}

// fileStore maps a connector plugin to a file store implementation.
func fileStore(connector *models.Connector) (filesync.Store, error) {
	switch connector.PluginName {
	case "File-Local":
		return filesync.Local{}, nil
	default:
		return nil, fmt.Errorf("connector %s does not support file sync", connector.Name)
	}
}

// loadContext fetches the connections and connectors the generators need.
func (e *EngineExecutor) loadContext(ctx context.Context, job *models.Job) (jobconfig.Context, error) {
	payload, err := job.ConfigPayload()
	if err != nil {
		return jobconfig.Context{}, fmt.Errorf("job %d config: %w", job.ID, err)
	}

	var sourceConn, targetConn models.Connection
	if errLoad := e.db.WithContext(ctx).First(&sourceConn, payload.SourceConnID).Error; errLoad != nil {
		return jobconfig.Context{}, fmt.Errorf("source connection %d: %w", payload.SourceConnID, errLoad)
	}
	if errLoad := e.db.WithContext(ctx).First(&targetConn, payload.TargetConnID).Error; errLoad != nil {
		return jobconfig.Context{}, fmt.Errorf("target connection %d: %w", payload.TargetConnID, errLoad)
	}

	var sourceConnector, targetConnector models.Connector
	if errLoad := e.db.WithContext(ctx).Where("name = ?", sourceConn.Connector).First(&sourceConnector).Error; errLoad != nil {
		return jobconfig.Context{}, fmt.Errorf("source connector %q: %w", sourceConn.Connector, errLoad)
	}
	if errLoad := e.db.WithContext(ctx).Where("name = ?", targetConn.Connector).First(&targetConnector).Error; errLoad != nil {
		return jobconfig.Context{}, fmt.Errorf("target connector %q: %w", targetConn.Connector, errLoad)
	}

	return jobconfig.Context{
		Job:             job,
		Payload:         payload,
		SourceConn:      &sourceConn,
		TargetConn:      &targetConn,
		SourceConnector: &sourceConnector,
		TargetConnector: &targetConnector,
	}, nil
}

// submit posts the config document and returns the engine-side job ID.
func (e *EngineExecutor) submit(ctx context.Context, config []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.submitURL, bytes.NewReader(config))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit to engine: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("engine returned %d: %s", resp.StatusCode, body)
	}
	var result struct {
		JobID string `json:"jobId"`
	}
	if errParse := json.Unmarshal(body, &result); errParse != nil || result.JobID == "" {
		// Some engine builds answer with a bare ID string.
		return string(bytes.Trim(body, "\" \n")), nil
	}
	return result.JobID, nil
}
