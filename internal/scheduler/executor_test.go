package scheduler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dataround/link/internal/mapping"
	"github.com/dataround/link/internal/models"
	"gorm.io/gorm"
)

func seedExecutorFixtures(t *testing.T, conn *gorm.DB) *models.Job {
	t.Helper()
	if err := conn.AutoMigrate(&models.Connection{}, &models.Connector{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	connector := models.Connector{Name: "PostgreSQL", Type: "database", PluginName: "JDBC-PostgreSQL"}
	if err := conn.Create(&connector).Error; err != nil {
		t.Fatalf("seed connector: %v", err)
	}
	source := models.Connection{Name: "shop", Connector: "PostgreSQL", Host: "db1", Port: 5432}
	target := models.Connection{Name: "warehouse", Connector: "PostgreSQL", Host: "db2", Port: 5432}
	if err := conn.Create(&source).Error; err != nil {
		t.Fatalf("seed source: %v", err)
	}
	if err := conn.Create(&target).Error; err != nil {
		t.Fatalf("seed target: %v", err)
	}

	job := &models.Job{Name: "sync", JobType: models.JobTypeBatch, ScheduleType: models.ScheduleNone}
	payload := models.JobConfigPayload{
		SourceConnID: source.ID,
		TargetConnID: target.ID,
		SourceDbName: "shop",
		TargetDbName: "warehouse",
		TableMapping: []mapping.TableMapping{{
			SourceTable: "orders", TargetDbName: "warehouse", TargetTable: "orders_copy",
			FieldMapping: []mapping.FieldMapping{{SourceFieldName: "id", TargetFieldName: "id"}},
		}},
	}
	if err := job.SetConfigPayload(payload); err != nil {
		t.Fatalf("set payload: %v", err)
	}
	if err := conn.Create(job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func TestEngineExecutorSubmits(t *testing.T) {
	conn := setupSchedulerDB(t)
	job := seedExecutorFixtures(t, conn)

	var submitted []byte
	engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		submitted = body
		w.Write([]byte(`{"jobId":"engine-123"}`))
	}))
	defer engine.Close()

	executor := NewEngineExecutor(conn, engine.URL)
	instance := &models.JobInstance{JobID: job.ID}
	if err := conn.Create(instance).Error; err != nil {
		t.Fatalf("seed instance: %v", err)
	}

	if err := executor.Execute(context.Background(), job, instance); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if instance.EngineJobID != "engine-123" {
		t.Fatalf("engine job id = %q", instance.EngineJobID)
	}
	if instance.Status != models.InstanceRunning {
		t.Fatalf("status = %d", instance.Status)
	}

	var doc struct {
		Env map[string]any `json:"env"`
	}
	if errParse := json.Unmarshal(submitted, &doc); errParse != nil {
		t.Fatalf("submitted config: %v (%s)", errParse, submitted)
	}
	if doc.Env["job.mode"] != "BATCH" {
		t.Fatalf("submitted env = %v", doc.Env)
	}

	var stored models.JobInstance
	if err := conn.First(&stored, instance.ID).Error; err != nil {
		t.Fatalf("load instance: %v", err)
	}
	if !strings.Contains(stored.JobConfig, `"job.name"`) {
		t.Fatalf("config not persisted: %s", stored.JobConfig)
	}
}

func seedFileSyncJob(t *testing.T, conn *gorm.DB, srcDir, dstDir string) *models.Job {
	t.Helper()
	if err := conn.AutoMigrate(&models.Connection{}, &models.Connector{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	connector := models.Connector{Name: "LocalFile", Type: "file", PluginName: "File-Local", SupportSource: true, SupportSink: true}
	if err := conn.Create(&connector).Error; err != nil {
		t.Fatalf("seed connector: %v", err)
	}
	source := models.Connection{Name: "landing", Connector: "LocalFile"}
	target := models.Connection{Name: "archive", Connector: "LocalFile"}
	if err := conn.Create(&source).Error; err != nil {
		t.Fatalf("seed source: %v", err)
	}
	if err := conn.Create(&target).Error; err != nil {
		t.Fatalf("seed target: %v", err)
	}

	job := &models.Job{Name: "archive-files", JobType: models.JobTypeFileSync, ScheduleType: models.ScheduleNone}
	payload := models.JobConfigPayload{
		SourceConnID: source.ID,
		TargetConnID: target.ID,
		SourcePath:   srcDir,
		TargetPath:   dstDir,
		FilePattern:  "*.csv",
	}
	if err := job.SetConfigPayload(payload); err != nil {
		t.Fatalf("set payload: %v", err)
	}
	if err := conn.Create(job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func TestEngineExecutorFileSync(t *testing.T) {
	conn := setupSchedulerDB(t)
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "orders.csv"), []byte("1,2\n"), 0o644); err != nil {
		t.Fatalf("write source file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatalf("write source file: %v", err)
	}
	job := seedFileSyncJob(t, conn, srcDir, dstDir)

	executor := NewEngineExecutor(conn, "")
	instance := &models.JobInstance{JobID: job.ID}
	if err := conn.Create(instance).Error; err != nil {
		t.Fatalf("seed instance: %v", err)
	}

	if err := executor.Execute(context.Background(), job, instance); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if instance.Status != models.InstanceSuccess || instance.EndTime == nil {
		t.Fatalf("instance = %+v", instance)
	}
	if instance.ReadCount != 1 || instance.WriteCount != 1 {
		t.Fatalf("counts = %d/%d", instance.ReadCount, instance.WriteCount)
	}
	if instance.ReadBytes != 4 {
		t.Fatalf("read bytes = %d", instance.ReadBytes)
	}

	copied, err := os.ReadFile(filepath.Join(dstDir, "orders.csv"))
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(copied) != "1,2\n" {
		t.Fatalf("copy content = %q", copied)
	}
	if _, err := os.Stat(filepath.Join(dstDir, "notes.txt")); !os.IsNotExist(err) {
		t.Fatalf("notes.txt should not be copied: %v", err)
	}

	var stored models.JobInstance
	if errLoad := conn.First(&stored, instance.ID).Error; errLoad != nil {
		t.Fatalf("load instance: %v", errLoad)
	}
	if stored.Status != models.InstanceSuccess || stored.ReadCount != 1 {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestEngineExecutorFileSyncRejectsTableConnector(t *testing.T) {
	conn := setupSchedulerDB(t)
	job := seedExecutorFixtures(t, conn)
	job.JobType = models.JobTypeFileSync
	if err := conn.Save(job).Error; err != nil {
		t.Fatalf("save job: %v", err)
	}

	executor := NewEngineExecutor(conn, "")
	instance := &models.JobInstance{JobID: job.ID}
	if err := conn.Create(instance).Error; err != nil {
		t.Fatalf("seed instance: %v", err)
	}

	err := executor.Execute(context.Background(), job, instance)
	if err == nil || !strings.Contains(err.Error(), "does not support file sync") {
		t.Fatalf("err = %v", err)
	}
}

func TestEngineExecutorLocalMode(t *testing.T) {
	conn := setupSchedulerDB(t)
	job := seedExecutorFixtures(t, conn)

	executor := NewEngineExecutor(conn, "")
	instance := &models.JobInstance{JobID: job.ID}
	if err := conn.Create(instance).Error; err != nil {
		t.Fatalf("seed instance: %v", err)
	}

	if err := executor.Execute(context.Background(), job, instance); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if instance.Status != models.InstanceSubmitted {
		t.Fatalf("status = %d", instance.Status)
	}
	if instance.JobConfig == "" || instance.EngineJobID != "" {
		t.Fatalf("instance = %+v", instance)
	}
}

func TestEngineExecutorEngineError(t *testing.T) {
	conn := setupSchedulerDB(t)
	job := seedExecutorFixtures(t, conn)

	engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))
	defer engine.Close()

	executor := NewEngineExecutor(conn, engine.URL)
	instance := &models.JobInstance{JobID: job.ID}
	if err := conn.Create(instance).Error; err != nil {
		t.Fatalf("seed instance: %v", err)
	}

	err := executor.Execute(context.Background(), job, instance)
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("err = %v", err)
	}
}
