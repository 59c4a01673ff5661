package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dataround/link/internal/cronexpr"
	"github.com/dataround/link/internal/db"
	"github.com/dataround/link/internal/mapping"
	"github.com/dataround/link/internal/models"
	"github.com/dataround/link/internal/scheduler"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// JobHandler handles job endpoints.
type JobHandler struct {
	db        *gorm.DB
	scheduler *scheduler.Scheduler
}

// NewJobHandler constructs a JobHandler.
func NewJobHandler(db *gorm.DB, sched *scheduler.Scheduler) *JobHandler {
	return &JobHandler{db: db, scheduler: sched}
}

// listJobsQuery defines query parameters for listing jobs.
type listJobsQuery struct {
	Page    int    `form:"page,default=1"`
	Limit   int    `form:"limit,default=20"`
	Search  string `form:"search"`
	JobType int    `form:"jobType"`
}

// List returns a paginated list of jobs for the active project.
func (h *JobHandler) List(c *gin.Context) {
	var q listJobsQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.Job{}).
		Where("project_id = ?", projectID(c))
	if q.Search != "" {
		query = query.Where(db.CaseInsensitiveLikeExpr(h.db, "name"), db.NormalizeLikePattern(h.db, "%"+q.Search+"%"))
	}
	if q.JobType != 0 {
		query = query.Where("job_type = ?", q.JobType)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	var rows []models.Job
	offset := (q.Page - 1) * q.Limit
	if errFind := query.Order("created_at DESC").Offset(offset).Limit(q.Limit).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list jobs failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  rows,
		"total": total,
		"page":  q.Page,
		"limit": q.Limit,
	})
}

// Get returns one job together with its schedule decoded into the form the
// wizard edits.
func (h *JobHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var row models.Job
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("project_id = ?", projectID(c)).
		First(&row, id).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	response := gin.H{"job": row}
	if row.ScheduleType == models.ScheduleCron {
		descriptor, errDecode := cronexpr.Decode(row.Cron)
		if errDecode == nil {
			response["schedule"] = serializeSchedule(descriptor)
		}
	}
	c.JSON(http.StatusOK, response)
}

// scheduleRequest is the wizard's schedule form. The handler encodes it to
// the stored cron expression; clients that already have an expression send
// cron directly instead.
type scheduleRequest struct {
	Frequency int      `json:"frequency"`
	Seconds   []string `json:"seconds"`
	Minutes   []string `json:"minutes"`
	Weekdays  []string `json:"weekdays"`
	Days      []string `json:"days"`
	Hour      int      `json:"hour"`
	Minute    int      `json:"minute"`
	Second    int      `json:"second"`
}

func (r *scheduleRequest) descriptor() cronexpr.ScheduleDescriptor {
	d := cronexpr.Default()
	d.Frequency = cronexpr.Frequency(r.Frequency)
	if len(r.Seconds) > 0 {
		d.Seconds = r.Seconds
	}
	if len(r.Minutes) > 0 {
		d.Minutes = r.Minutes
	}
	if len(r.Weekdays) > 0 {
		d.Weekdays = r.Weekdays
	}
	if len(r.Days) > 0 {
		d.Days = r.Days
	}
	d.TimeOfDay = cronexpr.TimeOfDay{Hour: r.Hour, Minute: r.Minute, Second: r.Second}
	return d
}

// serializeSchedule converts a descriptor to the wizard's JSON shape.
func serializeSchedule(d cronexpr.ScheduleDescriptor) gin.H {
	return gin.H{
		"frequency": int(d.Frequency),
		"seconds":   d.Seconds,
		"minutes":   d.Minutes,
		"weekdays":  d.Weekdays,
		"days":      d.Days,
		"hour":      d.TimeOfDay.Hour,
		"minute":    d.TimeOfDay.Minute,
		"second":    d.TimeOfDay.Second,
	}
}

// saveJobRequest defines the body for creating or updating a job.
type saveJobRequest struct {
	ID           uint64                  `json:"id"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	JobType      models.JobType          `json:"jobType"`
	ScheduleType models.ScheduleType     `json:"scheduleType"`
	Cron         string                  `json:"cron"`
	Schedule     *scheduleRequest        `json:"schedule"`
	StartTime    *time.Time              `json:"startTime"`
	EndTime      *time.Time              `json:"endTime"`
	Config       models.JobConfigPayload `json:"config"`
}

// Save creates or updates a job, validates its mappings and schedule, and
// registers it with the scheduler. Run-now jobs are triggered immediately
// after save.
func (h *JobHandler) Save(c *gin.Context) {
	var body saveJobRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	switch body.JobType {
	case models.JobTypeBatch, models.JobTypeStream:
		if result := mapping.ValidateCompleteness(body.Config.TableMapping); !result.Valid {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         "incomplete field mapping",
				"invalidTables": result.InvalidTables,
				"invalidFields": result.InvalidFields,
			})
			return
		}
	case models.JobTypeFileSync:
		// File syncs carry paths instead of table mappings.
		if strings.TrimSpace(body.Config.SourcePath) == "" || strings.TrimSpace(body.Config.TargetPath) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing source or target path"})
			return
		}
		if body.Config.SourceConnID == 0 || body.Config.TargetConnID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing source or target connection"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job type"})
		return
	}

	cron := strings.TrimSpace(body.Cron)
	if body.ScheduleType == models.ScheduleCron {
		if cron == "" && body.Schedule != nil {
			cron = cronexpr.Encode(body.Schedule.descriptor())
		}
		if cron == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing cron expression"})
			return
		}
		if _, errDecode := cronexpr.Decode(cron); errDecode != nil {
			var formatErr *cronexpr.FormatError
			if errors.As(errDecode, &formatErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": formatErr.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cron expression"})
			return
		}
		if errCron := scheduler.ValidateCron(cron); errCron != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cron expression"})
			return
		}
	}

	ctx := c.Request.Context()
	userID := operatorID(c)
	var row models.Job
	if body.ID != 0 {
		if errFind := h.db.WithContext(ctx).Where("project_id = ?", projectID(c)).First(&row, body.ID).Error; errFind != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
	} else {
		row.ProjectID = projectID(c)
		row.CreateBy = userID
	}

	row.Name = strings.TrimSpace(body.Name)
	row.Description = body.Description
	row.JobType = body.JobType
	row.ScheduleType = body.ScheduleType
	row.Cron = cron
	row.StartTime = body.StartTime
	row.EndTime = body.EndTime
	row.UpdateBy = userID
	if errConfig := row.SetConfigPayload(body.Config); errConfig != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config"})
		return
	}

	if errSave := h.db.WithContext(ctx).Save(&row).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save job failed"})
		return
	}

	if errSchedule := h.scheduler.Schedule(&row); errSchedule != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register schedule failed"})
		return
	}

	response := gin.H{"job": row}
	if row.ScheduleType == models.ScheduleRunNow {
		instance, errRun := h.scheduler.RunNow(ctx, row.ID, userID)
		if errRun != nil {
			response["executeError"] = errRun.Error()
		}
		if instance != nil {
			response["instanceId"] = instance.ID
		}
	}
	c.JSON(http.StatusOK, response)
}

// Delete removes a job, its trigger and its instances.
func (h *JobHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	ctx := c.Request.Context()
	res := h.db.WithContext(ctx).Where("project_id = ?", projectID(c)).Delete(&models.Job{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete job failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.scheduler.Remove(id)
	h.db.WithContext(ctx).Where("job_id = ?", id).Delete(&models.JobInstance{})
	c.Status(http.StatusNoContent)
}

// Execute triggers an immediate run of a saved job.
func (h *JobHandler) Execute(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	instance, err := h.scheduler.RunNow(c.Request.Context(), id, operatorID(c))
	if err != nil {
		if instance != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "instanceId": instance.ID})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"instanceId": instance.ID, "status": instance.Status})
}

// DecodeCron converts a stored cron expression into the wizard's schedule
// form.
func (h *JobHandler) DecodeCron(c *gin.Context) {
	// body holds the expression to decode.
	var body struct {
		Cron string `json:"cron"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	descriptor, err := cronexpr.Decode(body.Cron)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": serializeSchedule(descriptor)})
}

// EncodeCron converts the wizard's schedule form into a cron expression.
func (h *JobHandler) EncodeCron(c *gin.Context) {
	var body scheduleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cron": cronexpr.Encode(body.descriptor())})
}
