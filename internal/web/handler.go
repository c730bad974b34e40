package web

import (
	"log"
	"net/http"
	"time"

	"github.com/kodustech/activity-tracker/internal/category"
	"github.com/kodustech/activity-tracker/internal/config"
	"github.com/kodustech/activity-tracker/internal/database"
	"github.com/kodustech/activity-tracker/internal/engine"
	"github.com/kodustech/activity-tracker/internal/merger"
	"github.com/kodustech/activity-tracker/internal/models"
	"github.com/kodustech/activity-tracker/internal/reporter"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Sampler is the live tracker state shown by /api/status. It is nil when the
// server runs without a tracker.
type Sampler interface {
	IsRunning() bool
	Current() *merger.Sample
}

type Handler struct {
	config  *config.Config
	engine  *engine.Engine
	sampler Sampler
}

func NewHandler(cfg *config.Config, e *engine.Engine, sampler Sampler) *Handler {
	return &Handler{
		config:  cfg,
		engine:  e,
		sampler: sampler,
	}
}

func (h *Handler) SetupRoutes(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/activities", h.handleActivities)

		api.GET("/stats/daily", h.handleStats(models.PeriodDay))
		api.GET("/stats/weekly", h.handleStats(models.PeriodWeek))
		api.GET("/stats/monthly", h.handleStats(models.PeriodMonth))
		api.GET("/summary", h.handleSummary)

		api.GET("/categories", h.handleListCategories)
		api.POST("/categories", h.handleAddCategory)
		api.PUT("/categories/:id", h.handleUpdateCategory)
		api.DELETE("/categories/:id", h.handleDeleteCategory)

		api.GET("/app-categories", h.handleListAppCategories)
		api.PUT("/app-categories/:application", h.handleSetAppCategory)
		api.DELETE("/app-categories/:application", h.handleClearAppCategory)
		api.GET("/apps", h.handleApplications)
		api.GET("/apps/uncategorized", h.handleUncategorized)

		api.GET("/goal", h.handleGetGoal)
		api.PUT("/goal", h.handleSetGoal)

		api.GET("/status", h.handleStatus)
	}

	r.GET("/health", h.handleHealth)
}

// GET /api/activities?start=&end=
// Both bounds accept YYYY-MM-DD or RFC 3339; the default is today.
func (h *Handler) handleActivities(c *gin.Context) {
	loc := h.engine.Location()
	today := reporter.DayRange(h.engine.Now(), loc)

	rng := models.TimeRange{Start: today.Start, End: today.End}
	if v := c.Query("start"); v != "" {
		t, err := reporter.ParseDate(v, loc, h.engine.Now())
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		rng.Start = t
		rng.End = reporter.DayRange(t, loc).End
	}
	if v := c.Query("end"); v != "" {
		t, err := reporter.ParseDate(v, loc, h.engine.Now())
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		rng.End = t
	}

	activities, err := h.engine.GetActivities(c.Request.Context(), rng)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": activities})
}

// GET /api/stats/{daily,weekly,monthly}?date=
func (h *Handler) handleStats(periodType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		date, err := reporter.ParseDate(c.Query("date"), h.engine.Location(), h.engine.Now())
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}

		stats, err := h.engine.GetStats(c.Request.Context(), periodType, date)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func (h *Handler) handleSummary(c *gin.Context) {
	summary, err := h.engine.GetTodaySummary(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) handleListCategories(c *gin.Context) {
	categories, err := h.engine.GetCategories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories})
}

type categoryRequest struct {
	Name         string `json:"name" binding:"required"`
	Color        string `json:"color"`
	IsProductive bool   `json:"is_productive"`
}

func (h *Handler) handleAddCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	created, err := h.engine.AddCategory(c.Request.Context(), req.Name, req.Color, req.IsProductive)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) handleUpdateCategory(c *gin.Context) {
	var upd models.CategoryUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	updated, err := h.engine.UpdateCategory(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) handleDeleteCategory(c *gin.Context) {
	if err := h.engine.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleListAppCategories(c *gin.Context) {
	mappings, err := h.engine.GetAppCategories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": mappings})
}

type appCategoryRequest struct {
	CategoryID string `json:"category_id" binding:"required"`
}

func (h *Handler) handleSetAppCategory(c *gin.Context) {
	var req appCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	application := c.Param("application")
	if err := h.engine.SetAppCategory(c.Request.Context(), application, req.CategoryID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AppCategory{Application: application, CategoryID: req.CategoryID})
}

func (h *Handler) handleClearAppCategory(c *gin.Context) {
	if err := h.engine.ClearAppCategory(c.Request.Context(), c.Param("application")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleApplications(c *gin.Context) {
	apps, err := h.engine.GetApplications(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": apps})
}

func (h *Handler) handleUncategorized(c *gin.Context) {
	apps, err := h.engine.GetUncategorizedApps(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": apps})
}

func (h *Handler) handleGetGoal(c *gin.Context) {
	minutes, err := h.engine.GetDailyGoal(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"daily_goal_minutes": minutes})
}

type goalRequest struct {
	Minutes *int64 `json:"daily_goal_minutes" binding:"required"`
}

func (h *Handler) handleSetGoal(c *gin.Context) {
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if err := h.engine.SetDailyGoal(c.Request.Context(), *req.Minutes); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"daily_goal_minutes": *req.Minutes})
}

func (h *Handler) handleStatus(c *gin.Context) {
	status := gin.H{
		"running":                false,
		"poll_interval_seconds":  h.config.GetPollIntervalSeconds(),
		"idle_threshold_seconds": h.config.GetIdleThresholdSeconds(),
		"database_path":          h.config.Database.Path,
		"time_zone":              h.engine.Location().String(),
	}

	if h.sampler != nil {
		status["running"] = h.sampler.IsRunning()
		if cur := h.sampler.Current(); cur != nil {
			status["current"] = gin.H{
				"application": cur.Application,
				"title":       cur.Title,
				"is_idle":     cur.IsIdle,
				"timestamp":   cur.Time.In(h.engine.Location()).Format(time.RFC3339),
			}
		}
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// fail maps an engine error to its HTTP status.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	respondError(c, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, category.ErrInvalid), errors.Is(err, engine.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrStorageIO):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
