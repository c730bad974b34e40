// Package category owns every write to the category tables: category CRUD,
// application assignment, and the daily goal preference.
package category

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/kodustech/activity-tracker/internal/database"
	"github.com/kodustech/activity-tracker/internal/models"

	"github.com/pkg/errors"
)

// GoalSettingKey is the settings row holding the daily goal in minutes.
const GoalSettingKey = "daily_goal_minutes"

// ErrInvalid marks malformed input such as an empty name.
var ErrInvalid = errors.New("invalid input")

// Store is the persistence the service needs.
type Store interface {
	Categories(ctx context.Context) ([]models.Category, error)
	CountCategories(ctx context.Context) (int64, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, id string, upd models.CategoryUpdate) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	SetAppCategory(ctx context.Context, application, categoryID string) error
	ClearAppCategory(ctx context.Context, application string) error
	AppCategories(ctx context.Context) ([]models.AppCategory, error)
	UncategorizedApplications(ctx context.Context) ([]string, error)
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Default is a category installed on first run.
type Default struct {
	Name         string
	Color        string
	IsProductive bool
}

// Defaults are seeded into an empty category table.
var Defaults = []Default{
	{Name: "Work", Color: "#4F46E5", IsProductive: true},
	{Name: "Development", Color: "#2563EB", IsProductive: true},
	{Name: "Communication", Color: "#7C3AED", IsProductive: true},
	{Name: "Entertainment", Color: "#DC2626", IsProductive: false},
	{Name: "Social Media", Color: "#EA580C", IsProductive: false},
}

// Service serializes category writes so a seed or rename check and the write
// that follows it see the same set of names.
type Service struct {
	store       Store
	defaultGoal int64

	mu sync.Mutex
}

// NewService returns a Service; defaultGoal is used until a goal is stored.
func NewService(store Store, defaultGoal int64) *Service {
	return &Service{store: store, defaultGoal: defaultGoal}
}

// SeedDefaults installs Defaults when no category exists yet. It returns the
// number of categories created.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.store.CountCategories(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	for i, d := range Defaults {
		c := &models.Category{Name: d.Name, Color: d.Color, IsProductive: d.IsProductive}
		if err := s.store.CreateCategory(ctx, c); err != nil {
			return i, errors.Wrapf(err, "failed to seed category %s", d.Name)
		}
	}
	log.Printf("Seeded %d default categories", len(Defaults))
	return len(Defaults), nil
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.Categories(ctx)
}

// Add creates a category. Names are unique and compared case-sensitively.
func (s *Service) Add(ctx context.Context, name, color string, productive bool) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Wrap(ErrInvalid, "category name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := &models.Category{Name: name, Color: color, IsProductive: productive}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies the set fields of upd.
func (s *Service) Update(ctx context.Context, id string, upd models.CategoryUpdate) (*models.Category, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, errors.Wrap(ErrInvalid, "category name cannot be empty")
		}
		upd.Name = &name
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.UpdateCategory(ctx, id, upd)
}

// Delete removes the category and its application mappings.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.DeleteCategory(ctx, id)
}

// Assign maps application to categoryID; the last assignment wins.
func (s *Service) Assign(ctx context.Context, application, categoryID string) error {
	application = strings.TrimSpace(application)
	if application == "" {
		return errors.Wrap(ErrInvalid, "application cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SetAppCategory(ctx, application, categoryID)
}

// Unassign makes application uncategorized again.
func (s *Service) Unassign(ctx context.Context, application string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ClearAppCategory(ctx, application)
}

func (s *Service) Mappings(ctx context.Context) ([]models.AppCategory, error) {
	return s.store.AppCategories(ctx)
}

func (s *Service) Uncategorized(ctx context.Context) ([]string, error) {
	return s.store.UncategorizedApplications(ctx)
}

// DailyGoal returns the stored goal in minutes, falling back to the default.
func (s *Service) DailyGoal(ctx context.Context) (int64, error) {
	value, ok, err := s.store.GetSetting(ctx, GoalSettingKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return s.defaultGoal, nil
	}
	minutes, err := strconv.ParseInt(value, 10, 64)
	if err != nil || minutes < 0 {
		log.Printf("Ignoring malformed daily goal %q", value)
		return s.defaultGoal, nil
	}
	return minutes, nil
}

// SetDailyGoal stores the goal in minutes.
func (s *Service) SetDailyGoal(ctx context.Context, minutes int64) error {
	if minutes < 0 {
		return errors.Wrap(ErrInvalid, "daily goal cannot be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SetSetting(ctx, GoalSettingKey, strconv.FormatInt(minutes, 10))
}

// compile-time check that the repository satisfies Store
var _ Store = (*database.Repository)(nil)
