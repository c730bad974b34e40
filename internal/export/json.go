package export

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/kodustech/activity-tracker/internal/models"
	"github.com/kodustech/activity-tracker/pkg/utils"

	"github.com/pkg/errors"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	From       string      `json:"from"`
	To         string      `json:"to"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          string `json:"id"`
	Application string `json:"application"`
	Title       string `json:"title"`
	Category    string `json:"category,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	IsIdle      bool   `json:"is_idle"`
	IsBrowser   bool   `json:"is_browser"`
	Day         string `json:"day"`
}

// ToJSON writes an indented document with every activity of r.
func ToJSON(w io.Writer, r models.TimeRange, activities []models.Activity, index map[string]models.Category, loc *time.Location, now time.Time) error {
	export := jsonExport{
		ExportedAt: now.In(loc).Format(time.RFC3339),
		From:       r.Start.In(loc).Format(time.RFC3339),
		To:         r.End.In(loc).Format(time.RFC3339),
		Count:      len(activities),
		Entries:    make([]jsonEntry, 0, len(activities)),
	}

	for _, a := range activities {
		export.Entries = append(export.Entries, jsonEntry{
			ID:          a.ID,
			Application: a.Application,
			Title:       a.Title,
			Category:    categoryName(index, a.Application),
			StartTime:   a.StartTime.In(loc).Format(time.RFC3339),
			EndTime:     a.EndTime.In(loc).Format(time.RFC3339),
			DurationSec: a.Duration(),
			Duration:    utils.FormatDuration(a.Duration()),
			IsIdle:      a.IsIdle,
			IsBrowser:   a.IsBrowser,
			Day:         a.Day,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return errors.Wrap(err, "marshal json")
	}
	return nil
}

// Format names an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", errors.Errorf("unknown export format %q (valid: csv, json)", s)
}

// Write dispatches to ToCSV or ToJSON.
func Write(w io.Writer, format Format, r models.TimeRange, activities []models.Activity, index map[string]models.Category, loc *time.Location, now time.Time) error {
	switch format {
	case FormatCSV:
		return ToCSV(w, activities, index, loc)
	case FormatJSON:
		return ToJSON(w, r, activities, index, loc, now)
	}
	return errors.Errorf("unknown export format %q", format)
}
