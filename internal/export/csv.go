// Package export writes stored activities as CSV or JSON.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/kodustech/activity-tracker/internal/models"

	"github.com/pkg/errors"
)

var csvHeader = []string{"ID", "Application", "Title", "Category", "Start", "End", "Duration (s)", "Idle", "Browser", "Day"}

// ToCSV writes one row per activity. Times are RFC 3339 in loc.
func ToCSV(w io.Writer, activities []models.Activity, index map[string]models.Category, loc *time.Location) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	for _, a := range activities {
		row := []string{
			a.ID,
			a.Application,
			a.Title,
			categoryName(index, a.Application),
			a.StartTime.In(loc).Format(time.RFC3339),
			a.EndTime.In(loc).Format(time.RFC3339),
			strconv.FormatInt(a.Duration(), 10),
			strconv.FormatBool(a.IsIdle),
			strconv.FormatBool(a.IsBrowser),
			a.Day,
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}

	cw.Flush()
	return cw.Error()
}

func categoryName(index map[string]models.Category, application string) string {
	if c, ok := index[application]; ok {
		return c.Name
	}
	return ""
}
