package sheetsclient

import (
	"fmt"
	"time"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/roster"
	"github.com/jakechorley/duty-roster/pkg/tabular"
)

// PublishRoster writes a solved roster to a tab named after the week, e.g.
// "Mon Mar 03 2025 - Sun Mar 09 2025". The tab is created if it doesn't
// exist and overwritten if it does. It holds the schedule, the per-doctor
// statistics and the solver summary, separated by a blank row.
func (c *Client) PublishRoster(spreadsheetID string, weekStart time.Time, result *roster.Result) (string, error) {
	tabTitle := generateTabTitle(weekStart)

	values, err := rosterValues(result)
	if err != nil {
		return "", err
	}

	if err := c.EnsureSheet(spreadsheetID, tabTitle); err != nil {
		return "", fmt.Errorf("failed to create tab: %w", err)
	}

	if err := c.ReplaceValues(spreadsheetID, tabTitle, values); err != nil {
		return "", err
	}

	return tabTitle, nil
}

// generateTabTitle creates a tab title in the format "Mon Mar 03 2025 - Sun Mar 09 2025"
func generateTabTitle(weekStart time.Time) string {
	end := weekStart.AddDate(0, 0, model.DaysPerWeek-1)
	return fmt.Sprintf("%s - %s",
		weekStart.Format("Mon Jan 02 2006"),
		end.Format("Mon Jan 02 2006"),
	)
}

// rosterValues lays out the schedule, statistics and summary tables one
// under the other
func rosterValues(result *roster.Result) ([][]interface{}, error) {
	schedule, err := tabular.Encode(result.ScheduleRecords())
	if err != nil {
		return nil, fmt.Errorf("failed to encode schedule: %w", err)
	}
	stats, err := tabular.Encode(result.StatsRecords())
	if err != nil {
		return nil, fmt.Errorf("failed to encode statistics: %w", err)
	}
	summary, err := tabular.Encode([]roster.SummaryRecord{result.SummaryRecord()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode summary: %w", err)
	}

	rows := make([][]string, 0, len(schedule)+len(stats)+len(summary)+2)
	rows = append(rows, schedule...)
	rows = append(rows, []string{})
	rows = append(rows, stats...)
	rows = append(rows, []string{})
	rows = append(rows, summary...)

	return tabular.ToCells(rows), nil
}
