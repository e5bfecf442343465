package insight

import (
	"time"

	"github.com/seenimoa/tradewinds/pkg/models"
)

// CalendarSource yields upcoming macro events for the synthesis prompt.
type CalendarSource interface {
	Upcoming(now time.Time) []models.EconomicEvent
}

// StaticCalendar serves a fixed set of recurring macro events with
// dates computed relative to now. A live economic calendar feed can
// replace it behind the same interface.
type StaticCalendar struct{}

// Upcoming returns the scheduled events nearest to now.
func (StaticCalendar) Upcoming(now time.Time) []models.EconomicEvent {
	return []models.EconomicEvent{
		{Event: "Fed Interest Rate Decision", Date: now.AddDate(0, 0, 2).Format("2006-01-02"), Impact: "high"},
		{Event: "US Jobs Report", Date: now.AddDate(0, 0, 5).Format("2006-01-02"), Impact: "medium"},
		{Event: "CPI Inflation Release", Date: now.AddDate(0, 0, 10).Format("2006-01-02"), Impact: "high"},
	}
}
