package broadcast

import (
	"time"

	"github.com/scmhub/calendar"
)

// marketHours gates stock polling to NYSE business days. Weekends and
// exchange holidays produce no fresh prices, so polling them only
// burns quote-source budget.
type marketHours struct {
	location *time.Location
	nyse     *calendar.Calendar
}

func newMarketHours(timezone string) *marketHours {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &marketHours{
		location: loc,
		nyse:     calendar.XNYS(),
	}
}

func (m *marketHours) open(t time.Time) bool {
	return m.nyse.IsBusinessDay(t.In(m.location))
}
