package clock

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"
)

// DateLayout is the ISO calendar date format used for days and deadlines.
const DateLayout = "2006-01-02"

// Clock abstracts wall time so "today" can be fixed in tests.
type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed is a settable clock for tests.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (c *Fixed) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Fixed) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *Fixed) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Calendar resolves calendar dates against a single configured time zone.
type Calendar struct {
	clock Clock
	loc   *time.Location
}

func NewCalendar(c Clock, loc *time.Location) *Calendar {
	if c == nil {
		c = System{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{clock: c, loc: loc}
}

// LoadCalendar builds a system calendar for the named IANA zone.
func LoadCalendar(name string) (*Calendar, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return NewCalendar(System{}, loc), nil
}

func (c *Calendar) Location() *time.Location { return c.loc }

// Now returns the wall time in the calendar's zone.
func (c *Calendar) Now() time.Time {
	return c.clock.Now().In(c.loc)
}

// Today returns midnight of the current date in the calendar's zone.
func (c *Calendar) Today() time.Time {
	y, m, d := c.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

func (c *Calendar) TodayISO() string {
	return c.Today().Format(DateLayout)
}

// YearStartISO returns January 1st of the current year.
func (c *Calendar) YearStartISO() string {
	return time.Date(c.Today().Year(), time.January, 1, 0, 0, 0, 0, c.loc).Format(DateLayout)
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
