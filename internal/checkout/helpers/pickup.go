package helpers

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/forrajeria-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// PickupPolicy is the set of rules a pickup slot and order comments must satisfy.
type PickupPolicy struct {
	Location      *time.Location
	OpenMinute    int
	CloseMinute   int
	MaxDaysAhead  int
	ClosedWeekday *time.Weekday
	CommentsMax   int
}

// DefaultPickupPolicy is 08:00 to 18:00, up to 30 days ahead, closed on Sundays.
func DefaultPickupPolicy() PickupPolicy {
	sunday := time.Sunday
	return PickupPolicy{
		Location:      time.UTC,
		OpenMinute:    8 * 60,
		CloseMinute:   18 * 60,
		MaxDaysAhead:  30,
		ClosedWeekday: &sunday,
		CommentsMax:   500,
	}
}

// PolicyFromConfig builds the policy from the storefront settings. Values
// that fail to parse keep the defaults; config.Load already rejects them.
func PolicyFromConfig(cfg config.StorefrontConfig) PickupPolicy {
	policy := DefaultPickupPolicy()
	policy.Location = cfg.Location()
	if m, ok := minuteOfDay(cfg.PickupOpen); ok {
		policy.OpenMinute = m
	}
	if m, ok := minuteOfDay(cfg.PickupClose); ok {
		policy.CloseMinute = m
	}
	if cfg.PickupMaxDaysAhead > 0 {
		policy.MaxDaysAhead = cfg.PickupMaxDaysAhead
	}
	if day, ok := cfg.Weekday(); ok {
		policy.ClosedWeekday = &day
	} else {
		policy.ClosedWeekday = nil
	}
	if cfg.CommentsMaxLength > 0 {
		policy.CommentsMax = cfg.CommentsMaxLength
	}
	return policy
}

// ValidatePickupDate checks date is strictly after today in the store's
// time zone, no further than MaxDaysAhead, and not on the closed weekday.
func (p PickupPolicy) ValidatePickupDate(now time.Time, date string) error {
	loc := p.location()
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return invalidSlot("pickup date must use YYYY-MM-DD", "date")
	}

	local := now.In(loc)
	today := civilDay(local.Year(), local.Month(), local.Day())
	chosen := civilDay(day.Year(), day.Month(), day.Day())
	ahead := int(chosen.Sub(today).Hours() / 24)

	switch {
	case ahead < 1:
		return invalidSlot("pickup date must be after today", "date")
	case ahead > p.MaxDaysAhead:
		return invalidSlot(fmt.Sprintf("pickup date must be within %d days", p.MaxDaysAhead), "date")
	case p.ClosedWeekday != nil && day.Weekday() == *p.ClosedWeekday:
		return invalidSlot(fmt.Sprintf("the store is closed on %s", day.Weekday()), "date")
	}
	return nil
}

// ValidatePickupTime checks value falls within opening hours, both ends inclusive.
func (p PickupPolicy) ValidatePickupTime(value string) error {
	m, ok := minuteOfDay(value)
	if !ok {
		return invalidSlot("pickup time must use HH:MM", "time")
	}
	if m < p.OpenMinute || m > p.CloseMinute {
		return invalidSlot(fmt.Sprintf("pickup time must be between %s and %s",
			formatMinute(p.OpenMinute), formatMinute(p.CloseMinute)), "time")
	}
	return nil
}

// ValidateComments limits comments to CommentsMax characters.
func (p PickupPolicy) ValidateComments(comments string) error {
	if n := utf8.RuneCountInString(comments); p.CommentsMax > 0 && n > p.CommentsMax {
		return pkgerrors.New(pkgerrors.CodeCommentsTooLong,
			fmt.Sprintf("comments must be at most %d characters", p.CommentsMax)).
			WithDetails(map[string]any{"length": n, "max": p.CommentsMax})
	}
	return nil
}

func (p PickupPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

func civilDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func minuteOfDay(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if len(value) != len(TimeLayout) {
		return 0, false
	}
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func invalidSlot(message, field string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidPickupSlot, message).
		WithDetails(map[string]any{"field": field})
}
