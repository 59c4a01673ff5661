// Package cronexpr converts between the 6-field cron expressions stored on
// jobs ("second minute hour day month weekday") and the structured schedule
// descriptor the console edits. Only the five frequency patterns the console
// can produce are supported; arbitrary cron syntax is out of scope.
package cronexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// Frequency classifies a schedule descriptor.
type Frequency int

// Frequency constants, ordered from finest to coarsest recurrence.
const (
	// PerMinute fires on selected seconds of every minute.
	PerMinute Frequency = iota + 1
	// PerHour fires on selected minutes of every hour.
	PerHour
	// PerDay fires once a day at a fixed time.
	PerDay
	// PerWeek fires on selected weekdays at a fixed time.
	PerWeek
	// PerMonth fires on selected days of month at a fixed time.
	PerMonth
)

// String returns the frequency name used in logs and API payloads.
func (f Frequency) String() string {
	switch f {
	case PerMinute:
		return "per_minute"
	case PerHour:
		return "per_hour"
	case PerDay:
		return "per_day"
	case PerWeek:
		return "per_week"
	case PerMonth:
		return "per_month"
	default:
		return fmt.Sprintf("frequency(%d)", int(f))
	}
}

// TimeOfDay is the wall-clock firing time for day/week/month schedules.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ScheduleDescriptor is the structured form of a job cron expression. Only
// the fields relevant to Frequency are meaningful; the rest keep defaults so
// the editor can switch frequencies without losing selections.
type ScheduleDescriptor struct {
	Frequency Frequency
	Seconds   []string // "0".."59", PerMinute and PerHour
	Minutes   []string // "0".."59", PerHour
	Weekdays  []string // MON..SUN, PerWeek
	Days      []string // "1".."31", PerMonth
	TimeOfDay TimeOfDay
}

// FormatError reports a cron expression the codec cannot decode.
type FormatError struct {
	Expression string
	Reason     string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cronexpr: %s: %q", e.Reason, e.Expression)
}

// Default returns the descriptor used for empty input and as the base for
// decoding: daily at midnight with single-value selections.
func Default() ScheduleDescriptor {
	return ScheduleDescriptor{
		Frequency: PerDay,
		Seconds:   []string{"0"},
		Minutes:   []string{"0"},
		Weekdays:  []string{"MON"},
		Days:      []string{"1"},
		TimeOfDay: TimeOfDay{},
	}
}

// Decode parses a 6-field cron expression into a descriptor. An empty
// expression yields Default(). Anything that does not split into exactly six
// fields, or whose time fields are not in range, is a *FormatError.
//
// Classification is first-match over the fields, mirroring what Encode
// produces: weekday, then day of month, then hour, minute, second.
func Decode(expr string) (ScheduleDescriptor, error) {
	d := Default()
	if strings.TrimSpace(expr) == "" {
		return d, nil
	}

	// Tolerate ", " inside list fields so "MON, WED" and "MON,WED" decode
	// the same way.
	normalized := strings.ReplaceAll(expr, ", ", ",")
	fields := strings.Fields(normalized)
	if len(fields) != 6 {
		return d, &FormatError{Expression: expr, Reason: fmt.Sprintf("expected 6 fields, got %d", len(fields))}
	}

	second, minute, hour, day, weekday := fields[0], fields[1], fields[2], fields[3], fields[5]

	switch {
	case weekday != "?":
		tod, err := parseTimeOfDay(hour, minute, second, expr)
		if err != nil {
			return d, err
		}
		d.Frequency = PerWeek
		d.Weekdays = strings.Split(weekday, ",")
		d.TimeOfDay = tod
	case day != "*":
		tod, err := parseTimeOfDay(hour, minute, second, expr)
		if err != nil {
			return d, err
		}
		d.Frequency = PerMonth
		d.Days = strings.Split(day, ",")
		d.TimeOfDay = tod
	case hour != "*":
		tod, err := parseTimeOfDay(hour, minute, second, expr)
		if err != nil {
			return d, err
		}
		d.Frequency = PerDay
		d.TimeOfDay = tod
	case minute != "*":
		d.Frequency = PerHour
		d.Minutes = strings.Split(minute, ",")
		d.Seconds = strings.Split(second, ",")
	case second != "*":
		d.Frequency = PerMinute
		d.Seconds = strings.Split(second, ",")
	default:
		// "* * * * * ?" degenerates to the default descriptor.
	}
	return d, nil
}

// Encode serializes a descriptor back into the 6-field cron form. Time
// fields are zero-padded to two digits; Decode accepts both padded and
// unpadded values, so Encode(Decode(expr)) is stable.
func Encode(d ScheduleDescriptor) string {
	fields := []string{"*", "*", "*", "*", "*", "?"}
	switch d.Frequency {
	case PerMinute:
		fields[0] = strings.Join(d.Seconds, ",")
	case PerHour:
		fields[0] = "0"
		fields[1] = strings.Join(d.Minutes, ",")
	case PerDay:
		fields[0] = pad2(d.TimeOfDay.Second)
		fields[1] = pad2(d.TimeOfDay.Minute)
		fields[2] = pad2(d.TimeOfDay.Hour)
	case PerWeek:
		fields[0] = pad2(d.TimeOfDay.Second)
		fields[1] = pad2(d.TimeOfDay.Minute)
		fields[2] = pad2(d.TimeOfDay.Hour)
		fields[5] = strings.Join(d.Weekdays, ",")
	case PerMonth:
		fields[0] = pad2(d.TimeOfDay.Second)
		fields[1] = pad2(d.TimeOfDay.Minute)
		fields[2] = pad2(d.TimeOfDay.Hour)
		fields[3] = strings.Join(d.Days, ",")
	}
	return strings.Join(fields, " ")
}

// parseTimeOfDay reads literal hour/minute/second cron fields. Values may be
// unpadded ("2") or padded ("02").
func parseTimeOfDay(hour, minute, second, expr string) (TimeOfDay, error) {
	h, errH := strconv.Atoi(hour)
	m, errM := strconv.Atoi(minute)
	s, errS := strconv.Atoi(second)
	if errH != nil || errM != nil || errS != nil {
		return TimeOfDay{}, &FormatError{Expression: expr, Reason: "time fields must be numeric"}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		return TimeOfDay{}, &FormatError{Expression: expr, Reason: "time fields out of range"}
	}
	return TimeOfDay{Hour: h, Minute: m, Second: s}, nil
}

func pad2(v int) string {
	return fmt.Sprintf("%02d", v)
}
