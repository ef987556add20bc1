package usecase

import (
	"fmt"
	"strings"
	"time"
)

// scheduleLayout matches the "<day> <Month> at <HH:MM>" tail of a raw
// schedule string, recomposed as "HH:MM day Month year".
const scheduleLayout = "15:04 2 January 2006"

// ScheduleParser normalizes raw schedule text like
// "North London derby / 14 March at 20:00" into an absolute instant.
// The source publishes wall-clock times in its own timezone; parsed times
// are converted to the canonical operating timezone. The year is the
// current year, since the source never prints one.
type ScheduleParser struct {
	source *time.Location
	local  *time.Location
	now    func() time.Time
}

func NewScheduleParser(sourceTZ, localTZ string) (*ScheduleParser, error) {
	source, err := time.LoadLocation(sourceTZ)
	if err != nil {
		return nil, fmt.Errorf("load source timezone %q: %w", sourceTZ, err)
	}
	local, err := time.LoadLocation(localTZ)
	if err != nil {
		return nil, fmt.Errorf("load local timezone %q: %w", localTZ, err)
	}

	return &ScheduleParser{
		source: source,
		local:  local,
		now:    time.Now,
	}, nil
}

// Parse splits the raw text into its description and schedule parts and
// returns the kickoff instant in the canonical timezone.
func (p *ScheduleParser) Parse(raw string) (string, time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", time.Time{}, fmt.Errorf("%w: schedule text is empty", ErrInvalidInput)
	}

	description := ""
	schedule := raw
	if idx := strings.LastIndex(raw, " / "); idx >= 0 {
		description = strings.TrimSpace(raw[:idx])
		schedule = strings.TrimSpace(raw[idx+3:])
	}

	dayMonth, clock, found := strings.Cut(schedule, " at ")
	if !found {
		return "", time.Time{}, fmt.Errorf("%w: schedule %q has no time part", ErrInvalidInput, schedule)
	}

	year := p.now().In(p.source).Year()
	composed := fmt.Sprintf("%s %s %d", strings.TrimSpace(clock), strings.TrimSpace(dayMonth), year)
	start, err := time.ParseInLocation(scheduleLayout, composed, p.source)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: parse schedule %q: %v", ErrInvalidInput, schedule, err)
	}

	return description, start.In(p.local), nil
}
