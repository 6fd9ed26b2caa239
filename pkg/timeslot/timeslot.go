// Package timeslot normalizes date-keyed time-slot schedules. Slots are
// 12-hour clock strings such as "9:00 AM"; a schedule maps a calendar-date
// string to the slots bookable on that date.
package timeslot

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Schedule is the canonical schedule representation used throughout the
// system: calendar date -> ordered, deduplicated slot strings. It marshals
// with date keys sorted so clients always receive a stable plain mapping.
type Schedule map[string][]string

// TimeToMinutes converts a "<h>:<mm> <AM|PM>" slot string to minutes since
// midnight. The hour is taken modulo 12 and 12 is added for a PM suffix
// (case-insensitive), so "12:00 AM" is 0 and "12:00 PM" is 720. Missing or
// unparseable pieces count as zero rather than failing.
func TimeToMinutes(slot string) int {
	fields := strings.SplitN(slot, " ", 2)
	clock := fields[0]
	var ampm string
	if len(fields) > 1 {
		ampm = fields[1]
	}

	var hh, mm int
	parts := strings.SplitN(clock, ":", 2)
	hh, _ = strconv.Atoi(parts[0])
	if len(parts) > 1 {
		mm, _ = strconv.Atoi(parts[1])
	}

	h := hh % 12
	if strings.EqualFold(strings.TrimSpace(ampm), "PM") {
		h += 12
	}
	return h*60 + mm
}

// Normalize returns a copy of s with, per date, duplicate slot strings
// removed (exact string equality; differently formatted spellings of the
// same time are kept) and the remainder sorted ascending by
// TimeToMinutes with stable order for ties.
func Normalize(s Schedule) Schedule {
	out := make(Schedule, len(s))
	for date, slots := range s {
		seen := make(map[string]struct{}, len(slots))
		uniq := make([]string, 0, len(slots))
		for _, slot := range slots {
			if _, ok := seen[slot]; ok {
				continue
			}
			seen[slot] = struct{}{}
			uniq = append(uniq, slot)
		}
		sort.SliceStable(uniq, func(i, j int) bool {
			return TimeToMinutes(uniq[i]) < TimeToMinutes(uniq[j])
		})
		out[date] = uniq
	}
	return out
}

// Parse converts raw schedule input into a normalized Schedule. It accepts
// nil, a JSON-encoded string or byte slice, or an already-structured
// mapping. Input that fails to parse yields an empty schedule rather than
// an error: malformed client payloads degrade to "no slots" by policy
// instead of rejecting the surrounding request.
func Parse(raw interface{}) Schedule {
	switch v := raw.(type) {
	case nil:
		return Schedule{}
	case Schedule:
		return Normalize(v)
	case map[string][]string:
		return Normalize(Schedule(v))
	case string:
		return parseJSON([]byte(v))
	case []byte:
		return parseJSON(v)
	case json.RawMessage:
		return parseJSON(v)
	case map[string]interface{}:
		return Normalize(fromUntyped(v))
	default:
		return Schedule{}
	}
}

func parseJSON(data []byte) Schedule {
	if len(data) == 0 {
		return Schedule{}
	}
	var untyped map[string]interface{}
	if err := json.Unmarshal(data, &untyped); err != nil {
		return Schedule{}
	}
	return Normalize(fromUntyped(untyped))
}

// fromUntyped keeps only date entries whose value is a sequence of strings;
// anything else is dropped, not treated as an error.
func fromUntyped(m map[string]interface{}) Schedule {
	s := make(Schedule, len(m))
	for date, v := range m {
		list, ok := v.([]interface{})
		if !ok {
			if typed, ok := v.([]string); ok {
				s[date] = typed
			}
			continue
		}
		slots := make([]string, 0, len(list))
		valid := true
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				valid = false
				break
			}
			slots = append(slots, str)
		}
		if valid {
			s[date] = slots
		}
	}
	return s
}

// MarshalJSON emits the schedule as a JSON object with date keys in
// ascending order. An empty or nil schedule marshals as {} rather than null.
func (s Schedule) MarshalJSON() ([]byte, error) {
	dates := make([]string, 0, len(s))
	for date := range s {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var buf strings.Builder
	buf.WriteByte('{')
	for i, date := range dates {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(date)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		slots := s[date]
		if slots == nil {
			slots = []string{}
		}
		val, err := json.Marshal(slots)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return []byte(buf.String()), nil
}

// UnmarshalJSON accepts any JSON object and keeps only well-formed date
// entries, matching the Parse fail-open behavior for stored values.
func (s *Schedule) UnmarshalJSON(data []byte) error {
	*s = parseJSON(data)
	return nil
}
