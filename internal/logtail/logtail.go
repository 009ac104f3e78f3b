package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed JSON log line.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]string
}

// Field returns the named field or "".
func (e Entry) Field(key string) string {
	return e.Fields[key]
}

// Summary renders the entry as a single display line.
func (e Entry) Summary() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Format("15:04:05"))
		b.WriteByte(' ')
	}
	b.WriteString(strings.ToUpper(e.Level))
	b.WriteByte(' ')
	b.WriteString(strings.TrimSpace(strings.TrimPrefix(e.Message, "[composer]")))

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		if k == "op_id" || k == "error" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, e.Fields[k])
	}
	if msg := e.Fields["error"]; msg != "" {
		fmt.Fprintf(&b, " (%s)", msg)
	}
	return b.String()
}

// ParseEntry decodes a JSON log line. Lines that are not JSON objects return
// false.
func ParseEntry(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}

	entry := Entry{Fields: make(map[string]string, len(raw))}
	for key, value := range raw {
		text := fmt.Sprint(value)
		switch key {
		case "time":
			if ts, err := time.Parse(time.RFC3339, text); err == nil {
				entry.Time = ts
			}
		case "level":
			entry.Level = text
		case "msg":
			entry.Message = text
		default:
			entry.Fields[key] = text
		}
	}
	return entry, true
}

// Activity returns the most recent operation entries, oldest first. Only
// entries carrying an op field count; scanning covers the last window lines.
func Activity(path string, limit, window int) ([]Entry, error) {
	lines, err := Read(path, window)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, line := range lines {
		entry, ok := ParseEntry(line)
		if !ok || entry.Field("op") == "" {
			continue
		}
		entries = append(entries, entry)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}
