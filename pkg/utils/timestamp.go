package utils

import (
	"fmt"
	"time"
)

// Timestamp scans time columns from drivers that return time.Time (pgx)
// as well as drivers that return text (sqlite). Values are normalized to UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *Timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}
