package view

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-admingen/pkg/field"
)

var (
	richTextOnce   sync.Once
	richTextPolicy *bluemonday.Policy

	plainTextOnce   sync.Once
	plainTextPolicy *bluemonday.Policy
)

// sanitize keeps the markup of user-generated rich text and drops everything
// that could script the page.
func sanitize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	richTextOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		richTextPolicy = policy
	})
	return richTextPolicy.Sanitize(raw)
}

func stripTags(raw string) string {
	plainTextOnce.Do(func() {
		plainTextPolicy = bluemonday.StrictPolicy()
	})
	return plainTextPolicy.Sanitize(raw)
}

// formatValue renders a raw attribute as form and display text.
func formatValue(kind field.Kind, value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		switch kind {
		case field.KindDate:
			return v.Format(time.DateOnly)
		case field.KindDateTime:
			return v.Format("2006-01-02T15:04")
		default:
			return v.Format(time.RFC3339)
		}
	case *time.Time:
		if v == nil {
			return ""
		}
		return formatValue(kind, *v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// truthy reads the boolean encodings drivers hand back.
func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	case []byte:
		return truthy(string(v))
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}
