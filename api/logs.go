package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/pcprimedz/dashboard"
	"github.com/pcprimedz/dashboard/querycache"
)

const keyLogs = "logs"

// DefaultPageSize is the activity log page size.
const DefaultPageSize = 15

// Log actions recorded by the backend.
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionConfirm = "CONFIRM"
	ActionShip    = "SHIP"
	ActionCancel  = "CANCEL"
	ActionLogin   = "LOGIN"
	ActionLogout  = "LOGOUT"
	ActionExport  = "EXPORT"
	ActionImport  = "IMPORT"
	ActionOther   = "OTHER"
)

type ActivityLog struct {
	ID         ID     `json:"id"`
	AdminID    ID     `json:"admin_id,omitempty"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   ID     `json:"entity_id"`
	EntityName string `json:"entity_name,omitempty"`
	OldValue   string `json:"old_value,omitempty"`
	NewValue   string `json:"new_value,omitempty"`
	Details    string `json:"details,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

type Logs struct {
	b *base
}

// List returns the activity log. The backend answers with either a bare
// array or an object holding it under "logs" or "data".
func (l *Logs) List(ctx context.Context) ([]ActivityLog, error) {
	return querycache.Fetch(ctx, l.b.cache, keyLogs, func(ctx context.Context) ([]ActivityLog, error) {
		resp, err := l.b.doer.Get(ctx, "/logs")
		if err != nil {
			return nil, err
		}
		if err := dashboard.Expect(resp, "Failed to fetch logs"); err != nil {
			l.b.expired(err)
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read logs: %w", err)
		}
		return decodeLogs(body)
	})
}

func decodeLogs(body []byte) ([]ActivityLog, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	if body[0] != '[' {
		var inner []byte
		for _, key := range []string{"logs", "data"} {
			v, typ, _, err := jsonparser.Get(body, key)
			if err == nil && typ == jsonparser.Array {
				inner = v
				break
			}
		}
		if inner == nil {
			return nil, nil
		}
		body = inner
	}

	var out []ActivityLog
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode logs: %w", err)
	}
	return out, nil
}

// LogFilter narrows an activity log. Empty fields match everything.
type LogFilter struct {
	Search     string
	Action     string
	EntityType string
}

// FilterLogs keeps the entries matching f. Search looks at the entity name,
// the details and the admin id; Action and EntityType compare without case.
func FilterLogs(logs []ActivityLog, f LogFilter) []ActivityLog {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	var out []ActivityLog
	for _, log := range logs {
		if term != "" && !contains(log.EntityName, term) && !contains(log.Details, term) && !strings.Contains(log.AdminID.String(), term) {
			continue
		}
		if f.Action != "" && !strings.EqualFold(log.Action, f.Action) {
			continue
		}
		if f.EntityType != "" && !strings.EqualFold(log.EntityType, f.EntityType) {
			continue
		}
		out = append(out, log)
	}
	return out
}

// Page is one slice of a longer list.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// Paginate returns page (1-based) of items. Pages past the end are empty;
// pageSize <= 0 means DefaultPageSize.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(items)
	p := Page[T]{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: total / pageSize,
	}
	if total%pageSize != 0 {
		p.TotalPages++
	}
	// Compare page counts first; (page-1)*pageSize can overflow.
	if page > p.TotalPages {
		return p
	}
	start := (page - 1) * pageSize
	end := start + min(pageSize, total-start)
	p.Items = items[start:end]
	return p
}
