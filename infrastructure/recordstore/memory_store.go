// infrastructure/recordstore/memory_store.go
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitovidale/video-publisher-service/domain"
)

var errRecordMissing = errors.New("record not found")

// MemoryStore keeps records in process. Used for local runs without the hosted
// service and as the store behind use case tests.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string]any
	nextID map[string]int64
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: map[string]map[string]map[string]any{},
		nextID: map[string]int64{},
		now:    time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, table string, data any, out any) error {
	row, err := toMap(data)
	if err != nil {
		return &domain.StoreError{Op: "create", Table: table, Err: err}
	}
	stripEnvelope(row)

	s.mu.Lock()
	s.nextID[table]++
	ts := s.now().UTC().Format(time.RFC3339Nano)
	row["id"] = s.nextID[table]
	row["uuid"] = uuid.NewString()
	row["version"] = 1
	row["date_created"] = ts
	row["date_updated"] = ts
	if s.tables[table] == nil {
		s.tables[table] = map[string]map[string]any{}
	}
	s.tables[table][row["uuid"].(string)] = row
	snapshot := copyRow(row)
	s.mu.Unlock()

	return decode(snapshot, out)
}

func (s *MemoryStore) GetByUUID(_ context.Context, table, id string, out any) error {
	s.mu.RLock()
	row, ok := s.tables[table][id]
	var snapshot map[string]any
	if ok {
		snapshot = copyRow(row)
	}
	s.mu.RUnlock()

	if !ok {
		return notFound("get", table, id)
	}
	return decode(snapshot, out)
}

func (s *MemoryStore) Query(_ context.Context, table string, opts domain.QueryOptions, out any) error {
	s.mu.RLock()
	rows := make([]map[string]any, 0)
	for _, row := range s.tables[table] {
		if matches(row, opts.Where) {
			rows = append(rows, copyRow(row))
		}
	}
	s.mu.RUnlock()

	field, desc := parseOrderBy(opts.OrderBy)
	if field == "" {
		field = "id"
	}
	sort.SliceStable(rows, func(i, j int) bool {
		less := lessValue(rows[i][field], rows[j][field])
		if desc {
			return lessValue(rows[j][field], rows[i][field])
		}
		return less
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(rows) {
			rows = rows[:0]
		} else {
			rows = rows[opts.Offset:]
		}
	}
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}

	return decode(rows, out)
}

func (s *MemoryStore) Update(ctx context.Context, table, id string, data any, out any) error {
	return s.update(table, id, -1, data, out)
}

func (s *MemoryStore) UpdateVersioned(ctx context.Context, table, id string, expectedVersion int, data any, out any) error {
	return s.update(table, id, expectedVersion, data, out)
}

func (s *MemoryStore) update(table, id string, expectedVersion int, data any, out any) error {
	patch, err := toMap(data)
	if err != nil {
		return &domain.StoreError{Op: "update", Table: table, UUID: id, Err: err}
	}
	stripEnvelope(patch)

	s.mu.Lock()
	row, ok := s.tables[table][id]
	if !ok {
		s.mu.Unlock()
		return notFound("update", table, id)
	}
	current := versionOf(row)
	if expectedVersion >= 0 && current != expectedVersion {
		s.mu.Unlock()
		return &domain.StoreError{
			Op:         "update",
			Table:      table,
			UUID:       id,
			StatusCode: http.StatusPreconditionFailed,
			Err:        fmt.Errorf("expected version %d, found %d", expectedVersion, current),
		}
	}
	for k, v := range patch {
		row[k] = v
	}
	row["version"] = current + 1
	row["date_updated"] = s.now().UTC().Format(time.RFC3339Nano)
	snapshot := copyRow(row)
	s.mu.Unlock()

	return decode(snapshot, out)
}

func (s *MemoryStore) Delete(_ context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[table][id]; !ok {
		return notFound("delete", table, id)
	}
	delete(s.tables[table], id)
	return nil
}

func (s *MemoryStore) Count(_ context.Context, table string, opts domain.QueryOptions) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, row := range s.tables[table] {
		if matches(row, opts.Where) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Exists(ctx context.Context, table, id string) (bool, error) {
	err := s.GetByUUID(ctx, table, id, nil)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func notFound(op, table, id string) error {
	return &domain.StoreError{Op: op, Table: table, UUID: id, StatusCode: http.StatusNotFound, Err: errRecordMissing}
}

func copyRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func versionOf(row map[string]any) int {
	switch v := row["version"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func lessValue(a, b any) bool {
	af, aNum := number(a)
	bf, bNum := number(b)
	if aNum && bNum {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
