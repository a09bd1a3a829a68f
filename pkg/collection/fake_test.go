package collection

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aluzed/massive-collections/pkg/types"
)

// fakeConn is an in-memory types.Conn. Structured primitives operate on a
// row map with a serial id; Run answers TRUNCATE and sequence restarts
// itself and returns canned rows for every other statement.
type fakeConn struct {
	mu        sync.Mutex
	rows      map[int64]types.Row
	nextID    int64
	responses map[string][]types.Row
	ran       []string
	finds     int
	runErr    error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		rows:      make(map[int64]types.Row),
		nextID:    1,
		responses: make(map[string][]types.Row),
	}
}

func (f *fakeConn) respond(q string, rows ...types.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[q] = rows
}

func (f *fakeConn) statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ran...)
}

func (f *fakeConn) Run(_ context.Context, q string) ([]types.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ran = append(f.ran, q)
	if f.runErr != nil {
		return nil, f.runErr
	}
	switch q {
	case "TRUNCATE users":
		f.rows = make(map[int64]types.Row)
		return []types.Row{}, nil
	case "ALTER SEQUENCE users_id_seq RESTART":
		f.nextID = 1
		return []types.Row{}, nil
	}
	rows, ok := f.responses[q]
	if !ok {
		return nil, fmt.Errorf("unexpected statement %q", q)
	}
	out := make([]types.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

func (f *fakeConn) Table(string) (types.Table, error) { return f, nil }

func (f *fakeConn) Find(context.Context, types.Conditions, types.FindOptions) ([]types.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finds++
	ids := make([]int64, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]types.Row, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.rows[id].Clone())
	}
	return out, nil
}

func (f *fakeConn) FindOne(_ context.Context, id int64) (types.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].Clone(), nil
}

func (f *fakeConn) Insert(_ context.Context, data types.Row) (types.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row := data.Clone()
	row[types.IDField] = f.nextID
	f.rows[f.nextID] = row
	f.nextID++
	return row.Clone(), nil
}

func (f *fakeConn) Update(_ context.Context, id int64, data types.Row) ([]types.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok {
		return []types.Row{}, nil
	}
	for k, v := range data {
		row[k] = v
	}
	return []types.Row{row.Clone()}, nil
}

func (f *fakeConn) Destroy(_ context.Context, id int64) ([]types.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok {
		return []types.Row{}, nil
	}
	delete(f.rows, id)
	return []types.Row{row}, nil
}
