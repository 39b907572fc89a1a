package ledger

import (
	"context"
	"fmt"
	"sync"
)

// MemorySheet is an in-process Sheet. It backs tests and dry runs.
type MemorySheet struct {
	mu     sync.Mutex
	tabs   map[string]map[int]map[int]string
	fail   error
	writes int
}

var _ Sheet = (*MemorySheet)(nil)

func NewMemorySheet() *MemorySheet {
	return &MemorySheet{tabs: make(map[string]map[int]map[int]string)}
}

// FailWith makes every call return err until it is called again with nil.
func (m *MemorySheet) FailWith(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

// Set stores one cell, creating the tab if needed.
func (m *MemorySheet) Set(tab string, row, col int, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(tab, row, col, value)
}

// Cell returns one cell value.
func (m *MemorySheet) Cell(tab string, row, col int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tabs[tab][row][col]
}

// Writes counts the BatchWrite calls that succeeded.
func (m *MemorySheet) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Snapshot deep-copies the tab contents.
func (m *MemorySheet) Snapshot() map[string]map[int]map[int]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]map[int]map[int]string, len(m.tabs))
	for tab, rows := range m.tabs {
		rc := make(map[int]map[int]string, len(rows))
		for r, cols := range rows {
			cc := make(map[int]string, len(cols))
			for c, v := range cols {
				cc[c] = v
			}
			rc[r] = cc
		}
		out[tab] = rc
	}
	return out
}

func (m *MemorySheet) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.check(ctx)
}

func (m *MemorySheet) ReadColumn(ctx context.Context, tab string, col int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	rows, ok := m.tabs[tab]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTabNotFound, tab)
	}
	last := 0
	for r, cols := range rows {
		if cols[col] != "" && r > last {
			last = r
		}
	}
	out := make([]string, last)
	for r := 1; r <= last; r++ {
		out[r-1] = rows[r][col]
	}
	return out, nil
}

func (m *MemorySheet) ReadRow(ctx context.Context, tab string, row, fromCol, toCol int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	rows, ok := m.tabs[tab]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTabNotFound, tab)
	}
	out := make([]string, 0, toCol-fromCol+1)
	for c := fromCol; c <= toCol; c++ {
		out = append(out, rows[row][c])
	}
	return out, nil
}

func (m *MemorySheet) BatchWrite(ctx context.Context, updates []Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	for _, u := range updates {
		if _, ok := m.tabs[u.Tab]; !ok {
			return fmt.Errorf("%w: %q", ErrTabNotFound, u.Tab)
		}
	}
	for _, u := range updates {
		for i, v := range u.Values {
			m.set(u.Tab, u.Row, u.Col+i, v)
		}
	}
	m.writes++
	return nil
}

func (m *MemorySheet) EnsureTab(ctx context.Context, tab string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	if _, ok := m.tabs[tab]; !ok {
		m.tabs[tab] = make(map[int]map[int]string)
	}
	return nil
}

func (m *MemorySheet) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.fail
}

func (m *MemorySheet) set(tab string, row, col int, value string) {
	rows, ok := m.tabs[tab]
	if !ok {
		rows = make(map[int]map[int]string)
		m.tabs[tab] = rows
	}
	cols, ok := rows[row]
	if !ok {
		cols = make(map[int]string)
		rows[row] = cols
	}
	if value == "" {
		delete(cols, col)
		return
	}
	cols[col] = value
}
