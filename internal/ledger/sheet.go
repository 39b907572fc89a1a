// Package ledger talks to the spreadsheet that humans keep as the
// authoritative record of shifts, fuel and engine hours.
//
// Sheet is the raw cell transport (Google Sheets or in-memory). Client
// layers the generator's column layout and date-row lookup on top of it.
package ledger

import (
	"context"
	"errors"
)

// ErrTabNotFound is returned by Sheet reads when the named tab does not exist.
var ErrTabNotFound = errors.New("ledger tab not found")

// Update writes Values into consecutive columns of one row, starting at Col.
// Rows and columns are 1-based. Raw values are stored verbatim; others are
// interpreted the way a user typing them would be (numbers, times).
type Update struct {
	Tab    string
	Row    int
	Col    int
	Values []string
	Raw    bool
}

// Sheet is the minimal cell API the generator needs from a spreadsheet.
type Sheet interface {
	// Ping checks that the spreadsheet is reachable.
	Ping(ctx context.Context) error
	// ReadColumn returns the formatted values of one column, top to bottom.
	// Trailing empty cells may be omitted.
	ReadColumn(ctx context.Context, tab string, col int) ([]string, error)
	// ReadRow returns the formatted values of row between fromCol and toCol
	// inclusive. Trailing empty cells may be omitted.
	ReadRow(ctx context.Context, tab string, row, fromCol, toCol int) ([]string, error)
	// BatchWrite applies all updates. It is not required to be atomic.
	BatchWrite(ctx context.Context, updates []Update) error
	// EnsureTab creates tab if it does not exist.
	EnsureTab(ctx context.Context, tab string) error
}

// Unavailable is a Sheet that fails every call with Err. The app runs on it
// when the real backend could not be built, so the breaker takes it offline.
type Unavailable struct {
	Err error
}

func (u Unavailable) Ping(context.Context) error { return u.Err }
func (u Unavailable) ReadColumn(context.Context, string, int) ([]string, error) {
	return nil, u.Err
}
func (u Unavailable) ReadRow(context.Context, string, int, int, int) ([]string, error) {
	return nil, u.Err
}
func (u Unavailable) BatchWrite(context.Context, []Update) error { return u.Err }
func (u Unavailable) EnsureTab(context.Context, string) error { return u.Err }
