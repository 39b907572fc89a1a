package ledger

import (
	"strconv"

	"generator_ledger/internal/models"
)

// Month tab column layout (1-based).
const (
	ColDate         = 1  // A
	ColMorningFuel  = 11 // K
	ColMiddayFuel   = 13 // M
	ColRefuelLiters = 14 // N
	ColEveningFuel  = 15 // O
	ColReceipts     = 16 // P
	ColEngineHours  = 17 // Q
	ColRefuelDriver = 27 // AA
	ColDrivers      = 28 // AB
	ColPersonnel    = 29 // AC
	ColOilService   = 30 // AD
	ColSparkService = 31 // AE

	// Reference lists start below the two header rows.
	referenceFirstRow = 3
	// Shift cells span A..I.
	shiftLastCol = 9
)

type shiftCols struct {
	start, end         int
	startUser, endUser int
}

var shiftLayout = map[models.Shift]shiftCols{
	models.Shift1:     {start: 2, end: 3, startUser: 19, endUser: 20},
	models.Shift2:     {start: 4, end: 5, startUser: 21, endUser: 22},
	models.Shift3:     {start: 6, end: 7, startUser: 23, endUser: 24},
	models.ShiftExtra: {start: 8, end: 9, startUser: 25, endUser: 26},
}

// ShiftColumns returns the time and user columns for a shift start/end event kind.
func ShiftColumns(kind models.EventKind) (timeCol, userCol int, ok bool) {
	shift, start, ok := kind.ShiftEvent()
	if !ok {
		return 0, 0, false
	}
	c := shiftLayout[shift]
	if start {
		return c.start, c.startUser, true
	}
	return c.end, c.endUser, true
}

// Logs tab layout.
const (
	DefaultLogsTab = "ПОДІЇ"
	logsLastCol    = 8 // H
)

var logsHeader = []string{"ID", "Дата/час", "Тип події", "Користувач", "Літри", "Чек", "Водій", "Значення"}

// logsRowFor maps an event id to its fixed row. Row 1 is the header.
func logsRowFor(id int64) int {
	if id < 1 {
		return 2
	}
	return int(id) + 1
}

// ColumnName converts a 1-based column index to its letter name (1 -> A, 27 -> AA).
func ColumnName(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// A1 formats a single cell reference such as "N12".
func A1(row, col int) string {
	return ColumnName(col) + strconv.Itoa(row)
}
