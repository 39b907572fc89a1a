package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"generator_ledger/internal/logger"
	"generator_ledger/internal/models"
)

// Options configures a Client.
type Options struct {
	// MonthTab pins every lookup to one tab. Empty derives the tab from the
	// date being looked up (see MonthTabName).
	MonthTab string
	// LogsTab is the audit tab. Empty means DefaultLogsTab.
	LogsTab string
	Log     *logger.Logger
}

// Client reads and writes the generator's spreadsheet layout.
type Client struct {
	sheet    Sheet
	monthTab string
	logsTab  string
	log      *logger.Logger
}

func NewClient(sheet Sheet, opts Options) *Client {
	if opts.LogsTab == "" {
		opts.LogsTab = DefaultLogsTab
	}
	return &Client{
		sheet:    sheet,
		monthTab: strings.TrimSpace(opts.MonthTab),
		logsTab:  opts.LogsTab,
		log:      opts.Log.Named("ledger"),
	}
}

// Ping checks the spreadsheet is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.sheet.Ping(ctx); err != nil {
		return fmt.Errorf("ledger ping: %w", err)
	}
	return nil
}

// TabFor returns the month tab holding date's row.
func (c *Client) TabFor(date time.Time) string {
	if c.monthTab != "" {
		return c.monthTab
	}
	return MonthTabName(date)
}

// FindDateRow locates date in column A of its month tab. found is false when
// the tab or the row does not exist.
func (c *Client) FindDateRow(ctx context.Context, date time.Time) (row int, found bool, err error) {
	tab := c.TabFor(date)
	cells, err := c.sheet.ReadColumn(ctx, tab, ColDate)
	if err != nil {
		if errors.Is(err, ErrTabNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read dates of %q: %w", tab, err)
	}
	month, _ := MonthFromTab(tab)
	for i, v := range cells {
		if d, ok := ParseDateCell(v, month, date.Year()); ok && SameDate(d, date) {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

// ReadReferenceLists returns the driver (AB) and personnel (AC) lists of the
// month tab for date, cleaned and de-duplicated.
func (c *Client) ReadReferenceLists(ctx context.Context, date time.Time) (drivers, personnel []string, err error) {
	tab := c.TabFor(date)
	read := func(col int) ([]string, error) {
		vals, err := c.sheet.ReadColumn(ctx, tab, col)
		if err != nil {
			if errors.Is(err, ErrTabNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("read %s of %q: %w", ColumnName(col), tab, err)
		}
		if len(vals) < referenceFirstRow {
			return nil, nil
		}
		return CleanNames(vals[referenceFirstRow-1:]), nil
	}
	if drivers, err = read(ColDrivers); err != nil {
		return nil, nil, err
	}
	if personnel, err = read(ColPersonnel); err != nil {
		return nil, nil, err
	}
	return drivers, personnel, nil
}

// DayShifts is what the ledger row of one day says about shifts.
type DayShifts struct {
	// Found is false when the day has no row; the other fields are then empty.
	Found bool
	// Open is the first shift with a start but no end, or ShiftNone.
	Open       models.Shift
	Completed  map[models.Shift]bool
	StartTimes map[models.Shift]string
}

// ReadDayShifts reads the shift cells (A..I) of date's row.
func (c *Client) ReadDayShifts(ctx context.Context, date time.Time) (DayShifts, error) {
	out := DayShifts{
		Open:       models.ShiftNone,
		Completed:  map[models.Shift]bool{},
		StartTimes: map[models.Shift]string{},
	}
	row, found, err := c.FindDateRow(ctx, date)
	if err != nil || !found {
		return out, err
	}
	vals, err := c.sheet.ReadRow(ctx, c.TabFor(date), row, 1, shiftLastCol)
	if err != nil {
		return out, fmt.Errorf("read shifts of row %d: %w", row, err)
	}
	out.Found = true

	for _, sh := range models.Shifts {
		cols := shiftLayout[sh]
		start, end := cellAt(vals, cols.start), cellAt(vals, cols.end)
		if end != "" {
			out.Completed[sh] = true
		}
		if start != "" {
			out.StartTimes[sh] = start
		}
		if start != "" && end == "" && out.Open == models.ShiftNone {
			out.Open = sh
		}
	}
	return out, nil
}

// WriteShiftEvent writes the HH:MM of a shift start/end event and the actor
// into date row. Non-shift kinds are ignored.
func (c *Client) WriteShiftEvent(ctx context.Context, row int, e models.EventLogEntry) error {
	timeCol, userCol, ok := ShiftColumns(e.Kind)
	if !ok {
		return nil
	}
	tab := c.TabFor(e.Timestamp)
	updates := []Update{{Tab: tab, Row: row, Col: timeCol, Values: []string{e.Timestamp.Format("15:04")}}}
	if e.Actor != "" {
		updates = append(updates, Update{Tab: tab, Row: row, Col: userCol, Values: []string{e.Actor}, Raw: true})
	}
	if err := c.sheet.BatchWrite(ctx, updates); err != nil {
		return fmt.Errorf("write %s to %s: %w", e.Kind, A1(row, timeCol), err)
	}
	return nil
}

// RefuelTotals is the aggregate of one day's refills.
type RefuelTotals struct {
	Liters   float64
	Receipts []string
	Drivers  []string
}

// AggregateRefills sums refill entries. Receipts and drivers keep first-seen
// order without duplicates. Unreadable payloads count as zero liters.
func AggregateRefills(entries []models.EventLogEntry) RefuelTotals {
	var (
		t                 RefuelTotals
		receipts, drivers []string
	)
	for _, e := range entries {
		if e.Kind != models.EventRefill {
			continue
		}
		liters, receipt, _ := models.ParseRefillPayload(e.Payload)
		t.Liters += liters
		receipts = append(receipts, receipt)
		drivers = append(drivers, e.SecondaryActor)
	}
	t.Receipts = CleanNames(receipts)
	t.Drivers = CleanNames(drivers)
	return t
}

// WriteRefuelTotals sets the refuel cells (N, P, AA) of a date row. Cells are
// overwritten with the full aggregate, never incremented.
func (c *Client) WriteRefuelTotals(ctx context.Context, date time.Time, row int, t RefuelTotals) error {
	tab := c.TabFor(date)
	err := c.sheet.BatchWrite(ctx, []Update{
		{Tab: tab, Row: row, Col: ColRefuelLiters, Values: []string{FormatLiters(t.Liters)}},
		{Tab: tab, Row: row, Col: ColReceipts, Values: []string{strings.Join(t.Receipts, ", ")}},
		{Tab: tab, Row: row, Col: ColRefuelDriver, Values: []string{strings.Join(t.Drivers, ", ")}},
	})
	if err != nil {
		return fmt.Errorf("write refuel totals to row %d: %w", row, err)
	}
	return nil
}

// WriteMaintenance records the engine hours of an oil or spark service in date row.
func (c *Client) WriteMaintenance(ctx context.Context, row int, e models.EventLogEntry) error {
	col := ColOilService
	if e.Kind == models.EventMaintenanceSpark {
		col = ColSparkService
	}
	hours, _ := ParseFloat(e.Payload)
	err := c.sheet.BatchWrite(ctx, []Update{
		{Tab: c.TabFor(e.Timestamp), Row: row, Col: col, Values: []string{FormatLiters(hours)}},
	})
	if err != nil {
		return fmt.Errorf("write %s to %s: %w", e.Kind, A1(row, col), err)
	}
	return nil
}

// EnsureLogsTab creates the audit tab and its header when missing.
func (c *Client) EnsureLogsTab(ctx context.Context) error {
	if err := c.sheet.EnsureTab(ctx, c.logsTab); err != nil {
		return fmt.Errorf("ensure tab %q: %w", c.logsTab, err)
	}
	row, err := c.sheet.ReadRow(ctx, c.logsTab, 1, 1, logsLastCol)
	if err != nil {
		return fmt.Errorf("read header of %q: %w", c.logsTab, err)
	}
	if headerMatches(row) {
		return nil
	}
	if err := c.sheet.BatchWrite(ctx, []Update{{Tab: c.logsTab, Row: 1, Col: 1, Values: logsHeader, Raw: true}}); err != nil {
		return fmt.Errorf("write header of %q: %w", c.logsTab, err)
	}
	return nil
}

// UpsertAuditRow writes e to its fixed row of the audit tab (id+1), so
// repeating the write leaves the tab unchanged.
func (c *Client) UpsertAuditRow(ctx context.Context, e models.EventLogEntry) error {
	var ts, liters, receipt string
	if !e.Timestamp.IsZero() {
		ts = e.Timestamp.Format(models.TimestampLayout)
	}
	if e.Kind == models.EventRefill {
		if l, r, ok := models.ParseRefillPayload(e.Payload); ok {
			if l != 0 {
				liters = strings.Replace(strconv.FormatFloat(l, 'f', -1, 64), ".", ",", 1)
			}
			receipt = r
		}
	}
	row := logsRowFor(e.ID)
	values := []string{
		strconv.FormatInt(e.ID, 10),
		ts,
		string(e.Kind),
		e.Actor,
		liters,
		receipt,
		e.SecondaryActor,
		e.Payload,
	}
	if err := c.sheet.BatchWrite(ctx, []Update{{Tab: c.logsTab, Row: row, Col: 1, Values: values}}); err != nil {
		return fmt.Errorf("upsert audit row %d: %w", row, err)
	}
	return nil
}

// Canonical holds the authoritative values of one day's row.
type Canonical struct {
	Found bool
	Row   int
	// Fuel is the latest fuel reading of the day: evening (O), else midday
	// (M), else morning (K).
	Fuel    float64
	HasFuel bool
	// MorningFuel is column K alone, used by the initial import.
	MorningFuel    float64
	HasMorningFuel bool
	Hours          float64
	HasHours       bool
}

// ReadCanonical reads the fuel and engine-hours cells of date's row.
func (c *Client) ReadCanonical(ctx context.Context, date time.Time) (Canonical, error) {
	var out Canonical
	row, found, err := c.FindDateRow(ctx, date)
	if err != nil || !found {
		return out, err
	}
	vals, err := c.sheet.ReadRow(ctx, c.TabFor(date), row, 1, ColEngineHours)
	if err != nil {
		return out, fmt.Errorf("read canonical row %d: %w", row, err)
	}
	out.Found, out.Row = true, row

	for _, col := range []int{ColEveningFuel, ColMiddayFuel, ColMorningFuel} {
		if v, ok := ParseFloat(cellAt(vals, col)); ok {
			out.Fuel, out.HasFuel = v, true
			break
		}
	}
	out.MorningFuel, out.HasMorningFuel = ParseFloat(cellAt(vals, ColMorningFuel))

	raw := cellAt(vals, ColEngineHours)
	out.Hours, out.HasHours = ParseEngineHours(raw)
	if raw != "" && !out.HasHours {
		c.log.Warnw("ledger_engine_hours_unreadable", "cell", A1(row, ColEngineHours), "value", raw)
	}
	return out, nil
}

func cellAt(vals []string, col int) string {
	if col < 1 || col > len(vals) {
		return ""
	}
	return strings.TrimSpace(vals[col-1])
}

func headerMatches(row []string) bool {
	if len(row) < len(logsHeader) {
		return false
	}
	for i, h := range logsHeader {
		if strings.TrimSpace(row[i]) != h {
			return false
		}
	}
	return true
}
