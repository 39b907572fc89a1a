package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

const (
	valueInputUser = "USER_ENTERED"
	valueInputRaw  = "RAW"

	// Rows added at once when a write lands below the grid.
	growRows = 500
)

type tabMeta struct {
	id   int64
	rows int64
}

// GoogleSheet is a Sheet backed by the Google Sheets v4 API.
type GoogleSheet struct {
	srv           *sheets.Service
	spreadsheetID string

	mu   sync.Mutex
	tabs map[string]tabMeta
}

var _ Sheet = (*GoogleSheet)(nil)

// NewGoogleSheet authenticates with a service-account credentials file.
func NewGoogleSheet(ctx context.Context, spreadsheetID, credentialsFile string) (*GoogleSheet, error) {
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleSheet{srv: srv, spreadsheetID: spreadsheetID}, nil
}

// Ping fetches the tab list, which also refreshes the cached grid sizes.
func (g *GoogleSheet) Ping(ctx context.Context) error {
	_, err := g.refresh(ctx)
	return err
}

func (g *GoogleSheet) ReadColumn(ctx context.Context, tab string, col int) ([]string, error) {
	if _, err := g.meta(ctx, tab); err != nil {
		return nil, err
	}
	name := ColumnName(col)
	resp, err := g.srv.Spreadsheets.Values.
		Get(g.spreadsheetID, rangeRef(tab, name+":"+name)).
		MajorDimension("COLUMNS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get column %s of %q: %w", name, tab, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return toStrings(resp.Values[0]), nil
}

func (g *GoogleSheet) ReadRow(ctx context.Context, tab string, row, fromCol, toCol int) ([]string, error) {
	if _, err := g.meta(ctx, tab); err != nil {
		return nil, err
	}
	rng := A1(row, fromCol) + ":" + A1(row, toCol)
	resp, err := g.srv.Spreadsheets.Values.Get(g.spreadsheetID, rangeRef(tab, rng)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get %s of %q: %w", rng, tab, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return toStrings(resp.Values[0]), nil
}

// BatchWrite sends user-entered and raw values as two batch requests,
// growing tabs first when a row lies below the current grid.
func (g *GoogleSheet) BatchWrite(ctx context.Context, updates []Update) error {
	if len(updates) == 0 {
		return nil
	}
	if err := g.growFor(ctx, updates); err != nil {
		return err
	}

	byMode := map[string][]*sheets.ValueRange{}
	for _, u := range updates {
		mode := valueInputUser
		if u.Raw {
			mode = valueInputRaw
		}
		row := make([]interface{}, len(u.Values))
		for i, v := range u.Values {
			row[i] = v
		}
		end := A1(u.Row, u.Col+len(u.Values)-1)
		byMode[mode] = append(byMode[mode], &sheets.ValueRange{
			Range:  rangeRef(u.Tab, A1(u.Row, u.Col)+":"+end),
			Values: [][]interface{}{row},
		})
	}
	for _, mode := range []string{valueInputUser, valueInputRaw} {
		data := byMode[mode]
		if len(data) == 0 {
			continue
		}
		req := &sheets.BatchUpdateValuesRequest{ValueInputOption: mode, Data: data}
		if _, err := g.srv.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("batch update %d ranges: %w", len(data), err)
		}
	}
	return nil
}

func (g *GoogleSheet) EnsureTab(ctx context.Context, tab string) error {
	if _, err := g.meta(ctx, tab); err == nil {
		return nil
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title:          tab,
					GridProperties: &sheets.GridProperties{RowCount: 5000, ColumnCount: 10},
				},
			},
		}},
	}
	if _, err := g.srv.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %q: %w", tab, err)
	}
	_, err := g.refresh(ctx)
	return err
}

// meta returns cached tab metadata, refreshing once on a miss.
func (g *GoogleSheet) meta(ctx context.Context, tab string) (tabMeta, error) {
	g.mu.Lock()
	m, ok := g.tabs[tab]
	g.mu.Unlock()
	if ok {
		return m, nil
	}
	tabs, err := g.refresh(ctx)
	if err != nil {
		return tabMeta{}, err
	}
	if m, ok := tabs[tab]; ok {
		return m, nil
	}
	return tabMeta{}, fmt.Errorf("%w: %q", ErrTabNotFound, tab)
}

func (g *GoogleSheet) refresh(ctx context.Context) (map[string]tabMeta, error) {
	ss, err := g.srv.Spreadsheets.Get(g.spreadsheetID).
		Fields("sheets.properties(sheetId,title,gridProperties.rowCount)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet %s: %w", g.spreadsheetID, err)
	}
	tabs := make(map[string]tabMeta, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		m := tabMeta{id: s.Properties.SheetId}
		if s.Properties.GridProperties != nil {
			m.rows = s.Properties.GridProperties.RowCount
		}
		tabs[s.Properties.Title] = m
	}
	g.mu.Lock()
	g.tabs = tabs
	g.mu.Unlock()
	return tabs, nil
}

func (g *GoogleSheet) growFor(ctx context.Context, updates []Update) error {
	need := map[string]int64{}
	for _, u := range updates {
		if int64(u.Row) > need[u.Tab] {
			need[u.Tab] = int64(u.Row)
		}
	}
	var reqs []*sheets.Request
	for tab, rows := range need {
		m, err := g.meta(ctx, tab)
		if err != nil {
			return err
		}
		if rows <= m.rows {
			continue
		}
		reqs = append(reqs, &sheets.Request{
			AppendDimension: &sheets.AppendDimensionRequest{
				SheetId:   m.id,
				Dimension: "ROWS",
				Length:    rows - m.rows + growRows,
			},
		})
	}
	if len(reqs) == 0 {
		return nil
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}
	if _, err := g.srv.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("grow tabs: %w", err)
	}
	_, err := g.refresh(ctx)
	return err
}

func rangeRef(tab, rng string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!" + rng
}

func toStrings(vals []interface{}) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		if v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
