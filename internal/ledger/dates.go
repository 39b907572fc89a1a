package ledger

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Tab names are Ukrainian month names. Older spreadsheets use Russian or
// English names, which are still recognised.
var monthTabsUA = [12]string{
	"СІЧЕНЬ", "ЛЮТИЙ", "БЕРЕЗЕНЬ", "КВІТЕНЬ", "ТРАВЕНЬ", "ЧЕРВЕНЬ",
	"ЛИПЕНЬ", "СЕРПЕНЬ", "ВЕРЕСЕНЬ", "ЖОВТЕНЬ", "ЛИСТОПАД", "ГРУДЕНЬ",
}

var monthByTab = func() map[string]time.Month {
	ru := [12]string{
		"ЯНВАРЬ", "ФЕВРАЛЬ", "МАРТ", "АПРЕЛЬ", "МАЙ", "ИЮНЬ",
		"ИЮЛЬ", "АВГУСТ", "СЕНТЯБРЬ", "ОКТЯБРЬ", "НОЯБРЬ", "ДЕКАБРЬ",
	}
	m := make(map[string]time.Month, 36)
	for i := 0; i < 12; i++ {
		month := time.Month(i + 1)
		m[monthTabsUA[i]] = month
		m[ru[i]] = month
		m[strings.ToUpper(month.String())] = month
	}
	return m
}()

// MonthTabName is the tab that holds the rows of t's month.
func MonthTabName(t time.Time) string {
	return monthTabsUA[t.Month()-1]
}

// MonthFromTab resolves a tab name to its month. ok is false for tabs that are
// not named after a month.
func MonthFromTab(tab string) (time.Month, bool) {
	m, ok := monthByTab[norm.NFC.String(strings.ToUpper(strings.TrimSpace(tab)))]
	return m, ok
}

var (
	isoDateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dottedLongRe = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
	dottedYYRe   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2})$`)
	slashedRe    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dayMonthRe   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})$`)
	serialRe     = regexp.MustCompile(`^\d+(\.\d+)?$`)
	dayOnlyRe    = regexp.MustCompile(`^\d{1,2}$`)
)

// Spreadsheet serial day 0.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// minDateSerial keeps small numbers (day-of-month, counters) from being read as serial dates.
const minDateSerial = 30000

// ParseDateCell reads the date in a column A cell. Supported forms are ISO
// dates, dd.mm.yyyy, dd.mm.yy, dd/mm/yyyy, dd.mm (in sheetYear), spreadsheet
// serial numbers and a bare day of sheetMonth. sheetMonth 0 disables the bare
// day form. The result is midnight UTC of the civil date.
func ParseDateCell(cell string, sheetMonth time.Month, sheetYear int) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	switch strings.ToUpper(s) {
	case "ДАТА", "DATE":
		return time.Time{}, false
	}

	if isoDateRe.MatchString(s) {
		t, err := time.Parse("2006-01-02", s)
		return t, err == nil
	}
	if m := dottedLongRe.FindStringSubmatch(s); m != nil {
		return civilDate(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := dottedYYRe.FindStringSubmatch(s); m != nil {
		return civilDate(expandYY(atoi(m[3])), atoi(m[2]), atoi(m[1]))
	}
	if m := slashedRe.FindStringSubmatch(s); m != nil {
		return civilDate(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		return civilDate(sheetYear, atoi(m[2]), atoi(m[1]))
	}
	if num := strings.Replace(s, ",", ".", 1); serialRe.MatchString(num) {
		if f, err := strconv.ParseFloat(num, 64); err == nil && f >= minDateSerial {
			return serialEpoch.AddDate(0, 0, int(f)), true
		}
	}
	if dayOnlyRe.MatchString(s) && sheetMonth != 0 {
		return civilDate(sheetYear, int(sheetMonth), atoi(s))
	}
	return time.Time{}, false
}

// SameDate compares civil dates, ignoring time of day and zone.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// civilDate rejects out-of-range parts instead of letting time.Date normalize them.
func civilDate(y, m, d int) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// expandYY follows strptime's %y pivot: 00-68 is 20xx, 69-99 is 19xx.
func expandYY(yy int) int {
	if yy <= 68 {
		return 2000 + yy
	}
	return 1900 + yy
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
