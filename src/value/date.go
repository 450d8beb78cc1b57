package value

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tablestream-io/tablestream/src/errkind"
)

// Day is a calendar date with no time component, stored as a signed count
// of days since the Unix epoch. Keeping it a plain integer makes ordering
// and equality a direct comparison; the count is signed since dates before
// 1970 are valid input.
type Day int32

var errInvalidDate = fmt.Errorf("%w: value: invalid date", errkind.ErrValueParse)

// ParseDay parses a strict YYYY-MM-DD date string.
func ParseDay(s string) (Day, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return 0, errInvalidDate
	}
	year, err := strconv.Atoi(s[0:4])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errInvalidDate, err)
	}
	month, err := strconv.Atoi(s[5:7])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errInvalidDate, err)
	}
	day, err := strconv.Atoi(s[8:10])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errInvalidDate, err)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, errInvalidDate
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises out-of-range days (e.g. Feb 30) by rolling over
	// into the following month; reject that instead of silently accepting it.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return 0, errInvalidDate
	}
	return dayFromTime(t), nil
}

func dayFromTime(t time.Time) Day {
	return Day(t.Unix() / 86400)
}

func (d Day) toTime() time.Time {
	return time.Unix(int64(d)*86400, 0).UTC()
}

func (d Day) String() string {
	t := d.toTime()
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}
