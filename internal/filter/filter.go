// Package filter converts the dashboard filter form into query parameters.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DateLayout is the wire and input form of filter dates.
const DateLayout = "2006-01-02"

// Wire keys understood by the survey query and export endpoints.
const (
	KeyOutletName  = "OutletNameInput"
	KeyFromDate    = "FromDate"
	KeyToDate      = "ToDate"
	KeyBrand       = "Brand"
	KeyLocation    = "Location"
	KeyState       = "State"
	KeyDefectType  = "defect_type"
	KeyBatchNumber = "BatchNumber"
)

// ErrRangeRequired is returned when an export is requested without a full date range.
var ErrRangeRequired = errors.New("Please select From and To Date to export!")

// Form holds the user-entered filter criteria. Empty values do not constrain.
type Form struct {
	OutletName  string
	FromDate    *time.Time
	ToDate      *time.Time
	Brand       string
	Location    string
	State       string
	DefectType  string
	BatchNumber string
}

// Reset returns a form with no constraints.
func Reset() Form {
	return Form{}
}

// IsZero reports whether the form constrains nothing.
func (f Form) IsZero() bool {
	return len(Normalize(f)) == 0
}

// Normalize renders the form in its wire representation. Empty fields are
// left out so a reset form matches every record.
func Normalize(f Form) url.Values {
	params := f.Others()
	if v := formatDate(f.FromDate); v != "" {
		params.Set(KeyFromDate, v)
	}
	if v := formatDate(f.ToDate); v != "" {
		params.Set(KeyToDate, v)
	}
	return params
}

// Others returns the non-date constraints.
func (f Form) Others() url.Values {
	params := url.Values{}
	setIfPresent(params, KeyOutletName, f.OutletName)
	setIfPresent(params, KeyBrand, f.Brand)
	setIfPresent(params, KeyLocation, f.Location)
	setIfPresent(params, KeyState, f.State)
	setIfPresent(params, KeyDefectType, f.DefectType)
	setIfPresent(params, KeyBatchNumber, f.BatchNumber)
	return params
}

// Range returns the from/to dates required by an export.
func (f Form) Range() (from, to string, err error) {
	from = formatDate(f.FromDate)
	to = formatDate(f.ToDate)
	if from == "" || to == "" {
		return "", "", ErrRangeRequired
	}
	return from, to, nil
}

// HasRange reports whether both export dates are set.
func (f Form) HasRange() bool {
	_, _, err := f.Range()
	return err == nil
}

// ParseDate parses a YYYY-MM-DD input in the local calendar. Blank input means no date.
func ParseDate(input string) (*time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(DateLayout, input, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", input)
	}
	return &parsed, nil
}

// FormatDate renders an optional date for form inputs.
func FormatDate(t *time.Time) string {
	return formatDate(t)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func setIfPresent(params url.Values, key, value string) {
	if value == "" {
		return
	}
	params.Set(key, value)
}
