// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// TokyoNow returns the current time in Asia/Tokyo. Ledger rows and order
// numbers are stamped in JST regardless of where the process runs.
func TokyoNow() (time.Time, error) {
	loc, err := time.LoadLocation(TokyoTimezone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().In(loc), nil
}
