package utils

import (
	"time"
)

// Session time constants
const (
	// SessionIdleTTL is the default idle lifetime of a quote session (30 minutes)
	SessionIdleTTL = 30 * time.Minute

	// SessionCleanupInterval is the default interval between janitor sweeps (5 minutes)
	SessionCleanupInterval = 5 * time.Minute

	// FormTokenTTL is the default lifetime of a one-time form token (30 minutes)
	FormTokenTTL = 30 * time.Minute
)

// Timezone and timestamp constants
const (
	// TokyoTimezone is the IANA name of the shop's timezone
	TokyoTimezone = "Asia/Tokyo"

	// LedgerTimestampLayout is the timestamp format written to ledger rows
	LedgerTimestampLayout = "2006/01/02 15:04:05"

	// OrderNumberLayout is the JST layout an order number is derived from
	OrderNumberLayout = "20060102150405"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
