package models

// RawRate is one row of the exchange-rate history exactly as the upstream
// table returns it: a positional list of display strings.
type RawRate []any

// ExchangeRateRecord is one day of the USD/IRR series.
type ExchangeRateRecord struct {
	// Date is YYYYMMDD as published upstream, e.g. 20230822.
	Date  int64
	Price int64
}
