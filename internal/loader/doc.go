// Package loader reads OHLCV bar files into validated, chronologically
// ordered bar series.
//
// Text files are comma separated with one bar per line, in either the minute
// layout
//
//	09/27/2009,18:00,1042.25,1043.25,1042.25,1043,1354
//
// or the daily layout
//
//	09/09/1997,933.75,941.25,932.75,934,0
//
// A header row is optional; when present its column names decide the
// layout. XLSX workbooks hold the same columns on one worksheet.
package loader
