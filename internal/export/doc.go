// Package export serializes subscriber rows to CSV or JSON and archives
// finished exports to S3.
package export
