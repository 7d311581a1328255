// Package export serializes recorded routes and retransmission records to
// row-oriented interchange formats: CSV, JSON and GPX 1.1. Printable report
// rendering is out of scope; consumers build documents from these rows.
package export
