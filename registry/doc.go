// Package registry tracks which vehicles are being observed by which views
// and fans incoming samples out to the interested ones.
//
// The registry owns the live vehicle map behind a single mutex: samples from
// the feed and subscribe/unsubscribe calls from views serialize through it,
// so a sample arriving after a subscribe returns is always delivered to that
// subscriber. Each sample is classified and stored exactly once no matter how
// many views want the vehicle; samples for unwanted vehicles are stored but
// not pushed.
//
// It also maintains the panel board for grid-style multi-viewing (a bounded
// ordered list of vehicle panels plus a layout selection), degrades
// connection statuses between samples, evicts abandoned vehicles after a
// retention window, and derives the retransmission list for operator
// attention.
package registry
