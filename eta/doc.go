// Package eta computes distance, estimated arrival and delay against the next
// pending milestone of a vehicle's active order.
//
// Both the engine and the milestone query are pure functions: every
// well-formed input has a defined output, with "no next milestone" expressed
// as an explicit ok=false rather than an error.
package eta
