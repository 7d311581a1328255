// Package priority scores how urgently a disconnected vehicle needs operator
// attention, from how long it has been silent and whether it is carrying an
// active order. It also defines the retransmission record handed to the
// operator-facing disconnect list.
package priority
