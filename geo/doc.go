// Package geo provides great-circle distance and bearing math shared by the
// ETA engine and historical route derivation.
package geo
