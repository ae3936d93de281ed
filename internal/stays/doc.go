// Package stays derives display state from reservation records.
//
// Everything here except Tracker is a pure function of its input: no I/O,
// no clocks, and the same record always yields the same view. Tracker holds
// the only local state, the set of reservations checked in optimistically
// whose refreshed record has not arrived yet.
package stays
