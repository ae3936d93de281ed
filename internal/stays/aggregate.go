package stays

import "math"

// Summary folds a sequence of views in one pass.
// Money is summed in whole cents so the result does not depend on input order.
type Summary struct {
	ByStatus     map[Status]int
	Revenue      float64
	Stays        int
	TotalGuests  int
	ActiveGuests int
}

// Summarize computes all aggregates over views
func Summarize(views []StayView) Summary {
	s := Summary{ByStatus: make(map[Status]int)}

	var cents int64
	for _, v := range views {
		s.Stays++
		s.ByStatus[v.Status]++
		s.TotalGuests += v.Guests
		if v.Status == StatusActive {
			s.ActiveGuests += v.Guests
		}
		cents += int64(math.Round(v.Total * 100))
	}
	s.Revenue = float64(cents) / 100

	return s
}

// TotalGuests sums guests across all stays; a missing guest count is 1
func TotalGuests(views []StayView) int {
	return Summarize(views).TotalGuests
}

// ActiveGuests sums guests of active stays only
func ActiveGuests(views []StayView) int {
	return Summarize(views).ActiveGuests
}

// TotalRevenue sums the monetary totals of all stays
func TotalRevenue(views []StayView) float64 {
	return Summarize(views).Revenue
}
