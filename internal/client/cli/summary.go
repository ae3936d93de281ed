package cli

import (
	"context"

	"github.com/iudanet/hoteldesk/internal/stays"
)

// порядок вывода статусов
var statusOrder = []stays.Status{
	stays.StatusActive,
	stays.StatusConfirmed,
	stays.StatusPending,
	stays.StatusFinished,
	stays.StatusCancelled,
}

func (c *Cli) runSummary(ctx context.Context) error {
	c.io.Println("=== Summary ===")
	c.io.Println()

	res, err := c.reservations.Summary(ctx)
	if err != nil {
		return err
	}
	c.printStaleWarning(res.Stale, res.FetchedAt)

	c.io.Printf("Reservations:   %d\n", res.Stays)
	for _, status := range statusOrder {
		if n := res.ByStatus[status]; n > 0 {
			c.io.Printf("  %-12s %d\n", status, n)
		}
	}
	c.io.Printf("Guests total:   %d\n", res.TotalGuests)
	c.io.Printf("Guests in-house: %d\n", res.ActiveGuests)
	c.io.Printf("Revenue:        %s\n", formatMoney(res.Revenue))

	return nil
}
