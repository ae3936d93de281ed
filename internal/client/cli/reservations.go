package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/iudanet/hoteldesk/internal/stays"
)

var knownStatuses = map[stays.Status]bool{
	stays.StatusActive:    true,
	stays.StatusConfirmed: true,
	stays.StatusPending:   true,
	stays.StatusFinished:  true,
	stays.StatusCancelled: true,
}

func (c *Cli) runReservations(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reservations", flag.ContinueOnError)
	fs.SetOutput(c.io)
	status := fs.String("status", "", "Filter by status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := stays.Status(*status)
	if filter != "" && !knownStatuses[filter] {
		return fmt.Errorf("unknown status: %s. Use: active, confirmed, pending, finished, or cancelled", *status)
	}

	c.io.Println("=== Reservations ===")
	c.io.Println()

	list, err := c.reservations.List(ctx)
	if err != nil {
		return err
	}
	c.printStaleWarning(list.Stale, list.FetchedAt)

	views := make([]stays.StayView, 0, len(list.Views))
	for _, v := range list.Views {
		if filter == "" || v.Status == filter {
			views = append(views, v)
		}
	}

	if len(views) == 0 {
		c.io.Println("No reservations found.")
		return nil
	}

	c.io.Printf("Found %d reservation(s):\n", len(views))
	c.io.Println()

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tROOM\tGUEST\tENTRY\tEXIT\tNIGHTS\tGUESTS\tTOTAL\tSTATUS")
	for _, v := range views {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			v.ID, orDash(v.RoomNumber), orDash(v.GuestName),
			formatDateTime(v.Entry), formatDateTime(v.Exit),
			v.Nights, v.Guests, formatMoney(v.Total), v.Status)
	}
	return w.Flush()
}

func (c *Cli) runShow(ctx context.Context, args []string) error {
	id, err := parseID(args, "hoteldesk show <id>")
	if err != nil {
		return err
	}

	view, err := c.reservations.Get(ctx, id)
	if err != nil {
		return err
	}

	c.io.Printf("=== Reservation %d ===\n", view.ID)
	c.io.Println()
	c.io.Printf("Guest:     %s\n", orDash(view.GuestName))
	c.io.Printf("DNI:       %s\n", orDash(view.DNI))
	c.io.Printf("Room:      %s\n", orDash(view.RoomNumber))
	c.io.Printf("Status:    %s\n", view.Status)
	c.io.Printf("Entry:     %s\n", formatDateTime(view.Entry))
	c.io.Printf("Exit:      %s\n", formatDateTime(view.Exit))
	c.io.Printf("Nights:    %d\n", view.Nights)
	c.io.Printf("Guests:    %d\n", view.Guests)
	c.io.Printf("Rate:      %s per night\n", formatMoney(view.NightlyRate))
	if view.DiscountPercent != 0 {
		c.io.Printf("Discount:  %s%%\n", formatMoney(view.DiscountPercent))
	}
	c.io.Printf("Total:     %s\n", formatMoney(view.Total))
	if view.PaymentMethod != "" {
		c.io.Printf("Payment:   %s\n", view.PaymentMethod)
	}

	return nil
}
