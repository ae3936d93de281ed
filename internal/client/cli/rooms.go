package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
)

func (c *Cli) runRooms(ctx context.Context) error {
	c.io.Println("=== Rooms ===")
	c.io.Println()

	res, err := c.reservations.Rooms(ctx)
	if err != nil {
		return err
	}
	c.printStaleWarning(res.Stale, res.FetchedAt)

	if len(res.Rooms) == 0 {
		c.io.Println("No rooms found.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ROOM\tSTATE\tGUEST\tSINCE")
	for _, room := range res.Rooms {
		since := "-"
		if !room.Since.IsZero() {
			since = room.Since.Local().Format("02/01/2006 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", room.Room, room.State, orDash(room.Guest), since)
	}
	return w.Flush()
}
