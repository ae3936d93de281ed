package cli

import (
	"context"
)

func (c *Cli) runCheckIn(ctx context.Context, args []string) error {
	id, err := parseID(args, "hoteldesk checkin <id>")
	if err != nil {
		return err
	}

	result, err := c.reservations.CheckIn(ctx, id)
	if err != nil {
		return err
	}

	c.io.Printf("✓ %s\n", result.Message)
	return nil
}

func (c *Cli) runCheckOut(ctx context.Context, args []string) error {
	id, err := parseID(args, "hoteldesk checkout <id>")
	if err != nil {
		return err
	}

	result, err := c.reservations.CheckOut(ctx, id)
	if err != nil {
		return err
	}

	c.io.Printf("✓ %s\n", result.Message)
	return nil
}
