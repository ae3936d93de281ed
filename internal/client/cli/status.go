package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/hoteldesk/internal/client/auth"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Session Status ===")
	c.io.Println()

	if !c.session.IsAuthenticated() {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'hoteldesk login' to authenticate.")
		return nil
	}

	c.io.Println("Status: Authenticated")
	if user, ok := c.session.CurrentUser(ctx); ok {
		c.io.Printf("User: %s (DNI %s)\n", user.DisplayName(), user.DNI)
		if user.Rol != "" {
			c.io.Printf("Role: %s\n", user.Rol)
		}
	}

	info, err := c.session.Inspect(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) {
			return nil
		}
		return fmt.Errorf("failed to inspect token: %w", err)
	}

	switch {
	case info.Opaque:
		c.io.Println("Token: opaque (no expiry information)")
	case info.ExpiresAt.IsZero():
		c.io.Println("Token: no expiry")
	default:
		c.io.Printf("Token expires: %s\n", info.ExpiresAt.Format(time.RFC3339))
		if remaining := info.ExpiresAt.Sub(c.now()); remaining > 0 {
			c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
		} else if info.Refresh {
			c.io.Println("⚠️  Access token has expired, it will be refreshed on the next request.")
		} else {
			c.io.Println("⚠️  Token has expired. Please login again.")
		}
	}

	if info.Refresh {
		c.io.Println("Refresh token: stored")
	}

	return nil
}
