package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/hoteldesk/internal/stays"
)

func formatDateTime(dt stays.DateTime) string {
	s := strings.TrimSpace(dt.Date + " " + dt.Time)
	if s == "" {
		return "-"
	}
	return s
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func parseID(args []string, usage string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing reservation id. Usage: %s", usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid reservation id %q. Usage: %s", args[0], usage)
	}
	return id, nil
}

func (c *Cli) printStaleWarning(stale bool, fetchedAt time.Time) {
	if !stale {
		return
	}
	c.io.Printf("⚠️  Server unreachable. Showing cached data from %s\n", fetchedAt.Local().Format("02/01/2006 15:04"))
	c.io.Println()
}
