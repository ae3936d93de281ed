package cli

import (
	"context"
	"fmt"
)

// runWatch печатает события dashboard до конца потока или отмены ctx.
// Уведомления шины разбираются в том же цикле, иначе ее буфер переполнится.
func (c *Cli) runWatch(ctx context.Context) error {
	sub, err := c.stream.Subscribe(ctx)
	if err != nil {
		return err
	}

	c.io.Println("=== Live dashboard (Ctrl+C to stop) ===")

	notifications := c.notifications
	for {
		// Сначала накопившиеся уведомления: каждое событие комнаты
		// публикуется и в шину
		c.flushNotifications()

		select {
		case <-ctx.Done():
			<-sub.Done()
			return nil
		case ev, ok := <-notifications:
			if !ok {
				notifications = nil
				continue
			}
			c.printNotification(ev)
		case ev, ok := <-sub.Events():
			if !ok {
				if err := sub.Err(); err != nil {
					return fmt.Errorf("dashboard stream closed: %w", err)
				}
				c.io.Println("Stream closed by server.")
				return nil
			}

			line := fmt.Sprintf("%s  %-12s room %s", c.now().Format("15:04:05"), ev.Type, orDash(ev.RoomNumber))
			if ev.State != "" {
				line += " → " + ev.State
			}
			if ev.ReservationID != 0 {
				line += fmt.Sprintf(" (reservation %d)", ev.ReservationID)
			}
			c.io.Println(line)
		}
	}
}
