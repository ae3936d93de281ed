package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iudanet/hoteldesk/internal/client/api"
	"github.com/iudanet/hoteldesk/internal/client/auth"
	"github.com/iudanet/hoteldesk/internal/client/events"
	"github.com/iudanet/hoteldesk/internal/client/iocli"
	"github.com/iudanet/hoteldesk/internal/client/notify"
	"github.com/iudanet/hoteldesk/internal/client/reservations"
	"github.com/iudanet/hoteldesk/internal/models"
)

// EnvPassword переменная окружения с паролем для неинтерактивного логина
const EnvPassword = "HOTELDESK_PASSWORD"

var (
	// ErrNotAuthenticated indicates that the command needs a stored session
	ErrNotAuthenticated = errors.New("not authenticated. Please run 'hoteldesk login' first")

	// ErrUnknownCommand indicates an unsupported command name
	ErrUnknownCommand = errors.New("unknown command")
)

//go:generate moq -out session_mock.go . SessionService

// SessionService операции сессии, нужные командам
type SessionService interface {
	Login(ctx context.Context, dni, password string) auth.LoginResult
	Logout(ctx context.Context) error
	IsAuthenticated() bool
	CurrentUser(ctx context.Context) (*models.User, bool)
	Inspect(ctx context.Context) (*auth.TokenInfo, error)
}

// RoomStream открывает поток событий dashboard
type RoomStream interface {
	Subscribe(ctx context.Context) (*events.Subscription, error)
}

// Passwords источники пароля для login
type Passwords struct {
	FromFile string
	FromArgs string
}

type Cli struct {
	io            iocli.IO
	session       SessionService
	reservations  reservations.Service
	stream        RoomStream
	notifications <-chan notify.Event
	now           func() time.Time
}

// New создает CLI. notifications может быть nil.
func New(io iocli.IO, session SessionService, reservationService reservations.Service, stream RoomStream, notifications <-chan notify.Event) *Cli {
	return &Cli{
		io:            io,
		session:       session,
		reservations:  reservationService,
		stream:        stream,
		notifications: notifications,
		now:           time.Now,
	}
}

// Run выполняет команду и печатает накопившиеся уведомления
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	err := c.dispatch(ctx, command, args)
	c.flushNotifications()

	if errors.Is(err, api.ErrSessionExpired) {
		return fmt.Errorf("%w. Please run 'hoteldesk login' again", err)
	}
	return err
}

func (c *Cli) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return c.runLogin(ctx, args)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	}

	if !c.session.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	switch command {
	case "reservations", "list":
		return c.runReservations(ctx, args)
	case "show":
		return c.runShow(ctx, args)
	case "checkin":
		return c.runCheckIn(ctx, args)
	case "checkout":
		return c.runCheckOut(ctx, args)
	case "summary":
		return c.runSummary(ctx)
	case "rooms":
		return c.runRooms(ctx)
	case "watch":
		return c.runWatch(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

// flushNotifications печатает уведомления, опубликованные во время команды
func (c *Cli) flushNotifications() {
	if c.notifications == nil {
		return
	}
	for {
		select {
		case ev, ok := <-c.notifications:
			if !ok {
				return
			}
			c.printNotification(ev)
		default:
			return
		}
	}
}

// printNotification печатает одно уведомление; события комнат выводит сама команда watch
func (c *Cli) printNotification(ev notify.Event) {
	if ev.Kind == notify.KindRoomEvent {
		return
	}
	c.io.Printf("[%s] %s\n", ev.Level, ev.Message)
	if ev.Redirect == notify.RedirectLogin {
		c.io.Println("Run 'hoteldesk login' to sign in again.")
	}
}

// getPassword retrieves the password from various sources with priority:
// 1. Environment variable HOTELDESK_PASSWORD
// 2. File specified in FromFile
// 3. Command-line parameter FromArgs
// 4. Interactive prompt (fallback)
func (c *Cli) getPassword(passwords Passwords) (string, error) {
	// Priority 1: Environment variable
	if envPassword := os.Getenv(EnvPassword); envPassword != "" {
		return envPassword, nil
	}

	// Priority 2: File
	if passwords.FromFile != "" {
		content, err := os.ReadFile(passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	// Priority 3: CLI parameter
	if passwords.FromArgs != "" {
		return passwords.FromArgs, nil
	}

	// Priority 4: Interactive prompt (fallback)
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	return password, nil
}

func PrintUsage(io iocli.IO) {
	io.Println("HotelDesk front desk client")
	io.Println()
	io.Println("Usage:")
	io.Println("  hoteldesk [OPTIONS] COMMAND [ARGS]")
	io.Println()
	io.Println("Options:")
	io.Println("  -config PATH        YAML config file (or HOTELDESK_CONFIG)")
	io.Println("  -server URL         Server URL (default: http://localhost:8000)")
	io.Println("  -db PATH            Path to local credentials database (default: hoteldesk.db)")
	io.Println("  -cache-db PATH      Path to reservations cache (default: hoteldesk-cache.db)")
	io.Println("  -log-level LEVEL    debug, info, warn, error (default: warn)")
	io.Println("  -timeout DURATION   HTTP request timeout (default: 30s)")
	io.Println("  -version            Show version information")
	io.Println()
	io.Println("Password Priority for login (highest to lowest):")
	io.Println("  1. HOTELDESK_PASSWORD environment variable")
	io.Println("  2. -password-file (file path)")
	io.Println("  3. -password (command line)")
	io.Println("  4. Interactive prompt (fallback)")
	io.Println()
	io.Println("Commands:")
	io.Println("  login [-dni DNI]            Sign in with DNI and password")
	io.Println("  logout                      Delete local session")
	io.Println("  status                      Show session status")
	io.Println("  reservations [-status S]    List reservations (active, confirmed, pending, finished, cancelled)")
	io.Println("  show <id>                   Show one reservation")
	io.Println("  checkin <id>                Register guest arrival")
	io.Println("  checkout <id>               Register guest departure")
	io.Println("  summary                     Guests and revenue totals")
	io.Println("  rooms                       Room board (available, occupied, cleaning)")
	io.Println("  watch                       Follow live dashboard events")
	io.Println()
	io.Println("Examples:")
	io.Println("  hoteldesk login -dni 30111222")
	io.Println("  hoteldesk reservations -status active")
	io.Println("  hoteldesk checkin 42")
	io.Println("  hoteldesk -server https://hotel.example.com rooms")
}
