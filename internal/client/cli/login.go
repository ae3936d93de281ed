package cli

import (
	"context"
	"flag"
	"fmt"
)

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(c.io)
	dni := fs.String("dni", "", "DNI")
	passwordFile := fs.String("password-file", "", "Path to file containing password")
	password := fs.String("password", "", "Password (not recommended, use env var or file)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.io.Println("=== Login ===")
	c.io.Println()

	// Запрашиваем DNI
	if *dni == "" {
		input, err := c.io.ReadInput("DNI: ")
		if err != nil {
			return fmt.Errorf("failed to read dni: %w", err)
		}
		*dni = input
	}

	secret, err := c.getPassword(Passwords{FromFile: *passwordFile, FromArgs: *password})
	if err != nil {
		return err
	}

	c.io.Println("Authenticating...")

	result := c.session.Login(ctx, *dni, secret)
	if !result.Success {
		return fmt.Errorf("login failed (%s): %s", result.Reason, result.Error)
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	if result.User != nil {
		c.io.Printf("Welcome, %s\n", result.User.DisplayName())
	}
	c.io.Println("Your session has been saved.")

	return nil
}
