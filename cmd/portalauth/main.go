package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	portalauth "github.com/Saraswati-Portal/portalauth"
	"github.com/Saraswati-Portal/portalauth/token"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "portalauth",
		Short:         "portal identity flows from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		registerCmd(),
		verifyOTPCmd(),
		loginCmd(),
		whoamiCmd(),
		logoutCmd(),
		forgotPasswordCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newClient builds a client from PORTAL_* environment variables. With
// PORTAL_REDIS_ADDR set the session slot lives in redis and survives between
// invocations; without it each invocation starts logged out.
func newClient() (*portalauth.Client, error) {
	cfg, err := portalauth.ConfigFromEnv()
	if err != nil {
		return nil, err
	}

	b := portalauth.New().WithConfig(cfg)
	if addr := os.Getenv("PORTAL_REDIS_ADDR"); addr != "" {
		b = b.WithRedis(redis.NewClient(&redis.Options{Addr: addr}))
	}
	return b.Build()
}

func registerCmd() *cobra.Command {
	var (
		email      string
		department string
		roleName   string
		adminKey   string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "create an account and start OTP verification",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			role, err := token.ParseRole(roleName)
			if err != nil {
				return err
			}

			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			ctx, cancel := commandContext()
			defer cancel()

			pending, err := client.Register(ctx, portalauth.RegisterInput{
				Email:      email,
				Password:   password,
				Department: department,
				Role:       role,
				AdminKey:   adminKey,
			})
			if err != nil {
				return err
			}

			code, err := readLine("OTP code (check your email): ")
			if err != nil {
				return err
			}
			if err := pending.VerifyOTP(ctx, code); err != nil {
				return err
			}

			fmt.Println("account verified; you can log in now")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().StringVar(&roleName, "role", "student", "student or admin")
	cmd.Flags().StringVar(&adminKey, "admin-key", "", "required for admin accounts")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("department")
	return cmd
}

func verifyOTPCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "verify-otp",
		Short: "verify a registration OTP for an existing pending account",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			code, err := readLine("OTP code: ")
			if err != nil {
				return err
			}

			ctx, cancel := commandContext()
			defer cancel()

			if err := client.VerifyRegistration(ctx, email, code); err != nil {
				return err
			}
			fmt.Println("account verified")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.MarkFlagRequired("email")
	return cmd
}

func loginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			ctx, cancel := commandContext()
			defer cancel()

			sess, err := client.Login(ctx, email, password)
			if err != nil {
				return err
			}

			fmt.Printf("logged in as %s (%s), landing: %s\n", sess.Claims.Subject, sess.Claims.Role, sess.Landing)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.MarkFlagRequired("email")
	return cmd
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "show the current session's claims",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := commandContext()
			defer cancel()

			claims, err := client.CurrentClaims(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("subject: %s\nrole:    %s\n", claims.Subject, claims.Role)
			if !claims.ExpiresAt.IsZero() {
				fmt.Printf("expires: %s\n", claims.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := commandContext()
			defer cancel()

			if err := client.Logout(ctx); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func forgotPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "run the two-step password reset",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := commandContext()
			defer cancel()

			flow, err := client.StartPasswordReset(ctx, email)
			if err != nil {
				return err
			}

			code, err := readLine("Reset OTP (check your email): ")
			if err != nil {
				return err
			}
			if err := flow.VerifyOTP(ctx, code); err != nil {
				return err
			}

			password, err := readPassword("New password: ")
			if err != nil {
				return err
			}
			if err := flow.Complete(ctx, password); err != nil {
				return err
			}

			fmt.Println("password changed; log in with the new one")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.MarkFlagRequired("email")
	return cmd
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
