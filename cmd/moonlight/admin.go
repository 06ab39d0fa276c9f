package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moonlightbl/moonlight"
	"github.com/moonlightbl/moonlight/catalog"
)

var adminPassword string

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an admin account",
	Long: `Create an admin account in the catalog database.

The password is taken from --password or read from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, store *catalog.Store, password string) error {
			if _, err := store.CreateAdminUser(ctx, args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %q\n", args[0])
			return nil
		})
	},
}

var adminPasswordCmd = &cobra.Command{
	Use:   "password <username>",
	Short: "Change the password of an admin account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, store *catalog.Store, password string) error {
			err := store.SetAdminPassword(ctx, args[0], password)
			if errors.Is(err, catalog.ErrNotFound) {
				return fmt.Errorf("no admin named %q", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %q\n", args[0])
			return nil
		})
	},
}

func init() {
	adminCmd.PersistentFlags().StringVarP(&adminPassword, "password", "p", "", "Account password (read from stdin when empty)")
}

func withCatalog(cmd *cobra.Command, fn func(context.Context, *catalog.Store, string) error) error {
	cfg, err := moonlight.LoadConfig(configPath)
	if err != nil {
		return err
	}
	password := adminPassword
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	store, err := catalog.NewStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	err = fn(cmd.Context(), store, password)
	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		return errors.New(verr.Message)
	}
	return err
}
