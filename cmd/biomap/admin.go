package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/totegamma/biomap"
	"github.com/totegamma/biomap/client"
	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/internal/service"
)

func tokenCommand() *cobra.Command {
	var admin bool
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "mint a bearer token signed with this node's secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			domainConf := conf.Domain()
			auth := service.NewAuthService(&domainConf, []byte(conf.Auth.JwtSecret))
			token, err := auth.IssueToken(cmd.Context(), domain.Requester{ID: args[0], IsAdmin: admin}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "grant moderation rights")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for none")
	return cmd
}

func pinsCommand() *cobra.Command {
	var server string
	var token string

	cmd := &cobra.Command{
		Use:   "pins",
		Short: "moderate pins on a running node",
	}
	cmd.PersistentFlags().StringVar(&server, "server", "http://localhost:8000", "node base URL")
	cmd.PersistentFlags().StringVar(&token, "token", os.Getenv("BIOMAP_TOKEN"), "bearer token")

	newClient := func() *client.Client {
		return client.New(server, token)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "pending",
			Short: "list pins awaiting moderation",
			RunE: func(cmd *cobra.Command, args []string) error {
				pins, err := newClient().ListPending(cmd.Context())
				if err != nil {
					return err
				}
				biomap.JsonPrint("", pins)
				return nil
			},
		},
		&cobra.Command{
			Use:   "approved",
			Short: "list published pins",
			RunE: func(cmd *cobra.Command, args []string) error {
				pins, err := newClient().ListApproved(cmd.Context())
				if err != nil {
					return err
				}
				biomap.JsonPrint("", pins)
				return nil
			},
		},
		&cobra.Command{
			Use:   "approve <id>",
			Short: "publish a pending pin",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pin, err := newClient().Approve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				biomap.JsonPrint("approved", pin)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reject <id>",
			Short: "reject a pending pin",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pin, err := newClient().Reject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				biomap.JsonPrint("rejected", pin)
				return nil
			},
		},
	)
	return cmd
}
