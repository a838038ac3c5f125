package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mistral-chatter/internal/telegram"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "webhookctl",
		Short:         "Manage the Telegram webhook registration",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().String("token", "", "Bot token (defaults to TELEGRAM_BOT_TOKEN).")
	cmd.PersistentFlags().String("url", "", "Public base URL for the webhook (defaults to PUBLIC_BASE_URL).")

	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newSetupCmd())
	cmd.AddCommand(newDeleteCmd())
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the currently registered webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := managerFrom(cmd)
			if err != nil {
				return err
			}
			info, err := mgr.Info()
			if err != nil {
				return fmt.Errorf("get webhook info: %w", err)
			}
			out := cmd.OutOrStdout()
			if info.URL == "" {
				_, _ = fmt.Fprintln(out, "No active webhook.")
				return nil
			}
			_, _ = fmt.Fprintf(out, "URL: %s\n", info.URL)
			_, _ = fmt.Fprintf(out, "Pending updates: %d\n", info.PendingUpdateCount)
			if info.LastErrorDate != 0 {
				_, _ = fmt.Fprintf(out, "Last error (%s): %s\n",
					time.Unix(int64(info.LastErrorDate), 0).Format(time.RFC3339), info.LastErrorMessage)
			} else {
				_, _ = fmt.Fprintln(out, "Last error: never")
			}
			return nil
		},
	}
}

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Register the webhook against the public base URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := managerFrom(cmd)
			if err != nil {
				return err
			}
			if err := mgr.Register(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Webhook registered at %s\n", mgr.URL())
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the active webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := managerFrom(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			if !force && !confirm(cmd, "Delete the active webhook? [y/N]: ") {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			if err := mgr.Delete(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Webhook deleted.")
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Delete without confirmation.")
	return cmd
}

func managerFrom(cmd *cobra.Command) (*telegram.WebhookManager, error) {
	_ = godotenv.Load(".env")

	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("bot token is required (--token or TELEGRAM_BOT_TOKEN)")
	}

	baseURL, _ := cmd.Flags().GetString("url")
	if baseURL == "" {
		baseURL = os.Getenv("PUBLIC_BASE_URL")
	}

	return telegram.NewWebhookManager(token, baseURL)
}

func confirm(cmd *cobra.Command, prompt string) bool {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
