package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/expense-reporting/internal/notification"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

var (
	notifyCmd = &cobra.Command{
		Use:   "notify",
		Short: "Send a system notification to a user",
		Long:  `Persist a system notification and push it to the user's open connections. Live delivery across instances needs redis.`,
		RunE:  runNotify,
	}
	notifyUserID  int64
	notifyTitle   string
	notifyMessage string
)

func init() {
	notifyCmd.Flags().Int64Var(&notifyUserID, "user", 0, "recipient user id")
	notifyCmd.Flags().StringVar(&notifyTitle, "title", "", "notification title")
	notifyCmd.Flags().StringVar(&notifyMessage, "message", "", "notification body")
	_ = notifyCmd.MarkFlagRequired("user")
	_ = notifyCmd.MarkFlagRequired("title")
}

func runNotify(cmd *cobra.Command, _ []string) error {
	if notifyUserID <= 0 {
		return errors.New("--user must be a positive id")
	}

	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}
	logger.Init(cfg.Environment)
	log := logger.LoggerWrapper()

	ctx := context.Background()
	deps, err := initializeDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	deps.Dispatcher.Start()
	defer deps.Dispatcher.Shutdown()

	resp, err := deps.Services.Notification.Notify(ctx, notification.Message{
		UserID: notifyUserID,
		Title:  notifyTitle,
		Body:   notifyMessage,
		Type:   notification.TypeSystem,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "notification %d sent to user %d\n", resp.ID, notifyUserID)
	return nil
}
