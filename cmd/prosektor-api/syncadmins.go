package main

import (
	"context"
	"fmt"

	"prosektor-api/internal/config"
	"prosektor-api/internal/observability/logger"
	"prosektor-api/internal/provider"
	"prosektor-api/internal/superadmin"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncAdminsCmd = &cobra.Command{
	Use:   "sync-admins",
	Short: "Sync the super admin allow-list",
	Long:  `Promote every allow-listed account at the identity provider and report accounts on the list with no matching user`,
	RunE:  runSyncAdmins,
}

func init() {
	rootCmd.AddCommand(syncAdminsCmd)
}

func runSyncAdmins(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.OTELServiceName, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	gateway := provider.NewHTTPGateway(cfg.ProviderURL, cfg.ProviderServiceKey)
	svc := superadmin.NewService(gateway, cfg.GetSuperAdminEmails(), log)

	log.Info(ctx, "starting super admin sync", zap.Int("allowlist_size", len(cfg.GetSuperAdminEmails())))

	report, err := svc.StartupSync(ctx)
	if err != nil {
		log.Error(ctx, "sync failed", zap.Error(err))
		return fmt.Errorf("failed to sync super admins: %w", err)
	}

	log.Info(ctx, "sync completed",
		zap.Int("scanned", report.Scanned),
		zap.Int("promoted", report.Promoted),
		zap.Int("missing", len(report.Missing)),
	)
	fmt.Printf("✓ Sync completed: %d accounts scanned, %d promoted, %d allow-list entries unmatched\n",
		report.Scanned, report.Promoted, len(report.Missing))

	return nil
}
