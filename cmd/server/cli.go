package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"marketplace_refunds/internal/conf"
	"marketplace_refunds/internal/dao/mongodb"
	"marketplace_refunds/internal/logger"
	"marketplace_refunds/internal/provider"
	"marketplace_refunds/pkg/relation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "marketplace_refunds",
	Short: "Marketplace refund reconciliation service",
	Long:  `Issues refunds against the payment provider and keeps the refund ledger reconciled with orders.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*conf.AppConfig, string, error) {
	confFile, _ := cmd.Flags().GetString("config")
	appConfig, err := conf.NewConfig(confFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	port, _ := cmd.Flags().GetInt("port")
	if port > 0 {
		appConfig.Port = port
	}

	return appConfig, confFile, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the refund console server",
	Long:  `Starts the HTTP API for back-office operators together with the outbox relay.`,
	Run: func(cmd *cobra.Command, args []string) {
		appConfig, confFile, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		app, cleanup, err := InitializeServerApp(appConfig, provider.ConfigFile(confFile))
		if err != nil {
			log.Fatalf("failed to init server app: %v", err)
		}
		defer cleanup()

		if err := app.Run(); err != nil {
			log.Fatalf("failed to run server app: %v", err)
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates the MongoDB indexes",
	Long:  `Creates the unique and lookup indexes the refund ledger depends on. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		appConfig, _, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		zapLogger, logCleanup, err := logger.NewLogger(appConfig.LogConfig, provider.ProvideAppMode(appConfig))
		if err != nil {
			log.Fatalf("failed to init logger: %v", err)
		}
		defer logCleanup()

		client, cleanup, err := mongodb.NewMongoDB(appConfig.MongodbConfig)
		if err != nil {
			log.Fatalf("failed to connect to mongodb: %v", err)
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		db := provider.ProvideDatabase(client, appConfig.MongodbConfig)
		if err := mongodb.EnsureIndexes(ctx, db, zapLogger); err != nil {
			zapLogger.Fatal("failed to ensure indexes", zap.Error(err))
		}
		zapLogger.Info("migration finished", zap.String("db", appConfig.MongodbConfig.DB))
	},
}

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Manages operator access to the refund console",
}

func withRelationClient(cmd *cobra.Command, fn func(ctx context.Context, client *relation.Client) error) {
	appConfig, _, err := loadConfig(cmd)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	client, cleanup, err := provider.ProvideRelationClient(appConfig.KetoConfig)
	if err != nil {
		log.Fatalf("failed to connect to keto: %v", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := fn(ctx, client); err != nil {
		log.Fatalf("%s failed: %v", cmd.CommandPath(), err)
	}
}

var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Allows an operator to issue refunds",
	Run: func(cmd *cobra.Command, args []string) {
		userId, _ := cmd.Flags().GetString("user")
		withRelationClient(cmd, func(ctx context.Context, client *relation.Client) error {
			if err := client.AddUserResourceRole(ctx, userId, relation.ConsoleNamespace, provider.RefundsObject, relation.RoleOperate); err != nil {
				return err
			}
			fmt.Printf("granted %s on %s to %s\n", relation.RoleOperate, provider.RefundsObject, userId)
			return nil
		})
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Removes an operator's refund access",
	Run: func(cmd *cobra.Command, args []string) {
		userId, _ := cmd.Flags().GetString("user")
		withRelationClient(cmd, func(ctx context.Context, client *relation.Client) error {
			if err := client.RemoveUserResourceRole(ctx, userId, relation.ConsoleNamespace, provider.RefundsObject, relation.RoleOperate); err != nil {
				return err
			}
			fmt.Printf("revoked %s on %s from %s\n", relation.RoleOperate, provider.RefundsObject, userId)
			return nil
		})
	},
}

var listAccessCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists operators allowed to issue refunds",
	Run: func(cmd *cobra.Command, args []string) {
		withRelationClient(cmd, func(ctx context.Context, client *relation.Client) error {
			users, err := client.ListUsersWithRole(ctx, relation.ConsoleNamespace, provider.RefundsObject, relation.RoleOperate)
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Println(u)
			}
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{grantCmd, revokeCmd} {
		c.Flags().StringP("user", "u", "", "operator user id")
		_ = c.MarkFlagRequired("user")
	}
	accessCmd.AddCommand(grantCmd, revokeCmd, listAccessCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(accessCmd)
	rootCmd.PersistentFlags().IntP("port", "p", 0, "Port for the server to listen on, overrides the value in the config file")
	rootCmd.PersistentFlags().StringP("config", "c", "internal/conf/config.yaml", "path to config file")
}
