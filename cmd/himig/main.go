package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/himigchat/himig/internal/profile"
	"github.com/himigchat/himig/internal/version"
	"github.com/himigchat/himig/server"
	"github.com/himigchat/himig/store"
	"github.com/himigchat/himig/store/db"
)

const greetingBanner = `
Himig — OPM music chat
`

var rootCmd = &cobra.Command{
	Use:   "himig",
	Short: "A chat service for OPM music recommendations",
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Data:    viper.GetString("data"),
			Driver:  viper.GetString("driver"),
			DSN:     viper.GetString("dsn"),
			Secret:  viper.GetString("secret"),
			Version: version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			cancel()
			slog.Error("failed to create db driver", slog.String("error", err.Error()))
			return
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			cancel()
			slog.Error("failed to migrate database", slog.String("error", err.Error()))
			return
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			cancel()
			slog.Error("failed to create server", slog.String("error", err.Error()))
			return
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			slog.Info("received signal, shutting down", slog.String("signal", sig.String()))
			s.Shutdown(ctx)
			cancel()
		}()

		printGreetings(instanceProfile)

		if err := s.Start(ctx); err != nil {
			if err.Error() != "http: Server closed" {
				slog.Error("failed to start server", slog.String("error", err.Error()))
			}
		}

		// Wait for CTRL-C.
		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8230)
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("secret", "himig")

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8230, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")
	rootCmd.PersistentFlags().String("secret", "himig", "secret used to sign session tokens")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("himig")
	viper.AutomaticEnv()
}

func printGreetings(profile *profile.Profile) {
	fmt.Print(greetingBanner)
	fmt.Printf("Version %s has been started on port %d\n", profile.Version, profile.Port)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to execute command", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
