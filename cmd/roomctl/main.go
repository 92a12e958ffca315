// roomctl: служебные команды: миграции, сид, расчет членства.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/trome-service/config"
	"github.com/cwrk-planet/trome-service/internal/membership"
	"github.com/cwrk-planet/trome-service/internal/seed"
	"github.com/cwrk-planet/trome-service/internal/service"
	"github.com/cwrk-planet/trome-service/internal/storage"
	"github.com/cwrk-planet/trome-service/internal/transport/dto"
	"github.com/cwrk-planet/trome-service/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type app struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "roomctl",
		Short:         "trome room service tooling",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config.yaml (default: $CONFIG_PATH)")

	root.AddCommand(
		a.migrateCmd(),
		a.seedCmd(),
		a.resolveCmd(),
	)
	return root
}

func (a *app) loadConfig() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Config{
		Env:     logger.ParseEnv(a.cfg.Logging.Env),
		Service: "roomctl",
		Version: a.cfg.Logging.Version,
		Backend: logger.BackendStd,
		Level:   logger.ParseLevel(a.cfg.Logging.Level),
		Debug:   a.cfg.Logging.Debug,
		Output:  os.Stderr,
	})
	return nil
}

func (a *app) openStorage(ctx context.Context) (*storage.Repos, error) {
	return storage.Open(ctx, a.cfg.Storage, "roomctl")
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply the embedded schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repos, err := a.openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer repos.Close()

			if err := repos.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated (%s)\n", repos.Driver)
			return nil
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	var (
		file    string
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "load users, profiles and rooms from a YAML fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				fx  *seed.Fixture
				err error
			)
			if file != "" {
				fx, err = seed.LoadFile(file)
			} else {
				fx, err = seed.Default()
			}
			if err != nil {
				return err
			}

			repos, err := a.openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer repos.Close()

			if migrate {
				if err := repos.Migrate(cmd.Context()); err != nil {
					return err
				}
			}

			st, err := seed.Apply(cmd.Context(), fx, seed.Target{
				Users:    repos.Users,
				Profiles: repos.Profiles,
				Rooms:    repos.Rooms,
			}, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "users=%d profiles=%d rooms=%d skipped=%d\n",
				st.Users, st.Profiles, st.Rooms, st.SkippedRooms)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture path (default: built-in demo data)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply schema before seeding")
	return cmd
}

func (a *app) resolveCmd() *cobra.Command {
	var roomID, viewerID string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "print the membership view of a viewer in a room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repos, err := a.openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer repos.Close()

			opts := membership.Options{
				ProfileTimeout:             a.cfg.Membership.ProfileTimeoutOr(3 * time.Second),
				KeepRecordedModerator:      a.cfg.Membership.KeepRecordedModerator,
				StripModeratorFromSpeakers: *a.cfg.Membership.StripModeratorFromSpeakers,
			}
			members := service.NewMemberService(repos.Rooms, repos.Users, repos.Profiles, opts)

			view, err := members.Resolve(cmd.Context(), roomID, viewerID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dto.Membership(view))
		},
	}
	cmd.Flags().StringVar(&roomID, "room", "", "room id")
	cmd.Flags().StringVar(&viewerID, "viewer", "", "viewer user id")
	_ = cmd.MarkFlagRequired("room")
	_ = cmd.MarkFlagRequired("viewer")
	return cmd
}
