package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/settings/lib/config"
	"github.com/go-i2p/settings/lib/persist"
	"github.com/go-i2p/settings/lib/schema"
	"github.com/go-i2p/settings/lib/store"
	"github.com/go-i2p/settings/lib/util/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = logger.GetGoI2PLogger()

var (
	cfgFile    string
	simulation bool
)

func loadConfig() *config.Config {
	v := viper.New()
	config.SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			log.WithError(err).Error("failed to read config file")
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg := config.FromViper(v)
	if simulation {
		cfg.Paths = config.SimulationPaths()
	}
	return cfg
}

func printRecord(s *schema.Settings) {
	for _, f := range schema.Fields() {
		fmt.Printf("%s.%s = %s\n", f.Section, f.Key, f.Get(s))
	}
}

// bestEffortLoad returns the record the engine would recover: primary,
// then backup, then schema defaults.
func bestEffortLoad(st *store.Store) *schema.Settings {
	paths := st.Paths()
	for _, path := range []string{paths.Primary, paths.Backup} {
		if s, err := st.Load(path); err == nil {
			return s
		}
	}
	s := &schema.Settings{}
	schema.RestoreDefaults(s)
	return s
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the persistence engine until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := persist.New(loadConfig())
			if err := m.Init(); err != nil {
				return err
			}
			signals.RegisterInterruptHandler(func() {
				if err := m.Deinit(); err != nil {
					log.WithError(err).Error("shutdown failed")
				}
				signals.StopHandle()
			})
			signals.Handle()
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings (primary, backup, or defaults)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.New(loadConfig().Paths)
			printRecord(bestEffortLoad(st))
			return nil
		},
	}
}

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <section.key> <value>",
		Short: "Change one settings field and flush it to disk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			field := schema.Lookup(args[0])
			if field == nil {
				return fmt.Errorf("unknown field %q", args[0])
			}

			// normalize the value through the field accessor so "1"
			// compares equal to a stored "true"
			var scratch schema.Settings
			schema.RestoreDefaults(&scratch)
			if err := field.Set(&scratch, args[1]); err != nil {
				return err
			}
			want := field.Get(&scratch)

			cfg := loadConfig()
			m := persist.New(cfg)
			if err := m.Init(); err != nil {
				return err
			}
			defer func() {
				if err := m.Deinit(); err != nil {
					log.WithError(err).Error("shutdown failed")
				}
			}()

			if err := m.Update(func(s *schema.Settings) error {
				return field.Set(s, args[1])
			}); err != nil {
				return err
			}

			// wait out the debounce window so the change lands on disk
			deadline := time.Now().Add(10 * time.Second)
			st := m.Store()
			for time.Now().Before(deadline) {
				if s, err := st.Load(cfg.Paths.Primary); err == nil && field.Get(s) == want {
					fmt.Printf("%s = %s\n", args[0], field.Get(s))
					return nil
				}
				time.Sleep(cfg.Period)
			}
			return errors.New("change was not flushed in time")
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the integrity of the primary and backup files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			st := store.New(cfg.Paths)

			verify := func(name, path string) error {
				_, err := st.Load(path)
				switch {
				case err == nil:
					fmt.Printf("%s: ok (%s)\n", name, path)
				case errors.Is(err, store.ErrNotFound):
					fmt.Printf("%s: missing (%s)\n", name, path)
				default:
					fmt.Printf("%s: INVALID (%s)\n", name, path)
				}
				return err
			}

			primaryErr := verify("primary", cfg.Paths.Primary)
			_ = verify("backup", cfg.Paths.Backup)
			if primaryErr != nil {
				return errors.New("primary settings file is not usable")
			}
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore schema defaults and save them immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.New(loadConfig().Paths)
			s := &schema.Settings{}
			schema.RestoreDefaults(s)
			if err := st.Save(s); err != nil {
				return err
			}
			printRecord(s)
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:           "settings",
		Short:         "Embedded device settings persistence engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file overriding paths and scheduler tunables")
	root.PersistentFlags().BoolVar(&simulation, "simulation", false, "use the UI simulator path set")
	root.AddCommand(runCmd(), showCmd(), setCmd(), checkCmd(), resetCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
