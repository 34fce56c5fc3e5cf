package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/meeseeks/nuntius"
	"github.com/meeseeks/nuntius/internal/config"
)

var (
	configPath string
	verbose    bool
	db         *nuntius.Nuntius
)

func Execute() error {
	root := &cobra.Command{
		Use:   "nuntius",
		Short: "Local end-to-end encrypted messenger core",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				p, err := config.DefaultFilePath()
				if err != nil {
					return err
				}
				configPath = p
			}
			conf, err := nuntius.LoadConfig(configPath)
			if err != nil {
				return err
			}

			logger := logrus.New()
			logger.SetLevel(logrus.WarnLevel)
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
			conf.Logger = logger

			db, err = nuntius.New(conf)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if db == nil {
				return nil
			}
			return db.Close()
		},
	}

	root.SilenceUsage = true
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <user config dir>/nuntius/config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(roomCmd(), contactCmd(), sendCmd(), recvCmd(), backupCmd(), restoreCmd())
	return root.Execute()
}
