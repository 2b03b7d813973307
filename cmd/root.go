package cmd

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/logging"
)

var _rootCmdOpts struct {
	cfgFile string
	debug   bool
}

var rootCmd = &cobra.Command{
	Use:   "homekit-alexa",
	Short: "Bridge Alexa media devices into a HomeKit-style accessory model",

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _rootCmdOpts.debug {
			logrus.SetLevel(logrus.DebugLevel)
		}

		return logging.Configure(viper.GetViper())
	},

	SilenceUsage: true,
}

// Execute runs the selected sub-command; called once from main
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&_rootCmdOpts.cfgFile, "config", "", "config file (default is $HOME/.homekit-alexa.yaml)")
	rootCmd.PersistentFlags().BoolVar(&_rootCmdOpts.debug, "debug", false, "enable debug logging")

	errPanic(viper.BindPFlag("logging.debug", rootCmd.PersistentFlags().Lookup("debug")))
}

func initConfig() {
	if _rootCmdOpts.cfgFile != "" {
		viper.SetConfigFile(_rootCmdOpts.cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".homekit-alexa")
	}

	viper.SetEnvPrefix("homekit_alexa")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logging.Logger(nil).Debugf("using config file %s", viper.ConfigFileUsed())
	}
}

func errPanic(err error) {
	if err != nil {
		panic(err)
	}
}
