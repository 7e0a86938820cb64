package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opuscine/watchtogether-sdk-go/watchtogether"
)

var cfgFile string

const (
	wsURLKey      = "ws_url"
	restURLKey    = "rest_url"
	staticRootKey = "static_root"
	verboseKey    = "verbose"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "watchctl",
	Short: "Terminal client for watch-together rooms",
	Long: `watchctl joins a watch-together room from the terminal: it resolves
your identity, announces your entry and relays chat both ways over the
room's persistent connection.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.watchctl.yaml)")
	rootCmd.PersistentFlags().String("ws-url", "ws://localhost:8080/OpusCine/watchTogether", "websocket room endpoint")
	rootCmd.PersistentFlags().String("rest-url", "http://localhost:8080/OpusCine", "site API base URL")
	rootCmd.PersistentFlags().String("static-root", "http://localhost:8080/OpusCine/resources", "static asset root for avatar images")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	viper.BindPFlag(wsURLKey, rootCmd.PersistentFlags().Lookup("ws-url"))
	viper.BindPFlag(restURLKey, rootCmd.PersistentFlags().Lookup("rest-url"))
	viper.BindPFlag(staticRootKey, rootCmd.PersistentFlags().Lookup("static-root"))
	viper.BindPFlag(verboseKey, rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in the config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".watchctl")
	}

	viper.SetEnvPrefix("WATCHCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// sdkConfig builds the SDK config from the resolved CLI configuration.
func sdkConfig() watchtogether.Config {
	cfg := watchtogether.DefaultConfig()
	cfg.URL = viper.GetString(wsURLKey)
	cfg.RESTBaseURL = viper.GetString(restURLKey)
	cfg.StaticRoot = viper.GetString(staticRootKey)
	return cfg
}
