package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spardhafest/spardha/internal/config"
)

var (
	cfgFile    string
	appVersion string
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	return newRootCmd(version, commit, date).Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spardha",
		Short: "Festival site with registration intake and a PIN-gated admin dashboard",
		Long: `Spardha serves the festival landing page, accepts event registrations,
and gives organizers a PIN-gated dashboard to review and export them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./spardha.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite database (default: ~/.spardha)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newRegistrationsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newMCPCmd())

	return cmd
}

func initConfig() {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("spardha")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.spardha")
	}

	viper.SetEnvPrefix("SPARDHA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}

// setDefaults registers every configuration key so that environment
// variables resolve even without a config file.
func setDefaults() {
	d := config.DefaultYAMLConfig()

	viper.SetDefault("server.host", d.Server.Host)
	viper.SetDefault("server.port", d.Server.Port)
	viper.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	viper.SetDefault("server.cors.origins", d.Server.CORS.Origins)

	viper.SetDefault("database.driver", d.Database.Driver)
	viper.SetDefault("database.dsn", d.Database.DSN)
	viper.SetDefault("database.data_dir", d.Database.DataDir)

	viper.SetDefault("auth.session_secret", d.Auth.SessionSecret)
	viper.SetDefault("auth.session_max_age", d.Auth.SessionMaxAge)
	viper.SetDefault("auth.cookie_secure", d.Auth.CookieSecure)
	viper.SetDefault("auth.logins_per_minute", d.Auth.LoginsPerMinute)

	viper.SetDefault("gate.pin", d.Gate.PIN)
	viper.SetDefault("gate.delay", d.Gate.Delay)
	viper.SetDefault("gate.attempts_per_minute", d.Gate.AttemptsPerMinute)

	viper.SetDefault("site.festival_name", d.Site.FestivalName)
	viper.SetDefault("site.content_file", d.Site.ContentFile)

	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.format", d.Logging.Format)
}

// currentSettings reads the effective configuration from viper.
func currentSettings() *config.YAMLConfig {
	return &config.YAMLConfig{
		Server: config.ServerConfig{
			Host:            viper.GetString("server.host"),
			Port:            viper.GetInt("server.port"),
			ShutdownTimeout: viper.GetString("server.shutdown_timeout"),
			CORS:            config.CORSConfig{Origins: viper.GetStringSlice("server.cors.origins")},
		},
		Database: config.DatabaseConfig{
			Driver:  viper.GetString("database.driver"),
			DSN:     viper.GetString("database.dsn"),
			DataDir: viper.GetString("database.data_dir"),
		},
		Auth: config.AuthConfig{
			SessionSecret:   viper.GetString("auth.session_secret"),
			SessionMaxAge:   viper.GetString("auth.session_max_age"),
			CookieSecure:    viper.GetBool("auth.cookie_secure"),
			LoginsPerMinute: viper.GetInt("auth.logins_per_minute"),
		},
		Gate: config.GateConfig{
			PIN:               viper.GetString("gate.pin"),
			Delay:             viper.GetString("gate.delay"),
			AttemptsPerMinute: viper.GetInt("gate.attempts_per_minute"),
		},
		Site: config.SiteConfig{
			FestivalName: viper.GetString("site.festival_name"),
			ContentFile:  viper.GetString("site.content_file"),
		},
		Logging: config.LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}
}
