package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spardhafest/spardha/internal/config"
	"github.com/spardhafest/spardha/internal/gate"
	"github.com/spardhafest/spardha/internal/registration"
	"github.com/spardhafest/spardha/internal/server"
	"github.com/spardhafest/spardha/internal/service"
	"github.com/spardhafest/spardha/internal/session"
	"github.com/spardhafest/spardha/internal/site"
)

const banner = `
  ___ ___  _   ___ ___  _  _   _
 / __| _ \/_\ | _ \   \| || | /_\
 \__ \  _/ _ \|   / |) | __ |/ _ \
 |___/_|/_/ \_\_|_\___/|_||_/_/ \_\
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the festival web server",
		Long:  "Start the HTTP server that serves the landing page, the registration API and the admin dashboard.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging, form CSRF checks off)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(cmd *cobra.Command, dev bool) error {
	settings := currentSettings()
	out := cmd.OutOrStdout()

	fmt.Fprint(out, banner)
	fmt.Fprintln(out)

	logger := newLogger(os.Stderr, settings.Logging.Level, settings.Logging.Format, dev)

	shutdownTimeout, err := parseDuration("server.shutdown_timeout", settings.Server.ShutdownTimeout)
	if err != nil {
		return err
	}
	gateDelay, err := parseDuration("gate.delay", settings.Gate.Delay)
	if err != nil {
		return err
	}
	sessionMaxAge, err := parseDuration("auth.session_max_age", settings.Auth.SessionMaxAge)
	if err != nil {
		return err
	}

	// 1. Open the credential and registration store
	store, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	logger.Info("store initialized", "driver", store.Driver(), "data_dir", resolveDataDir())

	// 2. Secrets
	secret := settings.Auth.SessionSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return fmt.Errorf("generate session secret: %w", err)
		}
		logger.Warn("auth.session_secret is not set; using a random secret, sessions will not survive a restart")
	}
	if settings.Gate.PIN == config.DefaultPIN {
		logger.Warn("gate.pin is the default PIN; set SPARDHA_GATE_PIN before going live")
	}

	// 3. Gate, sessions and services
	g, err := gate.New(settings.Gate.PIN, gateDelay)
	if err != nil {
		return fmt.Errorf("init gate: %w", err)
	}
	tickets := gate.NewTickets(deriveKey(secret, "gate-ticket"), gate.DefaultTicketTTL)
	sessions := session.NewManager(
		session.NewCodec(deriveKey(secret, "admin-session"), sessionMaxAge),
		session.CookieOptions{
			Path:     "/",
			Secure:   settings.Auth.CookieSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   sessionMaxAge,
		},
		logger,
	)
	authSvc := service.NewAuthService(store, logger)
	regSvc := registration.NewService(store, logger)

	renderer, err := site.New(settings.Site.FestivalName, settings.Site.ContentFile)
	if err != nil {
		return fmt.Errorf("load site content: %w", err)
	}

	// 4. First run check
	hasAdmin, err := store.HasAnyAdmin(context.Background())
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	}
	if !hasAdmin {
		logger.Warn("no admin account found - run: spardha admin create")
	}

	// 5. Build and start the HTTP server
	srvCfg := server.DefaultConfig()
	srvCfg.Host = settings.Server.Host
	srvCfg.Port = settings.Server.Port
	if shutdownTimeout > 0 {
		srvCfg.ShutdownTimeout = shutdownTimeout
	}
	if len(settings.Server.CORS.Origins) > 0 {
		srvCfg.CORSOrigins = settings.Server.CORS.Origins
	}
	srvCfg.CSRFKey = deriveKey(secret, "csrf")
	srvCfg.CSRFDisabled = dev
	srvCfg.CookieSecure = settings.Auth.CookieSecure
	srvCfg.GateAttemptsPerMinute = settings.Gate.AttemptsPerMinute
	srvCfg.LoginsPerMinute = settings.Auth.LoginsPerMinute

	srv := server.New(srvCfg, server.Deps{
		Store:         store,
		Gate:          g,
		Tickets:       tickets,
		Sessions:      sessions,
		AuthSvc:       authSvc,
		Registrations: regSvc,
		Site:          renderer,
		Logger:        logger,
	})

	base := fmt.Sprintf("http://%s:%d", srvCfg.Host, srvCfg.Port)
	fmt.Fprintf(out, "→ %s %s\n", renderer.Festival(), versionString())
	fmt.Fprintf(out, "→ Listening on %s\n", base)
	fmt.Fprintf(out, "→ Admin:      %s/admin/gate\n", base)
	fmt.Fprintf(out, "→ OpenAPI:    %s/openapi.json\n", base)
	fmt.Fprintf(out, "→ Health:     %s/healthz\n", base)
	fmt.Fprintln(out)

	return srv.ListenAndServe()
}
