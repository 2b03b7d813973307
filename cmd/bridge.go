package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/accessory"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/bridge"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/config"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/eligibility"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/handlers"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/hapkit"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/logging"
	"github.com/homekit-bridges/homekit-alexa/pkg/middlewares"
)

var _bridgeCmdOpts struct {
	listenPort      uint16
	gracefulTimeout time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
	apiTimeout      time.Duration
	domain          string
	cookie          string
	cookieFile      string
	proxyHost       string
	proxyPort       uint16
	televisions     bool
	maxBuilds       int
	logRequests     bool
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Run the accessory bridge",

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doBridge(); err != nil {
			return err
		}

		return nil
	},

	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkRequiredFlags("alexa.domain")
	},
}

func init() {
	bridgeCmd.Flags().Uint16Var(&_bridgeCmdOpts.listenPort, "listen-port", 8080, "HTTP port number")
	bridgeCmd.Flags().DurationVar(&_bridgeCmdOpts.gracefulTimeout, "graceful-timeout", time.Second*15, "duration to wait for server to finish, eg. 1m or 10s")
	bridgeCmd.Flags().DurationVar(&_bridgeCmdOpts.readTimeout, "read-timeout", time.Second*15, "duration to wait for request read, eg. 1m or 10s")
	bridgeCmd.Flags().DurationVar(&_bridgeCmdOpts.writeTimeout, "write-timeout", time.Second*60, "duration to wait for request write, eg. 1m or 10s")
	bridgeCmd.Flags().DurationVar(&_bridgeCmdOpts.apiTimeout, "api-timeout", time.Second*15, "maximum duration of an Alexa API call, eg. 1m or 10s")
	bridgeCmd.Flags().StringVar(&_bridgeCmdOpts.domain, "domain", "amazon.com", "regional Amazon domain, eg. amazon.de")
	bridgeCmd.Flags().StringVar(&_bridgeCmdOpts.cookie, "cookie", "", "Alexa session cookie")
	bridgeCmd.Flags().StringVar(&_bridgeCmdOpts.cookieFile, "cookie-file", "", "file holding a captured session cookie (see the auth command)")
	bridgeCmd.Flags().StringVar(&_bridgeCmdOpts.proxyHost, "proxy-host", "127.0.0.1", "host the cookie capture proxy is reachable on")
	bridgeCmd.Flags().Uint16Var(&_bridgeCmdOpts.proxyPort, "proxy-port", 2345, "port the cookie capture proxy listens on")
	bridgeCmd.Flags().BoolVar(&_bridgeCmdOpts.televisions, "televisions", false, "publish display-class devices as televisions instead of speakers")
	bridgeCmd.Flags().IntVar(&_bridgeCmdOpts.maxBuilds, "max-builds", 10, "maximum concurrent accessory constructions")
	bridgeCmd.Flags().BoolVar(&_bridgeCmdOpts.logRequests, "log-requests", false, "log requests and responses (only in debug mode)")

	errPanic(viper.GetViper().BindPFlag("https.port", bridgeCmd.Flags().Lookup("listen-port")))
	errPanic(viper.GetViper().BindPFlag("https.graceful-timeout", bridgeCmd.Flags().Lookup("graceful-timeout")))
	errPanic(viper.GetViper().BindPFlag("https.read-timeout", bridgeCmd.Flags().Lookup("read-timeout")))
	errPanic(viper.GetViper().BindPFlag("https.write-timeout", bridgeCmd.Flags().Lookup("write-timeout")))
	errPanic(viper.GetViper().BindPFlag("alexa.api-timeout", bridgeCmd.Flags().Lookup("api-timeout")))
	errPanic(viper.GetViper().BindPFlag("alexa.domain", bridgeCmd.Flags().Lookup("domain")))
	errPanic(viper.GetViper().BindPFlag("alexa.cookie", bridgeCmd.Flags().Lookup("cookie")))
	errPanic(viper.GetViper().BindPFlag("alexa.cookie-file", bridgeCmd.Flags().Lookup("cookie-file")))
	errPanic(viper.GetViper().BindPFlag("alexa.proxy-host", bridgeCmd.Flags().Lookup("proxy-host")))
	errPanic(viper.GetViper().BindPFlag("alexa.proxy-port", bridgeCmd.Flags().Lookup("proxy-port")))
	errPanic(viper.GetViper().BindPFlag("bridge.televisions", bridgeCmd.Flags().Lookup("televisions")))
	errPanic(viper.GetViper().BindPFlag("bridge.max-builds", bridgeCmd.Flags().Lookup("max-builds")))
	errPanic(viper.GetViper().BindPFlag("logging.log-requests", bridgeCmd.Flags().Lookup("log-requests")))

	rootCmd.AddCommand(bridgeCmd)
}

func checkRequiredFlags(needFlags ...string) error {
	missingFlags := []string{}

	for _, f := range needFlags {
		if !viper.IsSet(f) {
			missingFlags = append(missingFlags, f)
		}
	}

	if len(missingFlags) > 0 {
		itemPlural := "item"
		if len(missingFlags) > 1 {
			itemPlural = "items"
		}
		return fmt.Errorf("required config %s `%s` not set", itemPlural, strings.Join(missingFlags, "`, `"))
	}

	return nil
}

// resolveSession returns the session cookie from the config, falling
// back to the cookie file written by the auth command. Without a
// cookie the bridge cannot talk to the API at all, so this is fatal.
func resolveSession(cfg *config.Config) (alexaapi.Session, error) {
	if cfg.Cookie != "" {
		return alexaapi.NewSession(cfg.Cookie), nil
	}

	if cfg.CookieFile != "" {
		var session alexaapi.Session
		if err := session.Load(cfg.CookieFile); err != nil {
			return alexaapi.Session{}, err
		}
		return session, nil
	}

	return alexaapi.Session{}, fmt.Errorf("no session cookie configured; set alexa.cookie or run the auth command")
}

func doBridge() error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	wait := viper.GetDuration("https.graceful-timeout")
	port := viper.GetUint("https.port")
	apiTimeout := viper.GetDuration("alexa.api-timeout")
	maxBuilds := viper.GetInt("bridge.max-builds")

	var logRequests bool
	if viper.GetBool("logging.log-requests") {
		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			logRequests = true
		} else {
			logging.Logger(nil).Warn("log-requests ignored when not in debug mode")
		}
	}

	session, err := resolveSession(cfg)
	if err != nil {
		return err
	}

	log := logging.Logger(nil)
	client := alexaapi.NewLiveClient(cfg.Domain, session).WithTimeout(apiTimeout)
	b := bridge.New(log, client)

	predicates := []eligibility.Predicate{
		eligibility.NewFamilyPredicate(log, eligibility.DefaultAllowedFamilies...),
		eligibility.NewCapabilitiesPredicate(log, eligibility.DefaultRequiredCapabilities...),
	}

	initializers := []accessory.ServiceInitializer{
		accessory.NewInfoInitializer(),
		accessory.NewSpeakerInitializer(log, b, cfg.Televisions),
		accessory.NewTelevisionInitializer(log, b, cfg.Televisions),
	}

	factory := accessory.NewFactory(log, client, hapkit.NewMemoryRuntime(), predicates, initializers, cfg.Televisions).
		WithMaxConcurrentBuilds(maxBuilds)

	accessories, err := factory.CreateAccessories()
	if err != nil {
		return err
	}
	log.Infof("publishing %d accessories", len(accessories))

	ah := handlers.NewAccessoriesHandler(accessories)

	r := mux.NewRouter()
	r.Use(middlewares.NewCorsMw(cors.Options{}))
	r.Use(middlewares.NewLoggingMw(logRequests))
	r.Use(middlewares.NewRecoveryMw())
	r.Use(middlewares.NewCorrelationMw("X-Correlation-ID"))
	r.HandleFunc("/accessories", ah.List).Methods(http.MethodGet)
	r.HandleFunc("/accessories/{id}/characteristics", ah.SetCharacteristic).Methods(http.MethodPut)
	r.HandleFunc("/healthz", handlers.Healthz).Methods(http.MethodGet)

	s := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		ReadTimeout:  viper.GetDuration("https.read-timeout"),
		WriteTimeout: viper.GetDuration("https.write-timeout"),
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}

	logging.Logger(nil).Infof("Serving on port %d", port)
	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger(nil).WithError(err).Error("running server")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Block until we receive a signal
	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	logging.Logger(nil).Info("shutting down")
	if err := s.Shutdown(ctx); err != nil {
		logging.Logger(nil).WithError(err).Errorf("shutting down")
	}
	logging.Logger(nil).Info("exiting")
	return nil
}
