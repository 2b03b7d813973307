package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/config"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/handlers"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/logging"
	"github.com/homekit-bridges/homekit-alexa/pkg/middlewares"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Run the session cookie capture listener",
	Long: `Runs a small web server on the configured proxy host and port that
accepts the Alexa session cookie, stores it in the cookie file, and
exits. The bridge command picks the cookie up from there.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doAuth(); err != nil {
			return err
		}

		return nil
	},

	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkRequiredFlags("alexa.cookie-file")
	},
}

func init() {
	authCmd.Flags().StringVar(&_bridgeCmdOpts.cookieFile, "cookie-file", "", "file to store the captured session cookie in")
	authCmd.Flags().StringVar(&_bridgeCmdOpts.proxyHost, "proxy-host", "127.0.0.1", "address to listen on")
	authCmd.Flags().Uint16Var(&_bridgeCmdOpts.proxyPort, "proxy-port", 2345, "port to listen on")

	errPanic(viper.GetViper().BindPFlag("alexa.cookie-file", authCmd.Flags().Lookup("cookie-file")))
	errPanic(viper.GetViper().BindPFlag("alexa.proxy-host", authCmd.Flags().Lookup("proxy-host")))
	errPanic(viper.GetViper().BindPFlag("alexa.proxy-port", authCmd.Flags().Lookup("proxy-port")))

	rootCmd.AddCommand(authCmd)
}

func doAuth() error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	h := handlers.NewAuthHandler(cfg.CookieFile)

	r := mux.NewRouter()
	r.Use(middlewares.NewLoggingMw(false))
	r.Use(middlewares.NewRecoveryMw())
	r.HandleFunc("/auth", h.Status).Methods(http.MethodGet)
	r.HandleFunc("/auth/cookie", h.SubmitCookie).Methods(http.MethodPost)

	s := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ProxyHost, cfg.ProxyPort),
		ReadTimeout:  time.Second * 15,
		WriteTimeout: time.Second * 15,
		Handler:      r,
	}

	logging.Logger(nil).Infof("Waiting for cookie on %s", s.Addr)
	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger(nil).WithError(err).Error("running capture server")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Wait for a capture or a ctrl-c
	select {
	case <-h.Done():
		logging.Logger(nil).Infof("cookie saved to %s", cfg.CookieFile)
	case <-c:
		logging.Logger(nil).Info("interrupted")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logging.Logger(nil).WithError(err).Errorf("shutting down")
	}

	return nil
}
