package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/config"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/eligibility"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/logging"
)

var (
	_devicesAsJSON bool
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the devices on the account and whether they would be bridged",

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doDevices(); err != nil {
			return err
		}

		return nil
	},

	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkRequiredFlags("alexa.domain")
	},
}

func init() {
	devicesCmd.Flags().BoolVar(&_devicesAsJSON, "json", false, "Return the device list as JSON")
	devicesCmd.Flags().StringVar(&_bridgeCmdOpts.domain, "domain", "amazon.com", "regional Amazon domain, eg. amazon.de")
	devicesCmd.Flags().StringVar(&_bridgeCmdOpts.cookie, "cookie", "", "Alexa session cookie")
	devicesCmd.Flags().StringVar(&_bridgeCmdOpts.cookieFile, "cookie-file", "", "file holding a captured session cookie (see the auth command)")

	errPanic(viper.GetViper().BindPFlag("devices.json", devicesCmd.Flags().Lookup("json")))
	errPanic(viper.GetViper().BindPFlag("alexa.domain", devicesCmd.Flags().Lookup("domain")))
	errPanic(viper.GetViper().BindPFlag("alexa.cookie", devicesCmd.Flags().Lookup("cookie")))
	errPanic(viper.GetViper().BindPFlag("alexa.cookie-file", devicesCmd.Flags().Lookup("cookie-file")))

	rootCmd.AddCommand(devicesCmd)
}

type deviceResult struct {
	SerialNumber string   `json:"serialNumber"`
	Name         string   `json:"name"`
	Family       string   `json:"family"`
	Capabilities []string `json:"capabilities"`
	Bridged      bool     `json:"bridged"`
}

func doDevices() error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	session, err := resolveSession(cfg)
	if err != nil {
		return err
	}

	log := logging.Logger(nil)
	client := alexaapi.NewLiveClient(cfg.Domain, session).WithTimeout(time.Second * 15)

	predicates := []eligibility.Predicate{
		eligibility.NewFamilyPredicate(log, eligibility.DefaultAllowedFamilies...),
		eligibility.NewCapabilitiesPredicate(log, eligibility.DefaultRequiredCapabilities...),
	}

	devices, err := client.Devices()
	if err != nil {
		return err
	}

	results := make([]deviceResult, 0, len(devices))
	for _, d := range devices {
		results = append(results, deviceResult{
			SerialNumber: d.SerialNumber,
			Name:         d.AccountName,
			Family:       d.DeviceFamily,
			Capabilities: d.Capabilities,
			Bridged:      eligibility.Eligible(d, predicates),
		})
	}

	if viper.GetBool("devices.json") {
		b, err := json.MarshalIndent(results, "", "    ")
		if err != nil {
			return err
		}

		fmt.Println(string(b))
		return nil
	}

	for _, r := range results {
		verdict := "skipped"
		if r.Bridged {
			verdict = "bridged"
		}
		fmt.Printf("%-20s %-25s %-12s %-8s %s\n",
			r.SerialNumber, r.Name, r.Family, verdict, strings.Join(r.Capabilities, ","))
	}

	return nil
}
