package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/smarty/webapk/contracts"
	"github.com/smarty/webapk/shell"
)

type Config struct {
	TemplatePath       string
	OutputPath         string
	TargetURL          string
	AppName            string
	PackageID          string
	IconPath           string
	StatusBarDark      bool
	EnableOfflineCache bool
	KeystorePath       string
	KeystorePassword   string
}

func parseConfig() (config Config) {
	flag.StringVar(&config.TemplatePath,
		"template",
		"template.apk",
		"Path to the read-only template archive.",
	)
	flag.StringVar(&config.OutputPath,
		"out",
		"app.apk",
		"Where to write the signed archive.",
	)
	flag.StringVar(&config.TargetURL,
		"url",
		"",
		"Target URL the generated application will open (required).",
	)
	flag.StringVar(&config.AppName,
		"name",
		"",
		fmt.Sprintf("Display name, at most %d characters (required).", len(contracts.PlaceholderAppName)),
	)
	flag.StringVar(&config.PackageID,
		"id",
		"",
		fmt.Sprintf("Dotted lowercase package identifier, at most %d characters (required).", len(contracts.PlaceholderPackageID)),
	)
	flag.StringVar(&config.IconPath,
		"icon",
		"",
		"Optional PNG or JPEG launcher icon; template icons remain when omitted.",
	)
	flag.BoolVar(&config.StatusBarDark,
		"dark-status-bar",
		false,
		"Render the status bar dark.",
	)
	flag.BoolVar(&config.EnableOfflineCache,
		"offline-cache",
		false,
		"Serve cached content when the device is offline.",
	)
	flag.StringVar(&config.KeystorePath,
		"keystore",
		"",
		"PKCS#12 signing keystore; a debug identity is generated when omitted.",
	)

	flag.Usage = func() {
		output := flag.CommandLine.Output()
		_, _ = fmt.Fprintf(output, "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		_, _ = fmt.Fprintln(output)
		_, _ = fmt.Fprintln(output, "  The keystore password is read from WEBAPK_KEYSTORE_PASSWORD.")
	}

	flag.Parse()

	config.KeystorePassword, _ = shell.NewEnvironment().LookupEnv("WEBAPK_KEYSTORE_PASSWORD")

	return config
}
