package contracts

// AppConfig is the payload the templated application reads from
// assets/config.json at startup. The runtime only consumes url and the two
// presentation flags; the remaining fields record provenance.
type AppConfig struct {
	URL                string `json:"url"`
	AppName            string `json:"appName"`
	PackageID          string `json:"packageId"`
	StatusBarDark      bool   `json:"statusBarDark"`
	EnableOfflineCache bool   `json:"enableOfflineCache"`
	GeneratedAt        int64  `json:"generatedAt"`
	Version            string `json:"version"`
}

const ConfigSchemaVersion = "1"
