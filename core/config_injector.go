package core

import (
	"encoding/json"

	"github.com/smarty/webapk/contracts"
	"github.com/smartystreets/clock"
)

// ConfigInjector writes assets/config.json, the record the templated
// application parses at startup. It runs before the binary patches so every
// request starts from a deterministic baseline.
type ConfigInjector struct {
	clock *clock.Clock
}

func NewConfigInjector() *ConfigInjector {
	return &ConfigInjector{}
}

func (this *ConfigInjector) Inject(archive contracts.ArchiveEditor, request contracts.BuildRequest) error {
	config := contracts.AppConfig{
		URL:                request.TargetURL,
		AppName:            request.AppName,
		PackageID:          request.PackageID,
		StatusBarDark:      request.StatusBarDark,
		EnableOfflineCache: request.EnableOfflineCache,
		GeneratedAt:        this.clock.UTCNow().Unix(),
		Version:            contracts.ConfigSchemaVersion,
	}
	raw, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return archive.ReplaceEntry(contracts.ConfigEntry, raw, contracts.Deflated)
}
