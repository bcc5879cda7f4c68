package main

import (
	"log"

	"github.com/smarty/webapk/contracts"
	"github.com/smarty/webapk/core"
	"github.com/smarty/webapk/shell"
	"github.com/smarty/webapk/sign"
)

type App struct {
	config  Config
	storage *shell.DiskFileSystem
}

func NewApp(config Config) *App {
	return &App{config: config, storage: shell.NewDiskFileSystem()}
}

func (this *App) Run() int {
	identity, err := this.loadIdentity()
	if err != nil {
		log.Println("[ERROR]", err)
		return 1
	}

	request, err := this.buildRequest()
	if err != nil {
		log.Println("[ERROR]", err)
		return 1
	}

	forge := core.NewPackageForge(
		this.storage,
		func(path string) (contracts.ArchiveEditor, error) { return shell.OpenZipEditor(path) },
		sign.NewSigner(identity),
		func(fraction float64, stage string) { log.Printf("[%3.0f%%] %s", fraction*100, stage) },
	)

	signedPath, err := forge.Forge(request)
	if err != nil {
		log.Println("[ERROR]", err)
		return 1
	}
	log.Println("Signed archive ready:", signedPath)
	return 0
}

func (this *App) loadIdentity() (*sign.Identity, error) {
	if this.config.KeystorePath == "" {
		log.Println("No keystore supplied, generating a debug identity.")
		return sign.NewDebugIdentity()
	}
	keystore, err := this.storage.ReadFile(this.config.KeystorePath)
	if err != nil {
		return nil, err
	}
	return sign.LoadIdentity(keystore, this.config.KeystorePassword)
}

func (this *App) buildRequest() (contracts.BuildRequest, error) {
	request := contracts.BuildRequest{
		TargetURL:          this.config.TargetURL,
		AppName:            this.config.AppName,
		PackageID:          this.config.PackageID,
		StatusBarDark:      this.config.StatusBarDark,
		EnableOfflineCache: this.config.EnableOfflineCache,
		TemplatePath:       this.config.TemplatePath,
		OutputPath:         this.config.OutputPath,
	}
	if this.config.IconPath == "" {
		return request, nil
	}
	icon, err := this.storage.ReadFile(this.config.IconPath)
	if err != nil {
		return contracts.BuildRequest{}, err
	}
	request.Icon = icon
	return request, nil
}
