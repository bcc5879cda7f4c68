package core

import (
	"github.com/smarty/webapk/contracts"
	"github.com/smartystreets/logging"
)

type ForgeFileSystem interface {
	contracts.FileCopier
	contracts.Deleter
}

type ArchiveOpener func(path string) (contracts.ArchiveEditor, error)

// PackageForge sequences one end-to-end request: stage a working copy of the
// template, inject configuration, patch the two compiled blobs, optionally
// inject icons, sign, hand back the finished archive. Each request owns its
// working file and buffers outright, so concurrent forges never share state;
// the signer is the only shared (read-only) collaborator.
type PackageForge struct {
	logger      *logging.Logger
	validator   *RequestValidator
	config      *ConfigInjector
	patcher     *BinaryEntryPatcher
	icons       *IconInjector
	storage     ForgeFileSystem
	openArchive ArchiveOpener
	signer      contracts.ArchiveSigner
	listener    contracts.ProgressListener
}

func NewPackageForge(
	storage ForgeFileSystem,
	openArchive ArchiveOpener,
	signer contracts.ArchiveSigner,
	listener contracts.ProgressListener,
) *PackageForge {
	return &PackageForge{
		validator:   NewRequestValidator(),
		config:      NewConfigInjector(),
		patcher:     NewBinaryEntryPatcher(NewStringPoolPatcher()),
		icons:       NewIconInjector(),
		storage:     storage,
		openArchive: openArchive,
		signer:      signer,
		listener:    listener,
	}
}

// Forge runs the pipeline and returns the path of the signed archive. The
// first failing stage aborts everything after it; the returned error is a
// contracts.StageError naming that stage. The core never retries.
func (this *PackageForge) Forge(request contracts.BuildRequest) (string, error) {
	err := this.validator.Validate(request)
	if err != nil {
		return "", this.fail(contracts.StageIdle, err, "")
	}

	working := request.OutputPath + ".unsigned"
	err = this.storage.CopyFile(request.TemplatePath, working)
	if err != nil {
		return "", this.fail(contracts.StageStaged, err, working)
	}
	this.report(contracts.StageStaged)

	stage, err := this.mutate(request, working)
	if err != nil {
		return "", this.fail(stage, err, working)
	}

	err = this.signer.Sign(working, request.OutputPath)
	if err != nil {
		return "", this.fail(contracts.StageSigned, err, working)
	}
	this.report(contracts.StageSigned)

	this.cleanup(working)
	this.report(contracts.StageReadyForHandoff)
	return request.OutputPath, nil
}

// mutate applies every in-place edit to the working archive, reporting each
// completed stage. On error it names the stage that was executing.
func (this *PackageForge) mutate(request contracts.BuildRequest, working string) (contracts.BuildStage, error) {
	archive, err := this.openArchive(working)
	if err != nil {
		return contracts.StageStaged, err
	}
	defer func() { _ = archive.Close() }()

	err = this.config.Inject(archive, request)
	if err != nil {
		return contracts.StageConfigInjected, err
	}
	this.report(contracts.StageConfigInjected)

	err = this.patcher.PatchEntry(archive,
		contracts.ManifestEntry, contracts.PlaceholderPackageID, request.PackageID, contracts.Deflated)
	if err != nil {
		return contracts.StageManifestPatched, err
	}
	this.report(contracts.StageManifestPatched)

	// The resource table must remain uncompressed in the installed package.
	err = this.patcher.PatchEntry(archive,
		contracts.ResourceTableEntry, contracts.PlaceholderAppName, request.AppName, contracts.Stored)
	if err != nil {
		return contracts.StageResourcesPatched, err
	}
	this.report(contracts.StageResourcesPatched)

	last := contracts.StageResourcesPatched
	if len(request.Icon) > 0 {
		err = this.icons.Inject(archive, request.Icon)
		if err != nil {
			return contracts.StageIconInjected, err
		}
		this.report(contracts.StageIconInjected)
		last = contracts.StageIconInjected
	}

	return last, archive.Close()
}

func (this *PackageForge) report(stage contracts.BuildStage) {
	if this.listener != nil {
		this.listener(stage.Fraction(), stage.String())
	}
}

func (this *PackageForge) fail(stage contracts.BuildStage, cause error, working string) error {
	this.logger.Printf("build failed during %q: %s", stage, cause)
	if working != "" {
		this.cleanup(working)
	}
	return contracts.StageError{Stage: stage, Cause: cause}
}

// cleanup is best effort: a leftover working file is untidy, not fatal.
func (this *PackageForge) cleanup(working string) {
	err := this.storage.Delete(working)
	if err != nil {
		this.logger.Printf("could not remove working file %q: %s", working, err)
	}
}
