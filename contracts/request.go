package contracts

type BuildRequest struct {
	TargetURL          string
	AppName            string
	PackageID          string
	Icon               []byte // optional; template icons remain when empty
	StatusBarDark      bool
	EnableOfflineCache bool

	TemplatePath string
	OutputPath   string
}

type BuildStage int

const (
	StageIdle BuildStage = iota
	StageStaged
	StageConfigInjected
	StageManifestPatched
	StageResourcesPatched
	StageIconInjected
	StageSigned
	StageReadyForHandoff
)

var stageLabels = map[BuildStage]string{
	StageIdle:             "idle",
	StageStaged:           "template staged",
	StageConfigInjected:   "configuration injected",
	StageManifestPatched:  "manifest patched",
	StageResourcesPatched: "resource table patched",
	StageIconInjected:     "icons injected",
	StageSigned:           "archive signed",
	StageReadyForHandoff:  "ready for handoff",
}

func (this BuildStage) String() string {
	return stageLabels[this]
}

func (this BuildStage) Fraction() float64 {
	return float64(this) / float64(StageReadyForHandoff)
}

// ProgressListener observes stage transitions; it is the only intermediate
// state visible outside the pipeline.
type ProgressListener func(fraction float64, stage string)
