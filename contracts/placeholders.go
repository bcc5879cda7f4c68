package contracts

// The template-producing build and this patcher must agree on these byte
// sequences exactly; they are the versioned contract between the two.
// Replacement values can only shrink, never grow, so each placeholder is at
// least as long as any value the caller is allowed to accept.
const (
	PlaceholderContractVersion = "1"

	PlaceholderPackageID = "com.webtemplate.placeholder0" // 28 characters
	PlaceholderAppName   = "Web Template Placeholder Name" // 29 characters
)

const (
	ManifestEntry      = "AndroidManifest.xml"
	ResourceTableEntry = "resources.arsc"
	ConfigEntry        = "assets/config.json"
)

type IconBucket struct {
	Path   string
	Pixels int
}

// The five launcher density tiers; all five are rewritten whenever an icon is
// supplied, stored verbatim the way launcher assets conventionally are.
var IconBuckets = []IconBucket{
	{Path: "res/mipmap-mdpi/ic_launcher.png", Pixels: 48},
	{Path: "res/mipmap-hdpi/ic_launcher.png", Pixels: 72},
	{Path: "res/mipmap-xhdpi/ic_launcher.png", Pixels: 96},
	{Path: "res/mipmap-xxhdpi/ic_launcher.png", Pixels: 144},
	{Path: "res/mipmap-xxxhdpi/ic_launcher.png", Pixels: 192},
}
