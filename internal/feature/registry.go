package feature

// Flag is named such that checking for a feature uses `feature.Flag.Enabled(feature.ExampleFeature)`.
var Flag = New()

// flag names are written in kebab-case
const (
	GetMissingPathAsError FlagName = "get-missing-path-as-error"
)

func init() {
	Flag.SetFlags(map[FlagName]FlagDesc{
		GetMissingPathAsError: {Type: Alpha, Description: "report a get on a path that does not exist as an ENOENT failure instead of a missing attribute."},
	})
}
