package artifact

// Output layout
const (
	DefaultDir    = "Images"
	ReferenceFile = "reference.png"
	StableFile    = "stable_screenshot.png"
)
