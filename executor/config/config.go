package config

// DockerConfig controls the containers compilers run in.
type DockerConfig struct {
	ContainerPoolSize    int    `yaml:"containerPoolSize"`
	DefaultMemoryLimitMB int    `yaml:"defaultMemoryLimitMB"`
	WorkDir              string `yaml:"workDir"`
}

func (DockerConfig) Key() string {
	return "docker"
}

// DefaultImages is used by compilers that name no image for their language.
var DefaultImages = map[string]string{
	"c":   "gcc:13",
	"c++": "gcc:13",
	"go":  "gcc:13",
}

// ImageFor returns image, falling back to the default image for lang.
func ImageFor(image, lang string) (string, bool) {
	if image != "" {
		return image, true
	}
	img, ok := DefaultImages[lang]
	return img, ok
}
