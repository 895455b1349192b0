package cache

// Keyer builds cache keys for every entry kind the composer stores.
type Keyer interface {
	// HTTPKey identifies a raw HTTP response body.
	HTTPKey(namespace, key string) string

	// LayerKey identifies the bytes of a layer source (URL or path).
	LayerKey(source string) string

	// ArtifactKey identifies a rendered export for a composed scene.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change export output.
type ArtifactKeyOpts struct {
	Format  string  `json:"format"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	MaxSide int     `json:"max_side"`
	Scale   float64 `json:"scale"`
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

func (DefaultKeyer) LayerKey(source string) string {
	return hashKey("layer", source)
}

func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts)
}

var _ Keyer = DefaultKeyer{}
