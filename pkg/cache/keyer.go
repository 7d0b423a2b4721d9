package cache

// Keyer derives cache keys. Keys depend only on content hashes, so the same
// descriptor rendered against the same catalog always maps to the same key.
type Keyer interface {
	// ArtifactKey returns the key of one rendered artifact.
	ArtifactKey(descriptorHash, catalogHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey returns "artifact:<sha256>" over both hashes and the options.
func (DefaultKeyer) ArtifactKey(descriptorHash, catalogHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", descriptorHash, catalogHash, opts)
}
