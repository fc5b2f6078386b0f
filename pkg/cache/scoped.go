package cache

// prefixKeyer namespaces every key produced by another Keyer, so one Redis
// can serve several deployments:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "taxoview:prod:")
type prefixKeyer struct {
	Keyer
	prefix string
}

// NewScopedKeyer prepends prefix to every key from inner. A nil inner uses
// the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return prefixKeyer{Keyer: inner, prefix: prefix}
}

func (k prefixKeyer) DatasetKey(source string, opts DatasetKeyOpts) string {
	return k.prefix + k.Keyer.DatasetKey(source, opts)
}

func (k prefixKeyer) LayoutKey(datasetHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.Keyer.LayoutKey(datasetHash, opts)
}

func (k prefixKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.Keyer.ArtifactKey(layoutHash, opts)
}
