package globe

import "github.com/Faultbox/earthview/internal/assets"

// AssetTable maps slots to texture assets. Slots resolving to the same URI
// share one asset.
type AssetTable struct {
	slots [numAssets]*assets.TextureAsset
	byURI map[string]*assets.TextureAsset
}

// NewAssetTable creates one asset per distinct URI in plan.
func NewAssetTable(plan Plan) *AssetTable {
	t := &AssetTable{byURI: make(map[string]*assets.TextureAsset, numAssets)}
	for id := range t.slots {
		uri := plan.URI(AssetID(id))
		a, ok := t.byURI[uri]
		if !ok {
			a = assets.NewTextureAsset(uri)
			t.byURI[uri] = a
		}
		t.slots[id] = a
	}
	return t
}

// Get returns the asset bound to a slot.
func (t *AssetTable) Get(id AssetID) *assets.TextureAsset { return t.slots[id] }

// Lookup returns the asset for a URI.
func (t *AssetTable) Lookup(uri string) (*assets.TextureAsset, bool) {
	a, ok := t.byURI[uri]
	return a, ok
}

// Slots returns every slot bound to a.
func (t *AssetTable) Slots(a *assets.TextureAsset) []AssetID {
	var ids []AssetID
	for id, s := range t.slots {
		if s == a {
			ids = append(ids, AssetID(id))
		}
	}
	return ids
}

// Ready reports whether every listed slot has its texture.
func (t *AssetTable) Ready(ids ...AssetID) bool {
	for _, id := range ids {
		if !t.slots[id].Ready() {
			return false
		}
	}
	return true
}

// AnyFailed reports whether a listed slot failed to load.
func (t *AssetTable) AnyFailed(ids ...AssetID) bool {
	for _, id := range ids {
		if t.slots[id].Failed() {
			return true
		}
	}
	return false
}
