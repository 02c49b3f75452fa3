package builder

import (
	"errors"
	"path"
	"strings"

	"github.com/stacklok/vicius-manifest-server/internal/github"
)

var (
	errNoAsset             = errors.New("no matching asset")
	errMissingArchitecture = errors.New("architecture not provided")
)

// selectAsset returns the asset of assets chosen by sel for arch.
func selectAsset(assets []github.Asset, sel AssetSelector, arch string) (*github.Asset, error) {
	arch = strings.ToLower(strings.TrimSpace(arch))
	if sel.Match == AssetMatchArchitecture && arch == "" {
		return nil, errMissingArchitecture
	}

	for i := range assets {
		asset := &assets[i]
		if sel.Pattern != "" {
			ok, err := path.Match(sel.Pattern, asset.Name)
			if err != nil || !ok {
				continue
			}
		}
		if sel.Match == AssetMatchArchitecture && !strings.Contains(strings.ToLower(asset.Name), arch) {
			continue
		}
		return asset, nil
	}
	return nil, errNoAsset
}
