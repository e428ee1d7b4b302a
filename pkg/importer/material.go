package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/msfs-gltf/pkg/gltf"
)

// portableTextureExt replaces the simulator's compressed DDS container,
// which the sibling texture folder ships alongside as a portable image
// with the same stem.
const portableTextureExt = ".png"

// resolveMaterials builds one material per document material and
// resolves its base-color texture path. Other PBR channels use a vendor
// channel-packing convention and are left unbound on purpose.
func resolveMaterials(doc *gltf.Document, gltfPath, textureFolder string,
	diags *diagnostics) []Material {

	root := resolveTextureRoot(gltfPath, textureFolder)

	materials := make([]Material, len(doc.Materials))
	for i := range doc.Materials {
		m := &doc.Materials[i]

		name := m.Name
		if name == "" {
			name = fmt.Sprintf("material_%d", i)
		}
		materials[i] = Material{Name: name}

		if m.PBRMetallicRoughness == nil || m.PBRMetallicRoughness.BaseColorTexture == nil {
			continue
		}
		texIdx := m.PBRMetallicRoughness.BaseColorTexture.Index
		if texIdx < 0 || texIdx >= len(doc.Textures) {
			diags.warnf("material %q: base color references undefined texture %d", name, texIdx)
			continue
		}
		imgIdx := doc.Textures[texIdx].ImageSource()
		if imgIdx < 0 || imgIdx >= len(doc.Images) {
			diags.warnf("material %q: texture %d references no usable image", name, texIdx)
			continue
		}
		uri := doc.Images[imgIdx].URI
		if uri == "" {
			continue
		}

		if strings.EqualFold(filepath.Ext(uri), ".dds") {
			substituted := uri[:len(uri)-len(".dds")] + portableTextureExt
			diags.warnf("material %q: substituting %s for compressed texture %s",
				name, substituted, uri)
			uri = substituted
		}
		materials[i].TexturePath = filepath.Join(root, filepath.FromSlash(uri))
	}
	return materials
}

// resolveTextureRoot resolves the texture folder argument. A relative
// folder sits next to the model folder, i.e. it is resolved against the
// grandparent directory of the glTF file.
func resolveTextureRoot(gltfPath, textureFolder string) string {
	if filepath.IsAbs(textureFolder) {
		return textureFolder
	}
	return filepath.Join(filepath.Dir(filepath.Dir(gltfPath)), textureFolder)
}
