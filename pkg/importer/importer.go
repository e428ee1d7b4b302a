package importer

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/msfs-gltf/pkg/gltf"
)

// DefaultTextureFolder is the simulator's conventional sibling texture
// folder name.
const DefaultTextureFolder = "TEXTURE"

// Options configures one import run.
type Options struct {
	GltfPath      string      // Path to the .gltf document
	TextureFolder string      // Texture folder, DefaultTextureFolder when empty
	Logger        *zap.Logger // Optional; a nop logger is used when nil
}

// Import decodes a whole MSFS glTF document into a scene description.
// The operation is atomic to the caller apart from the documented
// per-mesh and per-primitive failure isolation: only a malformed
// document, an unreadable buffer file, or a broken node hierarchy
// return an error. Everything recoverable lands in Result.Diagnostics.
func Import(opts Options) (*Result, error) {
	if opts.TextureFolder == "" {
		opts.TextureFolder = DefaultTextureFolder
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	doc, err := gltf.ParseFile(opts.GltfPath)
	if err != nil {
		return nil, err
	}

	diags := &diagnostics{log: log.Sugar()}
	materials := resolveMaterials(doc, opts.GltfPath, opts.TextureFolder, diags)

	// Buffer handles live exactly as long as mesh decoding, on every
	// exit path.
	store := gltf.OpenBufferStore(doc, filepath.Dir(opts.GltfPath))
	defer store.Close()

	meshes, err := buildMeshes(doc, store, len(materials), diags)
	if err != nil {
		return nil, fmt.Errorf("decoding meshes: %w", err)
	}

	nodes := buildNodes(doc, meshes, diags)
	roots, err := buildHierarchy(doc, nodes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gltf.ErrMalformedDocument, err)
	}

	log.Info("import finished",
		zap.String("gltf", opts.GltfPath),
		zap.Int("meshes", len(meshes)),
		zap.Int("materials", len(materials)),
		zap.Int("roots", len(roots)),
		zap.Int("diagnostics", len(diags.entries)))

	return &Result{
		Meshes:      meshes,
		Roots:       roots,
		Materials:   materials,
		Diagnostics: diags.entries,
	}, nil
}
