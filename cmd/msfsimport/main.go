// msfsimport decodes an MSFS glTF export into a neutral scene
// description and prints it for inspection.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"go.uber.org/zap"

	// Decoder registration for the texture verification pass.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/Faultbox/msfs-gltf/internal/config"
	"github.com/Faultbox/msfs-gltf/internal/logger"
	"github.com/Faultbox/msfs-gltf/pkg/importer"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: msfsimport [options] <file.gltf>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	gltfPath := flag.Arg(0)

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	result, err := importer.Import(importer.Options{
		GltfPath:      gltfPath,
		TextureFolder: cfg.Import.TextureFolder,
		Logger:        logger.Log,
	})
	if err != nil {
		logger.Error("import failed", zap.Error(err))
		os.Exit(1)
	}

	printSummary(result)

	if cfg.Import.CheckTextures {
		checkTextures(result)
	}

	if cfg.Output.DumpPath != "" {
		if err := dumpScene(result, cfg.Output.DumpPath); err != nil {
			logger.Error("writing scene description failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("scene description written", zap.String("path", cfg.Output.DumpPath))
	}
}

func printSummary(result *importer.Result) {
	fmt.Printf("Meshes (%d):\n", len(result.Meshes))
	for _, mesh := range result.Meshes {
		fmt.Printf("  %-32s %6d vertices %6d triangles %3d materials\n",
			mesh.Name, len(mesh.Vertices), len(mesh.Triangles), len(mesh.Materials))
	}

	fmt.Printf("\nMaterials (%d):\n", len(result.Materials))
	for _, mat := range result.Materials {
		path := mat.TexturePath
		if path == "" {
			path = "(no base color texture)"
		}
		fmt.Printf("  %-32s %s\n", mat.Name, path)
	}

	fmt.Printf("\nHierarchy:\n")
	for _, root := range result.Roots {
		printNode(root, 1)
	}

	if len(result.Diagnostics) > 0 {
		fmt.Printf("\nDiagnostics (%d):\n", len(result.Diagnostics))
		for _, d := range result.Diagnostics {
			fmt.Printf("  %-7s %s\n", d.Severity, d.Message)
		}
	}
}

func printNode(node *importer.SceneNode, depth int) {
	fmt.Printf("%s%s (%d triangles)\n",
		strings.Repeat("  ", depth), node.Name, len(node.Mesh.Triangles))
	for _, child := range node.Children {
		printNode(child, depth+1)
	}
}

// checkTextures verifies that every resolved texture exists and has a
// decodable image header.
func checkTextures(result *importer.Result) {
	fmt.Printf("\nTexture check:\n")
	for _, mat := range result.Materials {
		if mat.TexturePath == "" {
			continue
		}
		f, err := os.Open(mat.TexturePath)
		if err != nil {
			fmt.Printf("  MISSING %s\n", mat.TexturePath)
			continue
		}
		cfg, format, err := image.DecodeConfig(f)
		f.Close()
		if err != nil {
			fmt.Printf("  BAD     %s (%v)\n", mat.TexturePath, err)
			continue
		}
		fmt.Printf("  OK      %s (%s %dx%d)\n", mat.TexturePath, format, cfg.Width, cfg.Height)
	}
}
