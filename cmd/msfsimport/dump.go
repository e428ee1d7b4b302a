package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/msfs-gltf/pkg/importer"
)

// YAML scene description, a portable snapshot of the import result for
// host adapters that prefer files over linking the library.
type sceneDump struct {
	Meshes      []meshDump       `yaml:"meshes"`
	Materials   []materialDump   `yaml:"materials"`
	Nodes       []nodeDump       `yaml:"nodes"`
	Diagnostics []diagnosticDump `yaml:"diagnostics,omitempty"`
}

type meshDump struct {
	Name      string `yaml:"name"`
	Vertices  int    `yaml:"vertices"`
	Triangles int    `yaml:"triangles"`
	Materials []int  `yaml:"materials,flow,omitempty"`
}

type materialDump struct {
	Name        string `yaml:"name"`
	TexturePath string `yaml:"texture_path,omitempty"`
}

type nodeDump struct {
	Name        string     `yaml:"name"`
	Mesh        string     `yaml:"mesh"`
	Translation [3]float32 `yaml:"translation,flow"`
	Rotation    [4]float32 `yaml:"rotation,flow"` // w, x, y, z
	Scale       [3]float32 `yaml:"scale,flow"`
	Children    []nodeDump `yaml:"children,omitempty"`
}

type diagnosticDump struct {
	Severity string `yaml:"severity"`
	Message  string `yaml:"message"`
}

func dumpScene(result *importer.Result, path string) error {
	dump := sceneDump{}

	for _, mesh := range result.Meshes {
		dump.Meshes = append(dump.Meshes, meshDump{
			Name:      mesh.Name,
			Vertices:  len(mesh.Vertices),
			Triangles: len(mesh.Triangles),
			Materials: mesh.Materials,
		})
	}
	for _, mat := range result.Materials {
		dump.Materials = append(dump.Materials, materialDump{
			Name:        mat.Name,
			TexturePath: mat.TexturePath,
		})
	}
	for _, root := range result.Roots {
		dump.Nodes = append(dump.Nodes, dumpNode(root))
	}
	for _, d := range result.Diagnostics {
		dump.Diagnostics = append(dump.Diagnostics, diagnosticDump{
			Severity: d.Severity.String(),
			Message:  d.Message,
		})
	}

	data, err := yaml.Marshal(&dump)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func dumpNode(node *importer.SceneNode) nodeDump {
	nd := nodeDump{
		Name:        node.Name,
		Mesh:        node.Mesh.Name,
		Translation: [3]float32{node.Translation.X, node.Translation.Y, node.Translation.Z},
		Rotation:    [4]float32{node.Rotation.W, node.Rotation.X, node.Rotation.Y, node.Rotation.Z},
		Scale:       [3]float32{node.Scale.X, node.Scale.Y, node.Scale.Z},
	}
	for _, child := range node.Children {
		nd.Children = append(nd.Children, dumpNode(child))
	}
	return nd
}
