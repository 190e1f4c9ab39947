package sdf

import (
	"encoding/xml"
	"path/filepath"
)

// Fuel models every demo world pulls in around the exported model.
const (
	GroundPlaneURI = "https://fuel.gazebosim.org/1.0/OpenRobotics/models/Ground Plane"
	SunURI         = "https://fuel.gazebosim.org/1.0/OpenRobotics/models/Sun"
)

// World is an <sdf> document holding a single world.
type World struct {
	XMLName xml.Name  `xml:"sdf"`
	Version string    `xml:"version,attr"`
	World   WorldBody `xml:"world"`
}

// WorldBody is the <world> element.
type WorldBody struct {
	Name     string    `xml:"name,attr"`
	Includes []Include `xml:"include"`
}

// Include pulls a model into a world.
type Include struct {
	URI  string `xml:"uri"`
	Name string `xml:"name,omitempty"`
}

// NewWorld builds a demo world that places the model in modelDir on a ground
// plane under a sun. The model is included by absolute path so the world can
// be launched from anywhere.
func NewWorld(modelName, modelDir string) (*World, error) {
	abs, err := filepath.Abs(modelDir)
	if err != nil {
		return nil, err
	}
	return &World{
		Version: Version,
		World: WorldBody{
			Name: "demo",
			Includes: []Include{
				{URI: SunURI},
				{URI: GroundPlaneURI},
				{URI: filepath.ToSlash(abs), Name: modelName},
			},
		},
	}, nil
}

// WriteWorld writes the demo world for the model to path.
func WriteWorld(path, modelName, modelDir string) error {
	w, err := NewWorld(modelName, modelDir)
	if err != nil {
		return err
	}
	return WriteFile(path, w)
}
