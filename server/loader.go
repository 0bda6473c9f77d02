package server

import (
	"os"
	"strings"

	"github.com/lab1702/starfarer/game"
)

// ScenarioLoader fetches a scenario file's raw bytes by name, per spec.md
// §6: "Loadable from either a local file path or a gs://bucket/prefix URL
// (treated as an object-store get)." DESIGN.md records why this stays an
// interface with only a local-file implementation: no repo in the
// retrieval pack imports a cloud object-store client, so a gs:// request
// fails closed with a Transient error rather than pulling in an unwired
// SDK.
type ScenarioLoader interface {
	Load(name string) ([]byte, error)
}

// LocalLoader reads scenario files from disk, relative to Dir.
type LocalLoader struct {
	Dir string
}

func (l LocalLoader) Load(name string) ([]byte, error) {
	if strings.HasPrefix(name, "gs://") {
		return nil, game.NewError(game.Transient, "object-store loading not configured for %s", name)
	}
	path := name
	if l.Dir != "" && !strings.HasPrefix(name, "/") {
		path = l.Dir + "/" + name
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, game.NewError(game.Transient, "reading scenario file %s: %v", path, err)
	}
	return data, nil
}
