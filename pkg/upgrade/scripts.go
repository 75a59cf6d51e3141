package upgrade

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type (
	// Script is a named migration script. Names are recorded in the journal and
	// define execution order.
	Script struct {
		Name     string
		Contents string
	}

	// ScriptProvider supplies scripts to the engine.
	ScriptProvider interface {
		Scripts(context.Context) ([]Script, error)
	}

	// ScriptProviderFunc adapts a function to ScriptProvider.
	ScriptProviderFunc func(context.Context) ([]Script, error)

	fsScripts struct {
		fsys fs.FS
	}
)

// Scripts implements ScriptProvider.
func (f ScriptProviderFunc) Scripts(ctx context.Context) ([]Script, error) {
	return f(ctx)
}

// StaticScripts returns a provider for a fixed set of scripts.
func StaticScripts(scripts ...Script) ScriptProvider {
	return ScriptProviderFunc(func(context.Context) ([]Script, error) {
		return scripts, nil
	})
}

// FileSystemScripts loads every .sql file below the root of fsys. Script names
// are the slash-separated paths relative to the root. The filesystem can be a
// regular directory (os.DirFS), an embed.FS or any other fs.FS.
func FileSystemScripts(fsys fs.FS) ScriptProvider {
	return &fsScripts{fsys: fsys}
}

func (p *fsScripts) Scripts(context.Context) ([]Script, error) {
	var scripts []Script

	// NB: WalkDir always walks in lexical order.
	err := fs.WalkDir(p.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".sql") {
			return nil
		}

		data, err := fs.ReadFile(p.fsys, path)
		if err != nil {
			return errors.Wrapf(err, "failed to read script: %s", path)
		}

		scripts = append(scripts, Script{Name: path, Contents: string(data)})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load scripts")
	}

	return scripts, nil
}
