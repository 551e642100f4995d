package vdbfile

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/banshee-data/voxelview/internal/volume"
)

func TestInitializeIsIdempotent(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := Initialize(); err != nil {
		t.Fatal(err)
	}
	exts := volume.RegisteredFormats()
	if !slices.Contains(exts, Extension) || !slices.Contains(exts, AliasExtension) {
		t.Errorf("registered formats = %v", exts)
	}
}

func TestUninitialized(t *testing.T) {
	Uninitialize()
	Uninitialize()
	t.Cleanup(func() {
		if err := Initialize(); err != nil {
			t.Fatal(err)
		}
	})

	path := filepath.Join(t.TempDir(), "x.vdbc")
	c, _ := volume.NewContainer()

	err := c.Write(path)
	if !errors.Is(err, volume.ErrFormatNotRegistered) {
		t.Errorf("Container.Write err = %v, want ErrFormatNotRegistered", err)
	}
	if err := WriteContainer(c, path); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("WriteContainer err = %v, want ErrNotInitialized", err)
	}
	if _, err := Open(path); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Open err = %v, want ErrNotInitialized", err)
	}
}
