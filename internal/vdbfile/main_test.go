package vdbfile

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	if err := Initialize(); err != nil {
		panic(err)
	}
	code := m.Run()
	Uninitialize()
	os.Exit(code)
}
