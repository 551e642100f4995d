package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"

	"github.com/banshee-data/voxelview/internal/config"
	"github.com/banshee-data/voxelview/internal/handoff"
	"github.com/banshee-data/voxelview/internal/vdbfile"
)

func runHandoff(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("handoff", flag.ContinueOnError)
	fs.SetOutput(out)
	dir := fs.String("dir", "", "Directory for the renderer copy (default: configured scratch dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("handoff needs exactly one container file")
	}
	if *dir == "" {
		*dir = config.LoadDefaultConfig().GetScratchDir()
	}

	c, err := vdbfile.OpenContainer(fs.Arg(0))
	if err != nil {
		return err
	}
	pv, err := handoff.Convert(c, *dir)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"node":   pv,
		"params": pv.Params(),
	})
}
