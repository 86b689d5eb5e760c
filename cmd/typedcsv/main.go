// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command typedcsv sniffs the column schema of one or more CSV files:
// for each input it prints the resolved column names, the narrowest
// type the ladder committed each column to, and the row count. "-"
// (or no arguments at all) reads from stdin.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/SnellerInc/typedcsv/compr"
	"github.com/SnellerInc/typedcsv/csvread"
)

var (
	dashConfig    string
	dashDelimiter string
	dashHeader    bool
	dashConcur    bool
	dashDedup     bool
	dashVerbose   bool
)

func init() {
	flag.StringVar(&dashConfig, "config", "", "path to a JSON or YAML csvread.Config")
	flag.StringVar(&dashDelimiter, "delimiter", "", "single-character field delimiter (overrides -config)")
	flag.BoolVar(&dashHeader, "header", false, "treat the first row of every input as a header (overrides -config)")
	flag.BoolVar(&dashConcur, "concurrent", false, "type columns concurrently (overrides -config)")
	flag.BoolVar(&dashDedup, "dedup", false, "deduplicate repeated large cell values (overrides -config)")
	flag.BoolVar(&dashVerbose, "v", false, "log producer/consumer lifecycle events to stderr")
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"-"}
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "typedcsv:", err)
		os.Exit(1)
	}
	if dashVerbose {
		cfg.Logger = log.New(os.Stderr, "typedcsv: ", log.LstdFlags)
	}

	status := 0
	for _, arg := range args {
		if err := sniffOne(arg, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "typedcsv: %s: %s\n", arg, err)
			status = 1
		}
	}
	os.Exit(status)
}

// loadConfig builds the base Config from -config, if given, then
// applies the single-flag overrides on top of it.
func loadConfig() (*csvread.Config, error) {
	var cfg *csvread.Config
	if dashConfig != "" {
		data, err := os.ReadFile(dashConfig)
		if err != nil {
			return nil, err
		}
		switch filepath.Ext(dashConfig) {
		case ".yaml", ".yml":
			cfg, err = csvread.LoadConfigYAML(data)
		default:
			cfg, err = csvread.LoadConfigJSON(data)
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", dashConfig, err)
		}
	} else {
		cfg = &csvread.Config{}
	}
	if dashDelimiter != "" {
		cfg.Delimiter = dashDelimiter[0]
	}
	if dashHeader {
		cfg.HasHeaderRow = true
	}
	if dashConcur {
		cfg.Concurrent = true
	}
	if dashDedup {
		cfg.DedupLargeCells = true
	}
	return cfg, nil
}

// sniffOne runs the full producer/consumer pipeline over one input
// (transparently decompressing it by extension, "-" meaning stdin) and
// prints its inferred schema as JSON.
func sniffOne(arg string, cfg *csvread.Config) error {
	name := arg
	var f *os.File
	if arg == "-" {
		f = os.Stdin
		name = "-"
	} else {
		var err error
		f, err = os.Open(arg)
		if err != nil {
			return err
		}
		defer f.Close()
	}

	r, err := compr.NewStreamDecompressor(compr.DecompressorForExt(filepath.Ext(arg)), f)
	if err != nil {
		return err
	}

	co := csvread.NewCoordinator(r, cfg)
	res, err := co.Run(csvread.DiscardSinks())
	if err != nil {
		return err
	}

	out := struct {
		File    string           `json:"file"`
		NumRows int              `json:"num_rows"`
		Columns []csvread.Column `json:"columns"`
	}{File: name, NumRows: res.NumRows, Columns: res.Columns}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
