// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// cellsim is the command-line host of spec §6: it reads a .cell JSON
// configuration, drives a Simulation to completion, and writes the logged
// series and sensitivity matrix to CSV. Grounded on the teacher's own
// main.go: flag-based argument parsing, a recover-based top-level error
// report, and io.Pf*-colored console messages.
package main

import (
	"encoding/csv"
	"flag"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"cellsim/bench"
	"cellsim/cellin"
	"cellsim/model"
	"cellsim/sim"
)

func main() {
	verbose := flag.Bool("v", false, "verbose error reporting")
	outDir := flag.String("out", "", "override the .cell file's output directory")
	flag.Parse()

	defer func() {
		if err := recover(); err != nil {
			if *verbose {
				chk.Verbose = true
				for i := 8; i > 3; i-- {
					chk.CallerInfo(i)
				}
			}
			io.Pfred("ERROR: %v\n", err)
			os.Exit(1)
		}
	}()

	if flag.NArg() < 1 {
		chk.Panic("usage: cellsim run <file.cell>")
	}
	if flag.Arg(0) != "run" {
		chk.Panic("unknown command %q; only \"run\" is supported", flag.Arg(0))
	}
	if flag.NArg() < 2 {
		chk.Panic("usage: cellsim run <file.cell>")
	}

	io.Pf("cellsim -- cardiac cell simulation driver\n")

	cfgPath := flag.Arg(1)
	data, err := cellin.Read(cfgPath)
	if err != nil {
		chk.Panic("%v", err)
	}
	if *outDir != "" {
		data.DirOut = *outDir
	}
	if err := data.EnsureDirOut(); err != nil {
		chk.Panic("%v", err)
	}

	tmpl, err := data.BuildTemplate()
	if err != nil {
		chk.Panic("%v", err)
	}

	args, err := data.BuildInitArgs(tmpl)
	if err != nil {
		chk.Panic("%v", err)
	}

	clock := bench.New()
	args.Benchmarker = clock

	var run sim.Simulation
	if err := run.Init(args); err != nil {
		chk.Panic("init failed: %v", err)
	}
	defer run.Clean()

	for {
		_, done, err := run.Step()
		if err != nil {
			chk.Panic("step failed: %v", err)
		}
		if done {
			break
		}
	}
	clock.Mark("total")

	io.Pf("finished: %d accepted steps, %d evaluations\n", run.NumberOfSteps(), run.NumberOfEvaluations())

	if err := writeLogs(data, args, filepath.Join(data.DirOut, data.Key)); err != nil {
		chk.Panic("%v", err)
	}

	if *verbose {
		clock.Report()
	}
}

// writeLogs writes one CSV file per logged variable group: the time-series
// log, the root-crossing list (if enabled), and the sensitivity matrix (if
// enabled).
func writeLogs(data *cellin.Data, args sim.InitArgs, base string) error {
	if args.Log != nil {
		path := base + "_log.csv"
		f, err := os.Create(path)
		if err != nil {
			return chk.Err("cellsim: cannot create %q: %v", path, err)
		}
		defer f.Close()

		w := csv.NewWriter(f)
		header := make([]string, 0, len(data.Log))
		var cols []*model.SliceSink
		for _, spec := range data.Log {
			column := spec.Key
			if column == "" {
				column = spec.Name
			}
			header = append(header, column)
			cols = append(cols, args.Log[spec.Name].(*model.SliceSink))
		}
		if err := w.Write(header); err != nil {
			return err
		}
		if len(cols) > 0 {
			for i := range cols[0].Values {
				row := make([]string, len(cols))
				for c, col := range cols {
					row[c] = strconv.FormatFloat(col.Values[i], 'g', -1, 64)
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
		w.Flush()
		io.Pf("wrote %s\n", path)
	}

	if args.RFList != nil {
		roots := args.RFList.(*sim.SliceRootSink)
		path := base + "_roots.csv"
		f, err := os.Create(path)
		if err != nil {
			return chk.Err("cellsim: cannot create %q: %v", path, err)
		}
		defer f.Close()
		w := csv.NewWriter(f)
		w.Write([]string{"time", "direction"})
		for i, t := range roots.Times {
			w.Write([]string{strconv.FormatFloat(t, 'g', -1, 64), strconv.Itoa(roots.Directions[i])})
		}
		w.Flush()
		io.Pf("wrote %s\n", path)
	}

	if args.SensList != nil {
		sens := args.SensList.(*model.SliceMatrixSink)
		path := base + "_sensitivities.csv"
		f, err := os.Create(path)
		if err != nil {
			return chk.Err("cellsim: cannot create %q: %v", path, err)
		}
		defer f.Close()
		w := csv.NewWriter(f)
		for _, row := range sens.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := w.Write(cells); err != nil {
				return err
			}
		}
		w.Flush()
		io.Pf("wrote %s\n", path)
	}

	return nil
}
