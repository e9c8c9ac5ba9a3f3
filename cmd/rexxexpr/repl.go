package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/log"
	"github.com/peterh/liner"
)

const historyFile = ".rexxexpr_history"

// repl reads clauses interactively until end of input.
func (r *runner) repl() int {
	fmt.Println("rexxexpr: Ctrl+C cancels input, Ctrl+D exits. :vars lists variables.")
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt("rexx> ")
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			log.Errf("%v", err)
			return 1
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if strings.TrimSpace(line) == ":vars" {
			r.listVars()
			continue
		}
		if err := r.run(line); err != nil {
			log.Errf("%v", err)
		}
	}
}

func (r *runner) listVars() {
	names, err := r.vars.Names()
	if err != nil {
		log.Errf("%v", err)
		return
	}
	for _, name := range names {
		v, _, err := r.vars.Lookup(name)
		if err != nil {
			log.Errf("%v", err)
			return
		}
		fmt.Fprintf(r.out, "%s = %q\n", name, v)
	}
}
