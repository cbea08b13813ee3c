package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	sexpr "github.com/rphilander/sexpr/core"
)

const (
	promptMain = "sexpr> "
	promptCont = "  ...> "
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Long: `Start an interactive session. Definitions persist between entries.
Type :quit to exit, :funcs to list defined functions.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(repl())
	},
}

func replHistoryPath() string {
	if filepath.IsAbs(cfg.ReplHistory) {
		return cfg.ReplHistory
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, cfg.ReplHistory)
}

func repl() int {
	fmt.Printf("%s repl. Type :quit to exit.\n", rootCmd.Name())
	histPath := replHistoryPath()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	in := sexpr.NewInterp(interpOptions()...)
	for {
		src, ok := readEntry(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if replCommand(os.Stdout, in, trimmed) {
				return 0
			}
			continue
		}

		if err := runOne(context.Background(), os.Stdout, in, src, false); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
	}
}

// replCommand handles a ":" command and reports whether the session should
// end.
func replCommand(w io.Writer, in *sexpr.Interp, cmd string) (exit bool) {
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":funcs":
		for _, name := range in.Functions() {
			fn, _ := in.Lookup(name)
			fmt.Fprintln(w, signature(name, fn.Params))
		}
	case ":builtins":
		fmt.Fprintln(w, strings.Join(sexpr.Builtins(), " "))
	default:
		fmt.Fprintln(w, "unknown command. Type :quit to exit.")
	}
	return false
}

func signature(name string, params []string) string {
	if len(params) == 0 {
		return "(" + name + ")"
	}
	return "(" + name + " " + strings.Join(params, " ") + ")"
}

// readEntry reads lines until the brackets and quotes balance.
func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !sexpr.Incomplete(b.String()) {
			return b.String(), true
		}
	}
}

func init() {
	rootCmd.AddCommand(replCmd)
}
