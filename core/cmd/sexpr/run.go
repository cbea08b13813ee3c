package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	sexpr "github.com/rphilander/sexpr/core"
)

var (
	runExpression bool
	runTime       bool
)

var runCmd = &cobra.Command{
	Use:   "run [file...]",
	Short: "Run programs",
	Long: `Run programs read from files, or from the arguments themselves with -e.
All programs share one session, so later ones can call functions defined by
earlier ones. Printed output comes first, then "=> " and the result.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if runExpression && len(args) == 0 {
			return errors.New("-e needs at least one program argument")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		srcs, err := runReadSources(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		timeout, _ := cfg.Timeout()
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		in := sexpr.NewInterp(interpOptions()...)
		for _, src := range srcs {
			if err := runOne(ctx, os.Stdout, in, src, runTime); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
	},
}

func runReadSources(args []string) ([]string, error) {
	srcs := make([]string, len(args))
	if runExpression {
		copy(srcs, args)
		return srcs, nil
	}
	if len(args) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		return []string{string(b)}, nil
	}
	for i, path := range args {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		srcs[i] = string(b)
	}
	return srcs, nil
}

// runOne executes src on in and writes its output and result to w. The
// output printed before a failure is still written.
func runOne(ctx context.Context, w io.Writer, in *sexpr.Interp, src string, showTime bool) error {
	start := time.Now()
	out := in.Exec(ctx, src)
	if out.Output != "" {
		fmt.Fprintln(w, out.Output)
	}
	if out.Failed() {
		return out.Err
	}
	fmt.Fprintf(w, "=> %s\n", out.Value)
	if showTime {
		fmt.Fprintf(w, "(%v)\n", time.Since(start).Round(time.Microsecond))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&runExpression, "expression", "e", false,
		"Interpret arguments as programs")
	runCmd.Flags().BoolVar(&runTime, "time", false,
		"Print how long each program took")
}
