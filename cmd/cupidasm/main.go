// Copyright 2026, The cupid-os authors

package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cupidthecat/cupidasm/driver"
)

var verbose bool

func newDriver() *driver.Driver {
	d := driver.New()
	d.Verbose = verbose
	return d
}

func main() {
	root := &cobra.Command{
		Use:           "cupidasm",
		Short:         "CupidASM x86-32 assembler",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose assembly logging")

	run := &cobra.Command{
		Use:   "run <source.asm>",
		Short: "Assemble a source file and execute it in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDriver()
			img, err := d.Assemble(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%v: %v code bytes, %v data bytes\n",
				args[0], len(img.Code), len(img.Data))
			return d.Exec(img)
		},
	}

	var output string
	build := &cobra.Command{
		Use:   "build <source.asm>",
		Short: "Assemble a source file to an ELF32 executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDriver()
			img, err := d.Assemble(args[0])
			if err != nil {
				return err
			}
			if err := d.Write(img, output); err != nil {
				return err
			}
			fmt.Printf("%v: %v code bytes, %v data bytes\n",
				output, len(img.Code), len(img.Data))
			return nil
		},
	}
	build.Flags().StringVarP(&output, "output", "o", "a.out", "output path")

	root.AddCommand(run, build)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
