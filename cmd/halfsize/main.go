package main

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/johnmcfarlane/HalfSize"
	"github.com/johnmcfarlane/HalfSize/tga"
	"github.com/urfave/cli/v2"
)

const defaultDB = "halfsize.db"

const usage = "usage: halfsize <input.tga> <output.tga>"

// Process exit codes. 1 and 2 are reserved.
const (
	exitBadArgs           = 3
	exitBadInputFile      = 4
	exitBadOutputFile     = 5
	exitBadInputFormat    = 6
	exitUnsupportedFormat = 7
)

// exitError maps a conversion error to its exit code and single-line
// diagnostic.
func exitError(err error) cli.ExitCoder {
	var (
		open        *halfsize.OpenError
		write       *halfsize.WriteError
		format      tga.FormatError
		unsupported tga.UnsupportedError
	)
	switch {
	case errors.As(err, &open):
		if open.Output {
			return cli.Exit("failed to open output file", exitBadOutputFile)
		}
		return cli.Exit("failed to open input file", exitBadInputFile)
	case errors.As(err, &write):
		return cli.Exit("failed to open output file", exitBadOutputFile)
	case errors.As(err, &format):
		return cli.Exit("failed to read input file", exitBadInputFormat)
	case errors.As(err, &unsupported):
		return cli.Exit("unsupported input format", exitUnsupportedFormat)
	}
	return cli.Exit(err.Error(), 1)
}

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "halfsize"
	app.Usage = "TGA half-size image converter"
	app.Version = "1.0.0"
	app.ArgsUsage = "<input.tga> <output.tga>"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"HALFSIZE_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Action = func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.Exit(usage, exitBadArgs)
		}

		if err := halfsize.ConvertFile(c.Args().Get(0), c.Args().Get(1)); err != nil {
			return exitError(err)
		}

		return nil
	}

	app.Commands = []*cli.Command{
		{
			Name:        "scan",
			Usage:       "Convert every TGA image under a directory",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "suffix",
					Value: halfsize.DefaultSuffix,
					Usage: "suffix appended to converted file names",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := log.New(io.Discard, "", 0)
				if c.Bool("verbose") {
					logger.SetOutput(os.Stderr)
				}

				m, err := halfsize.New(c.String("db"), logger)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				if err := m.Scan(c.Args().First(), c.String("suffix")); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
