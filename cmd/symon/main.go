// Command symon is the online timed-data-word monitor: it reads an
// automaton (either the low-level HCL graph format or the high-level
// expression language), a signature, and a timed word, and prints one
// line per match.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/symon-run/symon/pkg/hiparse"
	"github.com/symon-run/symon/pkg/lowparse"
	"github.com/symon-run/symon/pkg/printer"
	"github.com/symon-run/symon/pkg/signature"
	"github.com/symon-run/symon/pkg/symon"
	"github.com/symon-run/symon/pkg/timedword"
)

var version = "dev"

// cli is the kong command model. The three mode flags are grouped so
// kong rejects giving more than one of them; giving none selects
// Boolean mode.
type cli struct {
	Boolean        bool   `short:"b" xor:"mode" help:"Run in Boolean (concrete) mode."`
	DataParametric bool   `short:"d" xor:"mode" help:"Run in data-parametric mode."`
	Parametric     bool   `short:"p" xor:"mode" help:"Run in fully parametric mode."`
	Automaton      string `short:"f" required:"" help:"Automaton file." type:"path"`
	Signature      string `short:"s" help:"Event signature file (required unless -n)." type:"path"`
	Input          string `short:"i" help:"Timed word file (default: stdin)." type:"path"`
	HighLevel      bool   `short:"n" help:"Parse the automaton file with the high-level expression syntax."`
	Verbose        bool   `short:"v" help:"Log every consumed event via structured logging; matches are printed as usual and not logged."`
	Version        kong.VersionFlag `short:"V" help:"Print version and exit."`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("symon"),
		kong.Description("Online timed-data-word runtime monitor."),
		kong.Vars{"version": version},
	)

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	log.Logger = logger

	if err := run(c); err != nil {
		log.Error().Err(err).Msg("symon: fatal")
		kctx.Exit(1)
	}
}

func mode(c cli) symon.Mode {
	switch {
	case c.DataParametric:
		return symon.DataParametric
	case c.Parametric:
		return symon.FullyParametric
	default:
		return symon.Boolean
	}
}

func run(c cli) error {
	m := mode(c)

	var (
		automaton *symon.Automaton
		sig       *signature.Signature
		initCs    []symon.NumberConstraint
	)

	automatonFile, err := os.Open(c.Automaton)
	if err != nil {
		return fmt.Errorf("opening automaton file: %w", err)
	}
	defer automatonFile.Close()

	if c.HighLevel {
		result, err := hiparse.Parse(automatonFile, m)
		if err != nil {
			return fmt.Errorf("parsing automaton: %w", err)
		}
		automaton, sig, initCs = result.Automaton, result.Signature, result.InitConstraints
	} else {
		if c.Signature == "" {
			return fmt.Errorf("-s is required unless -n is given")
		}
		sigFile, err := os.Open(c.Signature)
		if err != nil {
			return fmt.Errorf("opening signature file: %w", err)
		}
		defer sigFile.Close()
		sig, err = signature.Load(sigFile)
		if err != nil {
			return fmt.Errorf("loading signature: %w", err)
		}
		automaton, err = lowparse.Parse(automatonFile, c.Automaton, sig)
		if err != nil {
			return fmt.Errorf("parsing automaton: %w", err)
		}
	}

	monitor := symon.NewMonitor(m, automaton)
	if err := monitor.ConstrainInitialParams(initCs); err != nil {
		return fmt.Errorf("applying init constraints: %w", err)
	}

	print := printer.New(m)
	monitor.Matches.Subscribe(matchObserver{w: os.Stdout, p: print})
	if c.Verbose {
		monitor.Diagnostics.Subscribe(diagnosticsObserver{})
	}

	input := io.Reader(os.Stdin)
	if c.Input != "" {
		f, err := os.Open(c.Input)
		if err != nil {
			return fmt.Errorf("opening timed word file: %w", err)
		}
		defer f.Close()
		input = f
	}

	scanner := timedword.New(input, sig)
	for {
		event, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading timed word: %w", err)
		}
		if err := monitor.Consume(event); err != nil {
			return fmt.Errorf("consuming event: %w", err)
		}
	}

	return monitor.Close()
}

type matchObserver struct {
	w io.Writer
	p printer.Printer
}

func (o matchObserver) Notify(match symon.Match) {
	if err := o.p.Print(o.w, match); err != nil {
		log.Warn().Err(err).Msg("symon: writing match")
	}
}

type diagnosticsObserver struct{}

func (diagnosticsObserver) Notify(e symon.Event) {
	log.Info().
		Int32("action", int32(e.Action)).
		Str("timestamp", e.Timestamp.String()).
		Strs("strings", e.Strings).
		Msg("symon: event consumed")
}
