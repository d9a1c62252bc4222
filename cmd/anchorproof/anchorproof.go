// Copyright 2025-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

// This is a command line tool for computing blob digests and checking
// inclusion and completeness proofs offline.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf"
	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/anchorproof/cmd/genericconf"
	"github.com/offchainlabs/anchorproof/cmd/util/confighelpers"
	"github.com/offchainlabs/anchorproof/proofs/compound"
)

const commands = "digest, verify-inclusion, verify-completeness, inspect"

var errConfigDumped = errors.New("configuration dumped")

func main() {
	args := os.Args
	if len(args) < 2 {
		fmt.Println("Usage: anchorproof [" + strings.ReplaceAll(commands, ", ", "|") + "] ...")
		os.Exit(1)
	}
	err := run(args[1], args[2:], os.Stdout)
	if errors.Is(err, errConfigDumped) || errors.Is(err, confighelpers.ErrUsage) {
		return
	}
	if err != nil {
		log.Error("anchorproof failed", "command", args[1], "err", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, out io.Writer) error {
	switch strings.ToLower(command) {
	case "digest":
		return digestBlobs(args, out)
	case "verify-inclusion":
		return verifyInclusion(args, out)
	case "verify-completeness":
		return verifyCompleteness(args, out)
	case "inspect":
		return inspectProof(args, out)
	default:
		return fmt.Errorf("unknown command '%s', valid commands are: %s", command, commands)
	}
}

// CommonConfig is shared by every subcommand.
type CommonConfig struct {
	Log      genericconf.LogConfig   `koanf:"log"`
	Conf     genericconf.ConfConfig  `koanf:"conf"`
	Verifier compound.VerifierConfig `koanf:"verifier"`
	Color    bool                    `koanf:"color"`
}

func CommonConfigAddOptions(f *flag.FlagSet) {
	genericconf.LogConfigAddOptions("log", f)
	genericconf.ConfConfigAddOptions("conf", f)
	compound.VerifierConfigAddOptions("verifier", f)
	f.Bool("color", false, "color the verification result")
}

func beginParse(name string, args []string, addOptions func(*flag.FlagSet)) (*koanf.Koanf, error) {
	f := flag.NewFlagSet("anchorproof "+name, flag.ContinueOnError)
	CommonConfigAddOptions(f)
	addOptions(f)
	return confighelpers.BeginCommonParse(f, args)
}

// apply dumps the configuration when asked, then sets up logging and
// resolves the verifier configuration.
func (c *CommonConfig) apply(k *koanf.Koanf) (compound.Config, error) {
	if c.Conf.Dump {
		if err := confighelpers.DumpConfig(k); err != nil {
			return compound.Config{}, err
		}
		return compound.Config{}, errConfigDumped
	}
	if err := genericconf.InitLog(&c.Log, genericconf.DefaultPathResolver("")); err != nil {
		return compound.Config{}, err
	}
	if err := c.Verifier.Validate(); err != nil {
		return compound.Config{}, fmt.Errorf("invalid verifier configuration: %w", err)
	}
	return c.Verifier.Build()
}
