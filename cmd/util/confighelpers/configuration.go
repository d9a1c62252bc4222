// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package confighelpers

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/mitchellh/mapstructure"
	flag "github.com/spf13/pflag"
)

var ErrUsage = errors.New("usage requested")

// BeginCommonParse layers configuration in increasing priority: flag
// defaults, --conf.file files, --conf.string, environment variables under
// --conf.env-prefix, and finally flags set on the command line.
func BeginCommonParse(f *flag.FlagSet, args []string) (*koanf.Koanf, error) {
	if err := f.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, ErrUsage
		}
		return nil, err
	}
	if f.NArg() != 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", strings.Join(f.Args(), " "))
	}

	k := koanf.New(".")
	if f.Lookup("conf.file") != nil {
		configFiles, err := f.GetStringSlice("conf.file")
		if err != nil {
			return nil, err
		}
		for _, configFile := range configFiles {
			if len(configFile) == 0 {
				continue
			}
			if err := k.Load(file.Provider(configFile), json.Parser()); err != nil {
				return nil, fmt.Errorf("error loading local config file %v: %w", configFile, err)
			}
		}
	}
	if f.Lookup("conf.string") != nil {
		configString, err := f.GetString("conf.string")
		if err != nil {
			return nil, err
		}
		if len(configString) > 0 {
			if err := k.Load(rawbytes.Provider([]byte(configString)), json.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config string: %w", err)
			}
		}
	}
	if f.Lookup("conf.env-prefix") != nil {
		envPrefix, err := f.GetString("conf.env-prefix")
		if err != nil {
			return nil, err
		}
		if err := loadEnvironmentVariables(k, envPrefix); err != nil {
			return nil, err
		}
	}

	// Unchanged flags only fill keys nothing above has set.
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("error loading command line flags: %w", err)
	}
	return k, nil
}

func loadEnvironmentVariables(k *koanf.Koanf, envPrefix string) error {
	if len(envPrefix) == 0 {
		return nil
	}
	return k.Load(env.ProviderWithValue(envPrefix+"_", ".", func(key string, value string) (string, interface{}) {
		// FOO_BAR__BAZ becomes bar-baz under the foo prefix.
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix+"_"))
		key = strings.ReplaceAll(key, "__", "-")
		key = strings.ReplaceAll(key, "_", ".")
		if strings.Contains(value, ",") {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil)
}

// EndCommonParse decodes k into config, rejecting keys that config has no
// field for.
func EndCommonParse(k *koanf.Koanf, config interface{}) error {
	decoderConfig := mapstructure.DecoderConfig{
		ErrorUnused: true,

		// Default values
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(",")),
		Metadata:         nil,
		Result:           config,
		TagName:          "koanf",
		WeaklyTypedInput: true,
	}
	return k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "koanf", DecoderConfig: &decoderConfig})
}

// DumpConfig prints the active configuration as JSON.
func DumpConfig(k *koanf.Koanf) error {
	c, err := k.Marshal(json.Parser())
	if err != nil {
		return fmt.Errorf("unable to marshal config file to JSON: %w", err)
	}
	fmt.Println(string(c))
	return nil
}

func PrintErrorAndExit(err error, usage func(string)) {
	usage(os.Args[0])
	if err != nil && !errors.Is(err, ErrUsage) {
		fmt.Fprintf(os.Stderr, "\nError: %s\n", err.Error())
		os.Exit(1)
	}
	os.Exit(0)
}
