package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override configuration values.
const (
	EnvSetBits       = "CSIM_S"
	EnvAssociativity = "CSIM_E"
	EnvBlockBits     = "CSIM_B"
	EnvTrace         = "CSIM_TRACE"
	EnvVerbose       = "CSIM_VERBOSE"
	EnvEngine        = "CSIM_ENGINE"
)

var envKeys = []string{
	EnvSetBits,
	EnvAssociativity,
	EnvBlockBits,
	EnvTrace,
	EnvVerbose,
	EnvEngine,
}

// ApplyEnv overlays values from a dotenv file and then from the process
// environment. A missing dotenv file is not an error; an empty envFile skips
// it. It returns the names of the variables that were applied.
func (c *Config) ApplyEnv(envFile string) ([]string, error) {
	vars := make(map[string]string)

	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}

		for k, v := range fileVars {
			vars[k] = v
		}
	}

	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok {
			vars[key] = v
		}
	}

	var applied []string
	for _, key := range envKeys {
		v, ok := vars[key]
		if !ok {
			continue
		}

		if err := c.applyVar(key, v); err != nil {
			return nil, err
		}

		applied = append(applied, key)
	}

	return applied, nil
}

func (c *Config) applyVar(key, value string) error {
	switch key {
	case EnvSetBits:
		return parseInt(key, value, &c.SetBits)
	case EnvAssociativity:
		return parseInt(key, value, &c.Associativity)
	case EnvBlockBits:
		return parseInt(key, value, &c.BlockBits)
	case EnvTrace:
		c.TracePath = value
	case EnvVerbose:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		c.Verbose = v
	case EnvEngine:
		c.Engine = value
	}

	return nil
}

func parseInt(key, value string, dst *int) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}

	*dst = v

	return nil
}
