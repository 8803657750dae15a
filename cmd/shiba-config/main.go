package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chess10kp/shiba/internal/config"
)

func main() {
	writeDefaults := flag.String("write-defaults", "", "write the built-in configuration to this path and exit")
	flag.Parse()

	if *writeDefaults != "" {
		if err := config.SaveConfig(config.DefaultConfig(), *writeDefaults); err != nil {
			fmt.Printf("❌ Failed to write defaults: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Wrote defaults to %s\n", *writeDefaults)
		return
	}

	configPath := flag.Arg(0)
	if configPath == "" {
		configPath = config.FindConfigFile(config.Dir())
	}
	if configPath == "" {
		fmt.Printf("No config file in %s, using defaults\n\n", config.Dir())
	} else {
		fmt.Printf("Validating config: %s\n\n", configPath)
	}

	cfg, err := config.Load(context.Background(), config.Options{ConfigPath: configPath})
	if err != nil {
		fmt.Printf("❌ Config could not be read: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(cfg.Describe())
	fmt.Println()

	for _, key := range cfg.Unknown {
		if hint := config.Suggest(key); hint != "" {
			fmt.Printf("⚠️  Unknown key %q (did you mean %q?)\n", key, hint)
		} else {
			fmt.Printf("⚠️  Unknown key %q\n", key)
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("❌ Config validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Config is valid!")
}
