// Package cmd provides the command-line interface of nextdynamic.
package cmd

import (
	"errors"
	"fmt"
	"nextdynamic/internal/application/common/logging"
	"nextdynamic/internal/application/common/slogger"
	"nextdynamic/internal/config"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
)

// flagBindings maps command flags to configuration keys, per command.
var flagBindings = map[string]map[string]string{
	"": {
		"log-level":  "log.level",
		"log-format": "log.format",
	},
	"transform": {
		"mode":          "transform.mode",
		"verify":        "transform.verify_output",
		"concurrency":   "transform.concurrency",
		"helper-module": "transform.helper_modules",
	},
	"collect": {
		"helper-module": "transform.helper_modules",
	},
	"worker": {
		"mode":        "transform.mode",
		"concurrency": "worker.concurrency",
		"subject":     "worker.subject",
		"queue-group": "worker.queue_group",
		"nats-url":    "nats.url",
	},
	"request": {
		"mode":     "transform.mode",
		"subject":  "worker.subject",
		"nats-url": "nats.url",
	},
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nextdynamic",
		Short: "Rewrite next/dynamic calls for the bundler",
		Long: `nextdynamic rewrites calls to the next/dynamic helper so that every
dynamically imported module is reported to the bundler by module id.

For each helper call it:
- adds an import of the module's id with the turbopack import attributes
- records the ids in the call's loadableGenerated.modules option
- routes client builds through the next-dynamic transition

It can also list dynamically imported modules, build the loadable manifest,
and serve or send transform requests over NATS.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.yaml)")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "json", "Log format (json, text)")

	root.AddCommand(
		newTransformCmd(),
		newCollectCmd(),
		newManifestCmd(),
		newWorkerCmd(),
		newRequestCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command) error {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("NEXTDYNAMIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, cmd.Flags(), flagBindings[""]); err != nil {
		return err
	}
	if err := bindFlags(v, cmd.Flags(), flagBindings[cmd.Name()]); err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	return slogger.Configure(logging.Config{
		Level:  strings.ToUpper(cfg.Log.Level),
		Format: strings.ToLower(cfg.Log.Format),
		Output: "stderr",
	})
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for name, key := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("error binding %s flag: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Transform defaults
	v.SetDefault("transform.mode", "dev-client")
	v.SetDefault("transform.helper_modules", []string{"next/dynamic"})
	v.SetDefault("transform.helper_export", "default")
	v.SetDefault("transform.module_id_export", "__turbopack_module_id__")
	v.SetDefault("transform.binding_name", "id")
	v.SetDefault("transform.verify_output", false)
	v.SetDefault("transform.concurrency", 0)

	// Worker defaults
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.subject", "nextdynamic.transform")
	v.SetDefault("worker.queue_group", "nextdynamic-workers")
	v.SetDefault("worker.job_timeout", "30s")
	v.SetDefault("worker.max_message_size", 8*1024*1024)

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", 5)
	v.SetDefault("nats.reconnect_wait", "2s")

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}
