package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"printssistant/internal/app"
	"printssistant/internal/config"
	"printssistant/internal/core"
	"printssistant/internal/logger"
	"printssistant/internal/storage"
	"printssistant/internal/xmlmap"
)

const cliLogLevel = "warn"

type rootOptions struct {
	configDir string
	logLevel  string
	logJSON   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "printssistant",
		Short:         "Prepress advice for print jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configDir, "config-dir", "", "shop config directory (default ./config)")
	pf.StringVar(&opts.logLevel, "log-level", cliLogLevel, "log level: debug, info, warn, error, disabled")
	pf.BoolVar(&opts.logJSON, "log-json", false, "log as JSON")

	load := func(cmd *cobra.Command) (*app.App, error) {
		return loadApp(cmd, opts)
	}
	cmd.AddCommand(newParseXMLCmd(load))
	cmd.AddCommand(newAdviseCmd(load))
	cmd.AddCommand(newPressesCmd(load))
	cmd.AddCommand(newChecklistCmd(load))
	return cmd
}

type appLoader func(cmd *cobra.Command) (*app.App, error)

func loadApp(cmd *cobra.Command, opts *rootOptions) (*app.App, error) {
	overrides := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("config-dir") {
		overrides["config_dir"] = opts.configDir
	}
	if flags.Changed("log-level") || os.Getenv(config.EnvKey("log.level")) == "" {
		overrides["log.level"] = opts.logLevel
	}
	if flags.Changed("log-json") {
		overrides["log.json"] = opts.logJSON
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, err
	}
	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.Log.Level)
	logCfg.Output = cmd.ErrOrStderr()
	logCfg.JSON = cfg.Log.JSON
	log := logger.NewLogger(logCfg)
	return app.New(cfg, log)
}

func newParseXMLCmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "parse-xml XML MAP",
		Short: "Parse an XML job ticket into a normalized job spec",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd)
			if err != nil {
				return err
			}
			job, err := xmlmap.Load(args[0], args[1])
			if err != nil {
				return err
			}
			core.Resolve(job, a.Shop)
			return printJSON(cmd.OutOrStdout(), job.Public())
		},
	}
}

type adviseFlags struct {
	msg        string
	fold       string
	foldIn     string
	machine    string
	debugML    bool
	outDir     string
	sessionOut string
}

func newAdviseCmd(load appLoader) *cobra.Command {
	f := &adviseFlags{}
	cmd := &cobra.Command{
		Use:   "advise JOBSPEC",
		Short: "Print tips and scripts for a job spec file (JSON or YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.validate(); err != nil {
				return err
			}
			a, err := load(cmd)
			if err != nil {
				return err
			}
			raw, err := readJobSpec(args[0])
			if err != nil {
				return err
			}
			advice, job, err := a.Runner.AdviseRaw(cmd.Context(), raw, f.msg, core.AdviseOptions{
				Fold:    f.fold,
				FoldIn:  f.foldIn,
				Machine: f.machine,
				DebugML: f.debugML,
			})
			if err != nil {
				return err
			}
			if f.outDir != "" {
				saved, err := storage.NewOutputStorage(f.outDir).SaveScripts(advice.Scripts)
				if err != nil {
					return err
				}
				for _, s := range saved {
					fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", s.Path)
				}
			}
			if f.sessionOut != "" {
				if err := storage.SaveSession(f.sessionOut, storage.NewSession(job, f.msg, advice)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", f.sessionOut)
			}
			return printJSON(cmd.OutOrStdout(), advice)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.msg, "msg", "", "free text hint, e.g. 'trifold roll fold'")
	fl.StringVar(&f.fold, "fold", "", "fold style override: roll, z, gate, half, tri, accordion")
	fl.StringVar(&f.foldIn, "fold-in", "", "panel that folds in: left or right")
	fl.StringVar(&f.machine, "machine", "", "press or printer the job runs on")
	fl.BoolVar(&f.debugML, "debug-ml", false, "include the classifier prediction")
	fl.StringVar(&f.outDir, "out", "", "write each script to DIR/<name>.jsx")
	fl.StringVar(&f.sessionOut, "session", "", "write a session snapshot to FILE")
	return cmd
}

func (f *adviseFlags) validate() error {
	v := validator.New()
	if err := v.Var(f.fold, "omitempty,oneof=roll z gate half tri accordion"); err != nil {
		return fmt.Errorf("invalid --fold %q", f.fold)
	}
	if err := v.Var(f.foldIn, "omitempty,oneof=left right"); err != nil {
		return fmt.Errorf("invalid --fold-in %q", f.foldIn)
	}
	return nil
}

func newPressesCmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "presses",
		Short: "List configured presses and their categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, key := range a.Shop.PressKeys() {
				fmt.Fprintf(out, "%s\t%s\n", key, strings.Join(a.Shop.Categories[key], ","))
			}
			return nil
		},
	}
}

func newChecklistCmd(load appLoader) *cobra.Command {
	var msg string
	cmd := &cobra.Command{
		Use:   "checklist JOBSPEC",
		Short: "Render the shop checklist for a job spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd)
			if err != nil {
				return err
			}
			raw, err := readJobSpec(args[0])
			if err != nil {
				return err
			}
			advice, job, err := a.Runner.AdviseRaw(cmd.Context(), raw, msg, core.AdviseOptions{})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a.Checklist.Render(job, advice.Tips))
		},
	}
	cmd.Flags().StringVar(&msg, "msg", "", "free text hint")
	return cmd
}

// readJobSpec reads a JSON or YAML job spec file.
func readJobSpec(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job spec: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse job spec %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
