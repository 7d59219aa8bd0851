// Command isr turns scene source into the stack program consumed by the
// ISR ray-marching shader.
//
//	isr generate scene.isr            list the program
//	isr generate scene.isr -o out.bin write the encoded records
//	isr mesh scene.isr -o scene.json  write the CPU preview mesh
//	isr watch scene.isr               regenerate on every save
//	isr config                        print the effective settings
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chazu/isr/pkg/config"
	"github.com/chazu/isr/pkg/logging"
	"github.com/chazu/isr/pkg/program"
	"github.com/spf13/cobra"
)

// errFailed is returned after diagnostics have already been printed.
var errFailed = errors.New("isr: scene has errors")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// cli carries the state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string
	cfg        config.Config
	app        *App
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "isr",
		Short:         "Compile CSG scenes into ray-marching stack programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultPath, "settings file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		c.generateCmd(),
		c.meshCmd(),
		c.watchCmd(),
		c.configCmd(),
	)
	return root
}

func (c *cli) setup(stderr io.Writer) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	c.cfg = cfg
	c.app = NewApp(cfg)

	logging.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.Log.Level),
	})))
	return nil
}

func (c *cli) generateCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "generate FILE",
		Short: "Generate the record program for a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result := c.app.Generate(string(source))
			if err := report(cmd.ErrOrStderr(), args[0], result); err != nil {
				return err
			}

			if out == "" {
				return printProgram(cmd.OutOrStdout(), result)
			}
			if err := os.WriteFile(out, program.Encode(result.Records), 0o644); err != nil {
				return err
			}
			logging.Logger().Info("program written",
				"path", out,
				"records", result.Stats.NumObjects,
				"peak_depth", result.Stats.PeakDepth)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the encoded records to this file instead of listing them")
	return cmd
}

func (c *cli) meshCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "mesh FILE",
		Short: "Tessellate a scene into a JSON triangle mesh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			result := c.app.Evaluate(string(source), name)
			if err := report(cmd.ErrOrStderr(), args[0], result); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := json.NewEncoder(w).Encode(result.Mesh); err != nil {
				return err
			}
			logging.Logger().Info("mesh written",
				"name", name,
				"triangles", result.Mesh.TriangleCount())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the mesh to this file instead of stdout")
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Regenerate the program each time the scene file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			rebuild := func() {
				source, err := os.ReadFile(path)
				if err != nil {
					logging.Logger().Warn("read failed", "path", path, "error", err)
					return
				}
				result := c.app.Generate(string(source))
				if report(cmd.ErrOrStderr(), path, result) != nil {
					return
				}
				if err := printProgram(cmd.OutOrStdout(), result); err != nil {
					logging.Logger().Warn("print failed", "error", err)
				}
			}
			rebuild()
			return watchFile(cmd.Context(), path, rebuild)
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if write {
				return config.Save(c.configPath, c.cfg)
			}
			return config.Write(cmd.OutOrStdout(), c.cfg)
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "save the effective settings to the --config path")
	return cmd
}

// report prints diagnostics and returns errFailed if the run produced no
// program.
func report(w io.Writer, file string, result EvalResult) error {
	for _, d := range result.Warnings {
		fmt.Fprintf(w, "%s: warning: %s\n", file, describe(d))
	}
	for _, d := range result.Errors {
		fmt.Fprintf(w, "%s: error: %s\n", file, describe(d))
	}
	if len(result.Errors) > 0 {
		return errFailed
	}
	if len(result.Records) == 0 {
		fmt.Fprintf(w, "%s: error: scene is empty\n", file)
		return errFailed
	}
	return nil
}

func describe(d Diagnostic) string {
	var b strings.Builder
	if d.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", d.Line)
	}
	if d.Node != "" {
		fmt.Fprintf(&b, "node %s: ", d.Node)
	}
	b.WriteString(d.Message)
	return b.String()
}

func printProgram(w io.Writer, result EvalResult) error {
	if err := program.Dump(w, result.Records); err != nil {
		return err
	}
	st := result.Stats
	_, err := fmt.Fprintf(w, "%d records (%d primitives, %d operators), peak stack depth %d\n",
		st.NumObjects, st.NumPrimitives, st.NumOperators, st.PeakDepth)
	return err
}
