package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wbrown/janus-fieldvalue/model"
	"github.com/wbrown/janus-fieldvalue/model/format"
)

// Root holds the flags shared by every command
type Root struct {
	LogLevel         string
	Format           string
	ServerTimestamps string
	Verbose          bool

	behavior model.ServerTimestampBehavior
	stderr   io.Writer
}

func NewRoot() *cobra.Command {
	r := &Root{}
	cmd := &cobra.Command{
		Use:               "fieldvalue",
		Short:             "Inspect, order and store typed document values",
		SilenceUsage:      true,
		PersistentPreRunE: r.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}
	cmd.CompletionOptions.HiddenDefaultCmd = true

	flags := cmd.PersistentFlags()
	flags.StringVar(&r.LogLevel, "log-level", "", "log level; defaults to LOG_LEVEL, then warn")
	flags.StringVarP(&r.Format, "format", "o", "table", "output format: table, yaml or plain")
	flags.StringVar(&r.ServerTimestamps, "server-timestamps", "estimate",
		"show pending server timestamps as none, estimate or previous")
	flags.BoolVarP(&r.Verbose, "verbose", "v", false, "print store operations with their latency")

	cmd.AddCommand(
		NewSort(r),
		NewCompare(r),
		NewEncode(r),
		NewPut(r),
		NewGet(r),
		NewDelete(r),
		NewScan(r),
	)
	return cmd
}

func (r *Root) setup(cmd *cobra.Command, args []string) error {
	r.stderr = cmd.ErrOrStderr()
	if err := configureLogging(r.LogLevel, cmd.ErrOrStderr()); err != nil {
		return err
	}

	behavior, err := model.ParseServerTimestampBehavior(r.ServerTimestamps)
	if err != nil {
		return err
	}
	r.behavior = behavior

	switch r.Format {
	case "table", "yaml", "plain":
	default:
		return fmt.Errorf("unknown output format %q", r.Format)
	}
	return nil
}

// configureLogging sets the logrus level from the flag, the LOG_LEVEL env
// or the default
func configureLogging(level string, out io.Writer) error {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "warn"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("could not parse log level: %w", err)
	}
	log.SetOutput(out)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(lvl)
	return nil
}

func (r *Root) tableFormatter() *format.TableFormatter {
	tf := format.NewTableFormatter()
	tf.Behavior = r.behavior
	return tf
}

// printValues writes values in the selected output format
func (r *Root) printValues(out io.Writer, values []model.FieldValue) error {
	switch r.Format {
	case "yaml":
		data, err := format.EncodeYAML(model.ArrayValue(values))
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "plain":
		for _, v := range values {
			fmt.Fprintln(out, format.Colorize(v))
		}
		return nil
	default:
		fmt.Fprintln(out, r.tableFormatter().FormatValues(values))
		return nil
	}
}

func readYAMLFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
