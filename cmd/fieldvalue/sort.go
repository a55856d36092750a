package main

import (
	"encoding/hex"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wbrown/janus-fieldvalue/model"
	"github.com/wbrown/janus-fieldvalue/model/codec"
	"github.com/wbrown/janus-fieldvalue/model/format"
)

type Sort struct {
	root    *Root
	reverse bool
}

func NewSort(root *Root) *cobra.Command {
	s := &Sort{root: root}
	cmd := &cobra.Command{
		Use:   "sort FILE",
		Short: "Sort a YAML list of values in value order",
		Args:  cobra.ExactArgs(1),
		RunE:  s.Run,
	}
	cmd.Flags().BoolVarP(&s.reverse, "reverse", "r", false, "sort in descending order")
	return cmd
}

func (s *Sort) Run(cmd *cobra.Command, args []string) error {
	data, err := readYAMLFile(args[0])
	if err != nil {
		return err
	}
	values, err := format.DecodeYAMLList(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	sort.SliceStable(values, func(i, j int) bool {
		if s.reverse {
			return values[i].Greater(values[j])
		}
		return values[i].Less(values[j])
	})
	log.WithField("count", len(values)).Debug("sorted values")

	return s.root.printValues(cmd.OutOrStdout(), values)
}

type Compare struct {
	root *Root
}

func NewCompare(root *Root) *cobra.Command {
	c := &Compare{root: root}
	return &cobra.Command{
		Use:   "compare A B",
		Short: "Compare two YAML values",
		Example: `  fieldvalue compare 1 1.0
  fieldvalue compare '!nan' -.inf
  fieldvalue compare '[1, a]' '{a: 1}'`,
		Args: cobra.ExactArgs(2),
		RunE: c.Run,
	}
}

func (c *Compare) Run(cmd *cobra.Command, args []string) error {
	a, err := format.DecodeYAML([]byte(args[0]))
	if err != nil {
		return fmt.Errorf("first value: %w", err)
	}
	b, err := format.DecodeYAML([]byte(args[1]))
	if err != nil {
		return fmt.Errorf("second value: %w", err)
	}

	out := cmd.OutOrStdout()
	if c.root.Format == "yaml" {
		fmt.Fprintf(out, "result: %s\n", model.Compare(a, b))
		return nil
	}
	fmt.Fprintln(out, format.ComparisonString(a, b))
	return nil
}

type Encode struct {
	root *Root
}

func NewEncode(root *Root) *cobra.Command {
	e := &Encode{root: root}
	return &cobra.Command{
		Use:   "encode VALUE",
		Short: "Show the sort key and storage encoding of a YAML value",
		Args:  cobra.ExactArgs(1),
		RunE:  e.Run,
	}
}

func (e *Encode) Run(cmd *cobra.Command, args []string) error {
	v, err := format.DecodeYAML([]byte(args[0]))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "value:    %s\n", format.Colorize(v))
	fmt.Fprintf(out, "type:     %s (%s)\n", v.Type(), v.Type().Order())
	fmt.Fprintf(out, "sort key: %s\n", hex.EncodeToString(codec.EncodeSortKey(v)))
	fmt.Fprintf(out, "encoding: %s\n", hex.EncodeToString(codec.EncodeValue(v)))
	return nil
}
