package main

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wbrown/janus-fieldvalue/model"
	"github.com/wbrown/janus-fieldvalue/model/annotations"
	"github.com/wbrown/janus-fieldvalue/model/format"
	"github.com/wbrown/janus-fieldvalue/model/storage"
)

// dbFlags is the --db flag of the store commands
type dbFlags struct {
	path string
}

func (d *dbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.path, "db", "fieldvalue.db", "database path")
}

func (d *dbFlags) open(r *Root) (*storage.BadgerStore, error) {
	opts := storage.DefaultOptions(d.path)
	if r.Verbose {
		opts.Handler = annotations.ConsoleHandler(r.stderr)
	}
	return storage.NewBadgerStore(opts)
}

type Put struct {
	root *Root
	db   dbFlags
}

func NewPut(root *Root) *cobra.Command {
	p := &Put{root: root}
	cmd := &cobra.Command{
		Use:   "put PATH FILE",
		Short: "Store the YAML object in FILE as the document at PATH",
		Args:  cobra.ExactArgs(2),
		RunE:  p.Run,
	}
	p.db.register(cmd)
	return cmd
}

func (p *Put) Run(cmd *cobra.Command, args []string) error {
	key, err := model.ParseDocumentKey(args[0])
	if err != nil {
		return err
	}
	data, err := readYAMLFile(args[1])
	if err != nil {
		return err
	}
	fields, err := format.DecodeYAML(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	doc, err := storage.NewDocument(key, fields)
	if err != nil {
		return err
	}

	store, err := p.db.open(p.root)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Put(doc); err != nil {
		return err
	}
	log.WithFields(log.Fields{"doc": key.String(), "fields": fields.Len()}).Info("stored document")
	fmt.Fprintln(cmd.OutOrStdout(), doc.ID())
	return nil
}

type Get struct {
	root *Root
	db   dbFlags
}

func NewGet(root *Root) *cobra.Command {
	g := &Get{root: root}
	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Print a stored document",
		Args:  cobra.ExactArgs(1),
		RunE:  g.Run,
	}
	g.db.register(cmd)
	return cmd
}

func (g *Get) Run(cmd *cobra.Command, args []string) error {
	key, err := model.ParseDocumentKey(args[0])
	if err != nil {
		return err
	}
	store, err := g.db.open(g.root)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Get(key)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document %s not found", key)
	}
	return g.root.printDocument(cmd.OutOrStdout(), doc)
}

func (r *Root) printDocument(out io.Writer, doc *storage.Document) error {
	switch r.Format {
	case "yaml":
		data, err := format.EncodeYAML(doc.Fields)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "plain":
		fmt.Fprintf(out, "%s %s\n", doc.Key, format.Colorize(doc.Fields))
		return nil
	default:
		var fields []string
		for _, k := range doc.Fields.Keys() {
			fields = append(fields, storage.EscapeFieldKey(k))
		}
		fmt.Fprintln(out, r.tableFormatter().FormatDocuments([]*storage.Document{doc}, fields...))
		return nil
	}
}

type Delete struct {
	root *Root
	db   dbFlags
}

func NewDelete(root *Root) *cobra.Command {
	d := &Delete{root: root}
	cmd := &cobra.Command{
		Use:   "delete PATH",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE:  d.Run,
	}
	d.db.register(cmd)
	return cmd
}

func (d *Delete) Run(cmd *cobra.Command, args []string) error {
	key, err := model.ParseDocumentKey(args[0])
	if err != nil {
		return err
	}
	store, err := d.db.open(d.root)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(key); err != nil {
		return err
	}
	log.WithField("doc", key.String()).Info("deleted document")
	return nil
}

type Scan struct {
	root  *Root
	db    dbFlags
	start string
	end   string
	limit int
	count bool
}

func NewScan(root *Root) *cobra.Command {
	s := &Scan{root: root}
	cmd := &cobra.Command{
		Use:   "scan FIELD",
		Short: "List documents ordered by the value of FIELD",
		Example: `  fieldvalue scan --db my.db age
  fieldvalue scan --db my.db address.city --start '"M"' --end '"P"'`,
		Args: cobra.ExactArgs(1),
		RunE: s.Run,
	}
	s.db.register(cmd)
	cmd.Flags().StringVar(&s.start, "start", "", "inclusive lower bound, as YAML")
	cmd.Flags().StringVar(&s.end, "end", "", "exclusive upper bound, as YAML")
	cmd.Flags().IntVar(&s.limit, "limit", 0, "maximum number of documents; 0 means no limit")
	cmd.Flags().BoolVar(&s.count, "count", false, "print only the number of matching documents")
	return cmd
}

func parseBound(flag, text string) (*model.FieldValue, error) {
	if text == "" {
		return nil, nil
	}
	v, err := format.DecodeYAML([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return &v, nil
}

func (s *Scan) Run(cmd *cobra.Command, args []string) error {
	field := args[0]
	start, err := parseBound("start", s.start)
	if err != nil {
		return err
	}
	end, err := parseBound("end", s.end)
	if err != nil {
		return err
	}
	r := storage.Range{Start: start, End: end}

	store, err := s.db.open(s.root)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if s.count {
		n, err := store.CountField(field, r)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, n)
		return nil
	}

	docs, err := collect(store, field, r, s.limit)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"field": field, "count": len(docs)}).Debug("scanned field")

	switch s.root.Format {
	case "yaml":
		rows := make([]model.FieldValue, len(docs))
		for i, d := range docs {
			v, _ := d.Field(field)
			rows[i] = model.ObjectValue(map[string]model.FieldValue{
				"path":  model.StringValue(d.Key.String()),
				"value": v,
			})
		}
		return s.root.printValues(out, rows)
	case "plain":
		for _, d := range docs {
			v, _ := d.Field(field)
			fmt.Fprintf(out, "%s\t%s\n", d.Key, format.Colorize(v))
		}
		return nil
	default:
		fmt.Fprintln(out, s.root.tableFormatter().FormatDocuments(docs, field))
		return nil
	}
}

func collect(store storage.Store, field string, r storage.Range, limit int) ([]*storage.Document, error) {
	it, err := store.ScanField(field, r)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var docs []*storage.Document
	for it.Next() {
		if limit > 0 && len(docs) >= limit {
			break
		}
		d, err := it.Document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}
