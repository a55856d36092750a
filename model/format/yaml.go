package format

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/wbrown/janus-fieldvalue/model"
	"github.com/wbrown/janus-fieldvalue/model/codec"
)

// YAML tags for value types that plain YAML cannot express
const (
	TagReference       = "!ref"
	TagGeoPoint        = "!geo"
	TagServerTimestamp = "!servertime"
	TagNaN             = "!nan"
	// TagRawString holds a String that is not valid UTF-8, base64 encoded
	TagRawString = "!rawstr"
)

// MaxYAMLNodes bounds the nodes visited while decoding one document,
// counting each alias expansion again
const MaxYAMLNodes = 100000

var (
	// ErrUnknownTag is returned for a YAML tag with no value mapping
	ErrUnknownTag = errors.New("unsupported yaml tag")
	// ErrNotSequence is returned when a value list document is not a sequence
	ErrNotSequence = errors.New("yaml document is not a sequence")
	// ErrTooManyNodes is returned when a document expands past MaxYAMLNodes
	ErrTooManyNodes = errors.New("yaml document expands to too many nodes")
)

// DecodeYAML decodes one YAML document into a value. An empty document is
// Null.
func DecodeYAML(data []byte) (model.FieldValue, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.FieldValue{}, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return model.NullValue(), nil
	}
	return new(nodeDecoder).decode(doc.Content[0], 0)
}

// DecodeYAMLList decodes a YAML document holding a sequence into its
// element values
func DecodeYAMLList(data []byte) ([]model.FieldValue, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.SequenceNode || root.ShortTag() != "!!seq" {
		return nil, fmt.Errorf("line %d: %w", root.Line, ErrNotSequence)
	}

	d := new(nodeDecoder)
	values := make([]model.FieldValue, len(root.Content))
	for i, n := range root.Content {
		v, err := d.decode(n, 1)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// nodeDecoder converts yaml nodes to values. It counts every node it
// visits, alias expansions included, against MaxYAMLNodes.
type nodeDecoder struct {
	nodes int
}

func (d *nodeDecoder) decode(n *yaml.Node, depth int) (model.FieldValue, error) {
	if depth > codec.MaxDepth {
		return model.FieldValue{}, fmt.Errorf("line %d: value nested deeper than %d", n.Line, codec.MaxDepth)
	}
	d.nodes++
	if d.nodes > MaxYAMLNodes {
		return model.FieldValue{}, fmt.Errorf("line %d: %w (limit %d)", n.Line, ErrTooManyNodes, MaxYAMLNodes)
	}
	n = resolveAlias(n)

	v, err := d.decodeTagged(n, depth)
	if err != nil {
		return model.FieldValue{}, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return v, nil
}

func (d *nodeDecoder) decodeTagged(n *yaml.Node, depth int) (model.FieldValue, error) {
	tag := n.ShortTag()
	switch tag {
	case "!!null":
		return model.NullValue(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return model.FieldValue{}, err
		}
		return model.BooleanValue(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return model.FieldValue{}, err
		}
		return model.IntegerValue(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return model.FieldValue{}, err
		}
		return model.DoubleValue(f), nil
	case TagNaN:
		return model.NanValue(), nil
	case "!!timestamp":
		ts, err := decodeTimestamp(n)
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.TimestampValue(ts), nil
	case TagServerTimestamp:
		return decodeServerTimestamp(n)
	case "!!str", "!!merge":
		return model.StringValue(n.Value), nil
	case TagRawString:
		b, err := decodeBase64(n.Value)
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.StringValue(string(b)), nil
	case "!!binary":
		b, err := decodeBase64(n.Value)
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.BlobValue(b), nil
	case TagReference:
		ref, err := decodeReference(n.Value)
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.ReferenceValue(ref), nil
	case TagGeoPoint:
		return decodeGeoPoint(n)
	case "!!seq":
		elems := make([]model.FieldValue, len(n.Content))
		for i, c := range n.Content {
			e, err := d.decode(c, depth+1)
			if err != nil {
				return model.FieldValue{}, err
			}
			elems[i] = e
		}
		return model.ArrayValue(elems), nil
	case "!!map":
		return d.decodeMapping(n, depth)
	}
	return model.FieldValue{}, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
}

func decodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return nil, fmt.Errorf("invalid binary: %w", err)
	}
	return b, nil
}

func (d *nodeDecoder) decodeMapping(n *yaml.Node, depth int) (model.FieldValue, error) {
	fields := make(map[string]model.FieldValue, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := resolveAlias(n.Content[i])
		if k.Kind != yaml.ScalarNode {
			return model.FieldValue{}, fmt.Errorf("line %d: map key must be a scalar", k.Line)
		}
		key := k.Value
		if k.ShortTag() == TagRawString {
			b, err := decodeBase64(k.Value)
			if err != nil {
				return model.FieldValue{}, fmt.Errorf("line %d: %w", k.Line, err)
			}
			key = string(b)
		}
		if _, dup := fields[key]; dup {
			return model.FieldValue{}, fmt.Errorf("line %d: duplicate key %q", k.Line, key)
		}
		v, err := d.decode(n.Content[i+1], depth+1)
		if err != nil {
			return model.FieldValue{}, err
		}
		fields[key] = v
	}
	return model.ObjectValue(fields), nil
}

func decodeTimestamp(n *yaml.Node) (model.Timestamp, error) {
	// Custom tags do not resolve, so read the scalar as a timestamp
	c := *n
	c.Tag = "!!timestamp"
	var t time.Time
	if err := c.Decode(&t); err != nil {
		return model.Timestamp{}, err
	}
	return model.TimestampFromTime(t)
}

// decodeServerTimestamp accepts a scalar local write time or a mapping
// with "local" and an optional "previous"
func decodeServerTimestamp(n *yaml.Node) (model.FieldValue, error) {
	if n.Kind == yaml.ScalarNode {
		local, err := decodeTimestamp(n)
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.ServerTimestampValue(local), nil
	}

	var raw struct {
		Local    *time.Time `yaml:"local"`
		Previous *time.Time `yaml:"previous"`
	}
	if err := n.Decode(&raw); err != nil {
		return model.FieldValue{}, err
	}
	if raw.Local == nil {
		return model.FieldValue{}, fmt.Errorf("%s needs a local write time", TagServerTimestamp)
	}
	local, err := model.TimestampFromTime(*raw.Local)
	if err != nil {
		return model.FieldValue{}, err
	}
	if raw.Previous == nil {
		return model.ServerTimestampValue(local), nil
	}
	prev, err := model.TimestampFromTime(*raw.Previous)
	if err != nil {
		return model.FieldValue{}, err
	}
	return model.ServerTimestampValueWithPrevious(local, prev), nil
}

// decodeReference accepts a full resource name or a bare document path in
// the default database
func decodeReference(s string) (model.DocumentReference, error) {
	if strings.HasPrefix(s, "projects/") {
		return model.ParseResourceName(s)
	}
	key, err := model.ParseDocumentKey(s)
	if err != nil {
		return model.DocumentReference{}, err
	}
	return model.DocumentReference{Database: model.NewDatabaseID("", ""), Key: key}, nil
}

func decodeGeoPoint(n *yaml.Node) (model.FieldValue, error) {
	var coords []float64
	if err := n.Decode(&coords); err != nil {
		return model.FieldValue{}, err
	}
	if len(coords) != 2 {
		return model.FieldValue{}, fmt.Errorf("%s needs [latitude, longitude], got %d numbers", TagGeoPoint, len(coords))
	}
	p, err := model.NewGeoPoint(coords[0], coords[1])
	if err != nil {
		return model.FieldValue{}, err
	}
	return model.GeoPointValue(p), nil
}

// EncodeYAML renders a value as a YAML document that DecodeYAML reads back
// to an equal value of the same type
func EncodeYAML(v model.FieldValue) ([]byte, error) {
	return yaml.Marshal(encodeNode(v))
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// stringNode renders a string, falling back to TagRawString for bytes
// yaml cannot carry
func stringNode(s string) *yaml.Node {
	if utf8.ValidString(s) {
		return scalar("!!str", s)
	}
	return scalar(TagRawString, base64.StdEncoding.EncodeToString([]byte(s)))
}

func encodeNode(v model.FieldValue) *yaml.Node {
	switch v.Type() {
	case model.TypeNull:
		return scalar("!!null", "null")
	case model.TypeBoolean:
		return scalar("!!bool", strconv.FormatBool(v.AsBoolean()))
	case model.TypeInteger:
		return scalar("!!int", strconv.FormatInt(v.AsInteger(), 10))
	case model.TypeDouble:
		return scalar("!!float", formatFloat(v.AsDouble()))
	case model.TypeTimestamp:
		return scalar("!!timestamp", v.AsTimestamp().String())
	case model.TypeServerTimestamp:
		st := v.AsServerTimestamp()
		if !st.HasPreviousValue {
			return scalar(TagServerTimestamp, st.LocalWriteTime.String())
		}
		return &yaml.Node{Kind: yaml.MappingNode, Tag: TagServerTimestamp, Content: []*yaml.Node{
			scalar("!!str", "local"), scalar("!!timestamp", st.LocalWriteTime.String()),
			scalar("!!str", "previous"), scalar("!!timestamp", st.PreviousValue.String()),
		}}
	case model.TypeString:
		return stringNode(v.AsString())
	case model.TypeBlob:
		return scalar("!!binary", base64.StdEncoding.EncodeToString(v.AsBlob()))
	case model.TypeReference:
		ref := v.AsReference()
		if ref.Database == model.NewDatabaseID("", "") {
			return scalar(TagReference, ref.Key.String())
		}
		return scalar(TagReference, ref.ResourceName())
	case model.TypeGeoPoint:
		p := v.AsGeoPoint()
		return &yaml.Node{Kind: yaml.SequenceNode, Tag: TagGeoPoint, Style: yaml.FlowStyle, Content: []*yaml.Node{
			scalar("!!float", formatFloat(p.Latitude())),
			scalar("!!float", formatFloat(p.Longitude())),
		}}
	case model.TypeArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i := 0; i < v.Len(); i++ {
			n.Content = append(n.Content, encodeNode(v.Index(i)))
		}
		return n
	case model.TypeObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.Keys() {
			f, _ := v.Field(k)
			n.Content = append(n.Content, stringNode(k), encodeNode(f))
		}
		return n
	}
	panic(fmt.Sprintf("cannot encode value type: %s", v.Type()))
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Keep a float marker so the scalar does not read back as an integer
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
