package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/wbrown/janus-fieldvalue/model"
)

// Colorize renders a value like FieldValue.String with terminal colors by
// type. Output is plain when color.NoColor is set.
func Colorize(v model.FieldValue) string {
	var sb strings.Builder
	writeColored(&sb, v)
	return sb.String()
}

func writeColored(sb *strings.Builder, v model.FieldValue) {
	switch v.Type() {
	case model.TypeNull:
		sb.WriteString(color.HiBlackString("null"))
	case model.TypeBoolean:
		sb.WriteString(color.YellowString("%t", v.AsBoolean()))
	case model.TypeInteger, model.TypeDouble:
		if v.IsNaN() {
			sb.WriteString(color.RedString("NaN"))
			return
		}
		sb.WriteString(color.CyanString("%s", v.String()))
	case model.TypeTimestamp, model.TypeServerTimestamp:
		sb.WriteString(color.MagentaString("%s", v.String()))
	case model.TypeString:
		sb.WriteString(color.GreenString("%s", strconv.Quote(v.AsString())))
	case model.TypeBlob, model.TypeGeoPoint:
		sb.WriteString(color.WhiteString("%s", v.String()))
	case model.TypeReference:
		sb.WriteString(color.BlueString("%s", v.String()))
	case model.TypeArray:
		sb.WriteString(color.BlueString("["))
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeColored(sb, v.Index(i))
		}
		sb.WriteString(color.BlueString("]"))
	case model.TypeObject:
		sb.WriteString(color.BlueString("{"))
		for i, k := range v.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			f, _ := v.Field(k)
			sb.WriteString(color.CyanString("%s", k))
			sb.WriteString(": ")
			writeColored(sb, f)
		}
		sb.WriteString(color.BlueString("}"))
	default:
		sb.WriteString(fmt.Sprint(v))
	}
}

// ComparisonString renders "a < b", "a == b" or "a > b" with the operator
// highlighted
func ComparisonString(a, b model.FieldValue) string {
	var op string
	switch model.Compare(a, b) {
	case model.Ascending:
		op = color.GreenString("<")
	case model.Descending:
		op = color.RedString(">")
	default:
		op = color.YellowString("==")
	}
	return fmt.Sprintf("%s %s %s", Colorize(a), op, Colorize(b))
}
