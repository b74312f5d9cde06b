package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// prettyFormatter renders a human-friendly single-message-plus-fields
// layout, easier to scan during local development than the default
// JSON formatter.
type prettyFormatter struct{}

func isJSON(buf []byte) bool {
	var tmp interface{}
	return json.Unmarshal(buf, &tmp) == nil
}

func spaces(n int) string {
	return strings.Repeat(" ", n)
}

func (p *prettyFormatter) Format(e *logrus.Entry) ([]byte, error) {
	b := new(bytes.Buffer)

	level := strings.ToUpper(e.Level.String())
	fmt.Fprintf(b, "[%s] %s\n", level, e.Message)

	const fieldIndent = 2
	const multiLineIndent = 6

	for k, v := range e.Data {
		var stringVal string
		switch sv, ok := v.(string); {
		case ok && strings.Contains(sv, "\n"):
			var sb strings.Builder
			for i, line := range strings.Split(sv, "\n") {
				if i != 0 {
					sb.WriteString(spaces(multiLineIndent))
				}
				sb.WriteString(line)
				sb.WriteByte('\n')
			}
			stringVal = sb.String()
		case ok && isJSON([]byte(sv)):
			var tmp bytes.Buffer
			if err := json.Indent(&tmp, []byte(sv), spaces(multiLineIndent), "  "); err != nil {
				return nil, err
			}
			stringVal = tmp.String()
		default:
			jsonVal, err := json.MarshalIndent(v, spaces(multiLineIndent), "  ")
			if err != nil {
				return nil, err
			}
			stringVal = string(jsonVal)
		}

		b.WriteString(spaces(fieldIndent))
		b.WriteString(k)
		if strings.Contains(stringVal, "\n") {
			b.WriteString(" = |\n")
			b.WriteString(spaces(multiLineIndent))
		} else {
			b.WriteString(" = ")
		}
		b.WriteString(stringVal)
		b.WriteString("\n")
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}
