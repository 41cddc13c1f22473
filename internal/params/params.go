// Package params encodes job parameters in the INI dialect the orchestrator
// exchanges: a single [DEFAULT] section of case-sensitive keys.
package params

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

var loadOptions = ini.LoadOptions{
	AllowBooleanKeys:           true,
	IgnoreInlineComment:        true,
	AllowPythonMultilineValues: true,
}

// Decode parses the [DEFAULT] section of raw. Keys without a value decode to
// "true".
func Decode(raw string) (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	f, err := ini.LoadSources(loadOptions, []byte(raw))
	if err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	for _, key := range f.Section(ini.DefaultSection).Keys() {
		out[key.Name()] = key.Value()
	}
	return out, nil
}

// Encode renders values as a [DEFAULT] section with keys in lexical order.
// An empty map encodes to the empty string.
func Encode(values map[string]string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := ini.Empty(loadOptions)
	sec := f.Section(ini.DefaultSection)
	for _, k := range keys {
		if _, err := sec.NewKey(k, values[k]); err != nil {
			return "", fmt.Errorf("encode param %q: %w", k, err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("[" + ini.DefaultSection + "]\n")
	if _, err := f.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	return buf.String(), nil
}
