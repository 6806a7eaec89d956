package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

func decodeTOML(content string) (filePayload, error) {
	var payload filePayload
	meta, err := toml.Decode(content, &payload)
	if err != nil {
		var parseErr toml.ParseError
		if errors.As(err, &parseErr) {
			return filePayload{}, fmt.Errorf("line %d: %w", parseErr.Position.Line, err)
		}
		return filePayload{}, err
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return filePayload{}, fmt.Errorf("unknown key(s): %s", strings.Join(keys, ", "))
	}
	return payload, nil
}
