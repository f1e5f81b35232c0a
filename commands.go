package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"
)

//go:embed assets/tv_power.json
var defaultCommands []byte

// CommandRecord is one infrared transmission: a carrier frequency in Hz and
// alternating on/off durations in microseconds, starting with "on".
type CommandRecord struct {
	Frequency int
	Pattern   []int
}

// Duration is the on-air time of the pattern.
func (c CommandRecord) Duration() time.Duration {
	var total time.Duration
	for _, us := range c.Pattern {
		total += time.Duration(us) * time.Microsecond
	}
	return total
}

// CommandSet holds records in document order.
type CommandSet []CommandRecord

// Equal reports whether both sets hold the same records in the same order.
func (s CommandSet) Equal(other CommandSet) bool {
	return slices.EqualFunc(s, other, func(a, b CommandRecord) bool {
		return a.Frequency == b.Frequency && slices.Equal(a.Pattern, b.Pattern)
	})
}

// LoadCommands parses a command document. It never fails: any problem is
// reported once through rep and an empty set is returned. A single bad record
// discards the whole document.
func LoadCommands(r io.Reader, rep *reporter) CommandSet {
	set, lerr := loadCommands(r)
	if lerr != nil {
		rep.report(lerr)
		return CommandSet{}
	}
	rep.logger.Info("loaded IR commands", "count", len(set))
	return set
}

// LoadCommandFile loads the command document at path, or the bundled one when
// path is empty.
func LoadCommandFile(path string, rep *reporter) CommandSet {
	if path == "" {
		return LoadCommands(bytes.NewReader(defaultCommands), rep)
	}
	f, err := os.Open(path)
	if err != nil {
		rep.report(&Error{Kind: KindLoadIO, Index: -1, Err: fmt.Errorf("open command file: %w", err)})
		return CommandSet{}
	}
	defer f.Close()
	return LoadCommands(f, rep)
}

// loadCommands is the typed variant of LoadCommands.
func loadCommands(r io.Reader) (CommandSet, *Error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{Kind: KindLoadIO, Index: -1, Err: fmt.Errorf("read command file: %w", err)}
	}

	// Keys are looked up exactly; encoding/json struct decoding would match
	// "Commands" or "FREQUENCY" too.
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return nil, schemaError(fmt.Errorf("parse command file: %w", err))
		}
		return nil, &Error{Kind: KindLoadUnknown, Index: -1, Err: fmt.Errorf("parse command file: %w", err)}
	}
	raw, ok := doc["commands"]
	if !ok || isNull(raw) {
		return nil, schemaError(errors.New(`missing "commands" array`))
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, schemaError(fmt.Errorf(`"commands" is not an array: %w`, err))
	}

	set := make(CommandSet, 0, len(entries))
	for i, entry := range entries {
		rec, err := parseRecord(entry)
		if err != nil {
			return nil, schemaError(fmt.Errorf("command %d: %w", i+1, err))
		}
		set = append(set, rec)
	}
	return set, nil
}

// parseRecord decodes one command object. Values must be JSON integers;
// whole-number floats such as 38000.0 are rejected on purpose.
func parseRecord(raw json.RawMessage) (CommandRecord, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return CommandRecord{}, errors.New("not an object")
	}

	rawFreq, ok := obj["frequency"]
	if !ok || isNull(rawFreq) {
		return CommandRecord{}, errors.New(`missing "frequency"`)
	}
	var frequency int
	if err := json.Unmarshal(rawFreq, &frequency); err != nil {
		return CommandRecord{}, fmt.Errorf(`"frequency": %w`, err)
	}

	rawPattern, ok := obj["pattern"]
	if !ok || isNull(rawPattern) {
		return CommandRecord{}, errors.New(`missing "pattern" array`)
	}
	var values []*int
	if err := json.Unmarshal(rawPattern, &values); err != nil {
		return CommandRecord{}, fmt.Errorf(`"pattern": %w`, err)
	}
	pattern := make([]int, len(values))
	for i, v := range values {
		if v == nil {
			return CommandRecord{}, fmt.Errorf("pattern[%d] is null", i)
		}
		pattern[i] = *v
	}
	return CommandRecord{Frequency: frequency, Pattern: pattern}, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func schemaError(err error) *Error {
	return &Error{Kind: KindLoadSchema, Index: -1, Err: err}
}
