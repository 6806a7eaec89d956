package polish

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrUnknownLanguage is returned under HintStrict for hints with no rule set.
var ErrUnknownLanguage = errors.New("unknown language hint")

// HintPolicy controls how unrecognized language hints are handled.
type HintPolicy string

const (
	// HintDetect discards unknown hints and detects the language.
	HintDetect HintPolicy = "detect"
	// HintStrict rejects unknown hints with ErrUnknownLanguage.
	HintStrict HintPolicy = "strict"
	// HintPassthrough keeps the raw hint as the language and applies only generic cleanup.
	HintPassthrough HintPolicy = "passthrough"
)

// UnicodeForm selects optional input normalization.
type UnicodeForm string

const (
	FormNone UnicodeForm = "none"
	FormNFC  UnicodeForm = "nfc"
)

// Change log messages shared across entries of the same category.
const (
	ChangeSmartPunctuation   = "smart punctuation inserted"
	ChangeSpacing            = "added spacing between scripts"
	ChangeCapitalization     = "fixed capitalization"
	ChangeTerminal           = "added terminal punctuation"
	ChangeUnicodeNormalized  = "normalized unicode"
	changePunctuationFormat  = "punctuation: '%s' → '%s'"
	changeDuplicateFormat    = "duplicate word: '%s' → '%s'"
	terminalPunctuationMarks = ".!?。！？"
)

// Options tunes an Engine. The zero value disables every optional pass.
type Options struct {
	DefaultLanguage             Language
	HintPolicy                  HintPolicy
	SmartPunctuation            bool
	PreserveInsertedPunctuation bool
	UnicodeForm                 UnicodeForm
}

// DefaultOptions returns the canonical engine behavior.
func DefaultOptions() Options {
	return Options{
		HintPolicy:                  HintDetect,
		SmartPunctuation:            true,
		PreserveInsertedPunctuation: true,
		UnicodeForm:                 FormNone,
	}
}

// Result is the outcome of one polish call.
type Result struct {
	Original string   `json:"original"`
	Polished string   `json:"polished"`
	Language Language `json:"language"`
	Changes  []string `json:"changes"`
}

// Engine runs the polish pipeline against shared read-only rule tables.
type Engine struct {
	tables *Tables
	opts   Options
}

// NewEngine builds an engine; nil tables selects DefaultTables.
func NewEngine(tables *Tables, opts Options) *Engine {
	if tables == nil {
		tables = DefaultTables()
	}
	if opts.HintPolicy == "" {
		opts.HintPolicy = HintDetect
	}
	return &Engine{tables: tables, opts: opts}
}

// Tables exposes the engine's rule tables.
func (e *Engine) Tables() *Tables {
	return e.tables
}

// Run polishes text. hint may be empty; see HintPolicy for unknown values.
func (e *Engine) Run(text string, hint string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{Original: text, Polished: text, Language: Unknown, Changes: []string{}}, nil
	}

	language, err := e.resolveLanguage(text, hint)
	if err != nil {
		return Result{}, err
	}

	working := text
	changes := make([]string, 0)

	if e.opts.UnicodeForm == FormNFC {
		if normalized := norm.NFC.String(working); normalized != working {
			working = normalized
			changes = append(changes, ChangeUnicodeNormalized)
		}
	}

	rules, hasRules := e.tables.Lookup(language)
	inserted := false
	if hasRules && language == Chinese && e.opts.SmartPunctuation && !isPunctuated(working) {
		working = InsertChinesePunctuation(working, rules.Keywords)
		changes = append(changes, ChangeSmartPunctuation)
		inserted = true
	}

	if hasRules {
		for _, m := range rules.Punctuation {
			if inserted && e.opts.PreserveInsertedPunctuation && isInsertedMarkString(m.From) {
				continue
			}
			if !strings.Contains(working, m.From) {
				continue
			}
			working = strings.ReplaceAll(working, m.From, m.To)
			changes = append(changes, fmt.Sprintf(changePunctuationFormat, m.From, m.To))
		}

		for _, m := range rules.Duplicates {
			if !strings.Contains(working, m.From) {
				continue
			}
			working = strings.ReplaceAll(working, m.From, m.To)
			changes = append(changes, fmt.Sprintf(changeDuplicateFormat, m.From, m.To))
		}

		working, changes = applySubstitutions(working, rules.Spacing, ChangeSpacing, changes)
		working, changes = applySubstitutions(working, rules.Capitalization, ChangeCapitalization, changes)
	}

	working = strings.Join(strings.Fields(working), " ")

	if working != "" {
		last, _ := utf8.DecodeLastRuneInString(working)
		if !strings.ContainsRune(terminalPunctuationMarks, last) {
			if language == Chinese {
				working += "。"
			} else {
				working += "."
			}
			changes = append(changes, ChangeTerminal)
		}
	}

	return Result{Original: text, Polished: working, Language: language, Changes: changes}, nil
}

// resolveLanguage applies the hint policy, falling back to the configured
// default language and then detection.
func (e *Engine) resolveLanguage(text string, hint string) (Language, error) {
	if strings.TrimSpace(hint) == "" {
		hint = string(e.opts.DefaultLanguage)
	}
	if strings.TrimSpace(hint) == "" {
		return Detect(text), nil
	}

	if lang, ok := ParseLanguage(hint); ok {
		if _, known := e.tables.Lookup(lang); known {
			return lang, nil
		}
	}

	switch e.opts.HintPolicy {
	case HintStrict:
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, hint)
	case HintPassthrough:
		return Language(hint), nil
	default:
		return Detect(text), nil
	}
}

func applySubstitutions(text string, subs []Substitution, message string, changes []string) (string, []string) {
	for _, sub := range subs {
		next := sub.Apply(text)
		if next == text {
			continue
		}
		text = next
		changes = append(changes, message)
	}
	return text, changes
}

func isInsertedMarkString(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size == len(s) && isInsertedMark(r)
}
