package polish

import (
	"regexp"
	"strings"
)

// ReplacementKind selects how a Substitution rewrites a match.
type ReplacementKind uint8

const (
	// ReplaceLiteral expands Template (with $1-style group references) for every match.
	ReplaceLiteral ReplacementKind = iota
	// ReplaceComputed passes every matched substring through Transform.
	ReplaceComputed
)

// Replacement is the right-hand side of a Substitution.
type Replacement struct {
	Kind      ReplacementKind
	Template  string
	Transform func(match string) string
}

// Literal builds a template replacement.
func Literal(template string) Replacement {
	return Replacement{Kind: ReplaceLiteral, Template: template}
}

// Computed builds a match-transform replacement.
func Computed(transform func(match string) string) Replacement {
	return Replacement{Kind: ReplaceComputed, Transform: transform}
}

// Substitution is one single-pass regex rewrite.
type Substitution struct {
	Pattern     *regexp.Regexp
	Replacement Replacement
}

// Apply runs the substitution once over text (not to a fixed point).
func (s Substitution) Apply(text string) string {
	switch s.Replacement.Kind {
	case ReplaceComputed:
		return s.Pattern.ReplaceAllStringFunc(text, s.Replacement.Transform)
	default:
		return s.Pattern.ReplaceAllString(text, s.Replacement.Template)
	}
}

// Mapping is an exact substring rewrite.
type Mapping struct {
	From string
	To   string
}

// Keywords drives Chinese smart punctuation. Order is significant.
type Keywords struct {
	Connectives    []string
	Interrogatives []string
	Exclamatives   []string
	FinalParticles []string
}

// RuleSet is the immutable rule table for one language.
type RuleSet struct {
	Language       Language
	Punctuation    []Mapping
	Duplicates     []Mapping
	Spacing        []Substitution
	Capitalization []Substitution
	Keywords       Keywords
	Terminal       string
}

// Tables holds every known RuleSet. It is never mutated after construction and
// may be shared by concurrent callers.
type Tables struct {
	sets map[Language]*RuleSet
}

// NewTables indexes rule sets by language.
func NewTables(sets ...*RuleSet) *Tables {
	t := &Tables{sets: make(map[Language]*RuleSet, len(sets))}
	for _, set := range sets {
		if set == nil {
			continue
		}
		t.sets[set.Language] = set
	}
	return t
}

// DefaultTables returns the built-in Chinese and English rule sets.
func DefaultTables() *Tables {
	return NewTables(chineseRules(), englishRules())
}

// Lookup returns the rule set for lang.
func (t *Tables) Lookup(lang Language) (*RuleSet, bool) {
	if t == nil {
		return nil, false
	}
	set, ok := t.sets[lang]
	return set, ok
}

// Languages lists the tags with a rule set, in a stable order.
func (t *Tables) Languages() []Language {
	out := make([]Language, 0, len(t.sets))
	for _, lang := range []Language{Chinese, English} {
		if _, ok := t.sets[lang]; ok {
			out = append(out, lang)
		}
	}
	return out
}

const cjkClass = `[\x{4e00}-\x{9fff}]`

func chineseRules() *RuleSet {
	return &RuleSet{
		Language: Chinese,
		Punctuation: []Mapping{
			{From: "，", To: ","},
			{From: "。", To: "."},
			{From: "！", To: "!"},
			{From: "？", To: "?"},
			{From: "；", To: ";"},
			{From: "：", To: ":"},
			{From: "“", To: `"`},
			{From: "”", To: `"`},
			{From: "‘", To: "'"},
			{From: "’", To: "'"},
			{From: "（", To: "("},
			{From: "）", To: ")"},
			{From: "【", To: "["},
			{From: "】", To: "]"},
			{From: "《", To: "<"},
			{From: "》", To: ">"},
		},
		Duplicates: doubled("的", "了", "是", "在", "有", "和", "与", "或", "但", "而"),
		Spacing: []Substitution{
			{Pattern: regexp.MustCompile(`([a-zA-Z])(` + cjkClass + `)`), Replacement: Literal("${1} ${2}")},
			{Pattern: regexp.MustCompile(`(` + cjkClass + `)([a-zA-Z])`), Replacement: Literal("${1} ${2}")},
			{Pattern: regexp.MustCompile(`([0-9])(` + cjkClass + `)`), Replacement: Literal("${1} ${2}")},
			{Pattern: regexp.MustCompile(`(` + cjkClass + `)([0-9])`), Replacement: Literal("${1} ${2}")},
		},
		Keywords: Keywords{
			// 总的来说 is listed three times; the final collapse pass absorbs the extra commas.
			Connectives: []string{
				"但是", "然而", "不过", "可是", "只是", "而且", "并且", "或者", "还是",
				"如果", "虽然", "因为", "所以", "因此", "然后", "接着", "最后", "首先",
				"其次", "另外", "此外", "同时", "总之", "总的来说", "总的来说", "总的来说",
			},
			Interrogatives: []string{"什么", "怎么", "为什么", "哪里", "哪个", "谁", "几", "多少", "如何"},
			Exclamatives:   []string{"真", "太", "好", "棒", "厉害", "精彩", "完美", "糟糕", "可怕"},
			FinalParticles: []string{"了", "的", "吧", "啊", "呢", "么", "哦", "呀", "嘛", "啦"},
		},
		Terminal: "。",
	}
}

func englishRules() *RuleSet {
	return &RuleSet{
		Language: English,
		Duplicates: doubledWords(
			"the", "a", "an", "is", "are", "was", "were", "have", "has", "had",
			"will", "would", "can", "could", "should", "may", "might",
		),
		Capitalization: []Substitution{
			{Pattern: regexp.MustCompile(`\bi\b`), Replacement: Literal("I")},
			{Pattern: regexp.MustCompile(`^[a-z]`), Replacement: Computed(strings.ToUpper)},
			{Pattern: regexp.MustCompile(`\. [a-z]`), Replacement: Computed(strings.ToUpper)},
		},
		Terminal: ".",
	}
}

func doubled(tokens ...string) []Mapping {
	out := make([]Mapping, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, Mapping{From: token + token, To: token})
	}
	return out
}

func doubledWords(words ...string) []Mapping {
	out := make([]Mapping, 0, len(words))
	for _, word := range words {
		out = append(out, Mapping{From: word + " " + word, To: word})
	}
	return out
}
