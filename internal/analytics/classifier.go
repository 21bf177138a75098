package analytics

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/livp123/proxylens/internal/config"
	"github.com/livp123/proxylens/internal/parser"
)

// Attack type labels.
const (
	AttackSQLInjection     = "SQL Injection"
	AttackXSS              = "XSS"
	AttackRCE              = "RCE"
	AttackLFI              = "LFI"
	AttackRFI              = "RFI"
	AttackCommandInjection = "Command Injection"
	AttackUnknown          = "Unknown Attack"
)

// ClassifyEnv is the environment custom attack rules are evaluated against.
// ClassifyEnv 是自定义攻击规则求值的环境。
type ClassifyEnv struct {
	Message  string
	Tags     []string
	RuleID   string
	Severity string
	Path     string
	Method   string
	IP       string
	Domain   string
	Blocked  bool
}

type compiledRule struct {
	name    string
	program *vm.Program
}

// Classifier labels WAF events with an attack type. Custom rules run first,
// then the built-in tag keywords, then message phrases.
// Classifier 为 WAF 事件标注攻击类型。自定义规则优先，然后是内置标签关键字，最后是消息短语。
type Classifier struct {
	rules []compiledRule
}

// NewClassifier compiles the configured rules.
// NewClassifier 编译配置的规则。
func NewClassifier(rules []config.AttackRule) (*Classifier, error) {
	c := &Classifier{}
	for _, r := range rules {
		program, err := expr.Compile(r.Expression, expr.Env(ClassifyEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile attack rule '%s': %w", r.Name, err)
		}
		c.rules = append(c.rules, compiledRule{name: r.Name, program: program})
	}
	return c, nil
}

// Classify returns the attack type of ev. Non-WAF events are AttackUnknown.
// Classify 返回事件的攻击类型。非 WAF 事件为 AttackUnknown。
func (c *Classifier) Classify(ev *parser.LogEvent) string {
	if ev == nil || ev.WAFFields == nil {
		return AttackUnknown
	}
	if c != nil && len(c.rules) > 0 {
		env := ClassifyEnv{
			Message:  ev.Message,
			Tags:     ev.Tags,
			RuleID:   ev.RuleID,
			Severity: ev.Severity,
			Path:     ev.Path,
			Method:   ev.Method,
			IP:       ev.IP,
			Domain:   ev.Domain,
			Blocked:  ev.Blocked,
		}
		for _, r := range c.rules {
			out, err := expr.Run(r.program, env)
			if err != nil {
				continue
			}
			if matched, ok := out.(bool); ok && matched {
				return r.name
			}
		}
	}
	if label := classifyTags(ev.Tags); label != "" {
		return label
	}
	if label := classifyMessage(ev.Message); label != "" {
		return label
	}
	return AttackUnknown
}

// classifyTags looks at tag tokens such as "attack-sqli" or
// "OWASP_CRS/WEB_ATTACK/SQL_INJECTION".
func classifyTags(tags []string) string {
	tokens := make(map[string]bool)
	for _, tag := range tags {
		for _, tok := range strings.FieldsFunc(strings.ToLower(tag), func(r rune) bool {
			return r == '-' || r == '_' || r == '/' || r == '.' || r == ' '
		}) {
			tokens[tok] = true
		}
	}
	switch {
	case tokens["sqli"] || (tokens["sql"] && tokens["injection"]):
		return AttackSQLInjection
	case tokens["xss"]:
		return AttackXSS
	case tokens["rce"]:
		return AttackRCE
	case tokens["lfi"]:
		return AttackLFI
	case tokens["rfi"]:
		return AttackRFI
	case tokens["injection"]:
		return AttackCommandInjection
	}
	return ""
}

var messagePhrases = []struct {
	phrases []string
	label   string
}{
	{[]string{"sql injection", "sqli"}, AttackSQLInjection},
	{[]string{"xss", "cross-site scripting", "cross site scripting"}, AttackXSS},
	{[]string{"remote command execution", "remote code execution", "rce"}, AttackRCE},
	{[]string{"local file inclusion", "lfi", "path traversal"}, AttackLFI},
	{[]string{"remote file inclusion", "rfi"}, AttackRFI},
	{[]string{"command injection", "injection"}, AttackCommandInjection},
}

func classifyMessage(msg string) string {
	words := strings.FieldsFunc(strings.ToLower(msg), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-')
	})
	normalized := " " + strings.Join(words, " ") + " "
	for _, entry := range messagePhrases {
		for _, phrase := range entry.phrases {
			if strings.Contains(normalized, " "+phrase+" ") {
				return entry.label
			}
		}
	}
	return ""
}
