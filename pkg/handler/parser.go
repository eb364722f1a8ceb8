package handler

import (
	"adbtool/pkg/api"
	"errors"
	"fmt"
	"strings"
)

var errUnterminatedQuote = errors.New("引号未闭合")

// ParseCommand splits a shell line into the operation name and its parameters.
//
//	<name> [--key=value ...] [--flag]
//
// Values are kept as strings; a bare --flag becomes true. Tokens that do not
// start with "--" are ignored.
func ParseCommand(line string) (string, api.Params, error) {
	tokens, err := tokenize(line)
	if err != nil {
		return "", nil, err
	}
	if len(tokens) == 0 {
		return "", nil, errors.New("空命令")
	}

	params := api.Params{}
	for _, tok := range tokens[1:] {
		body, ok := strings.CutPrefix(tok, "--")
		if !ok || body == "" {
			continue
		}
		// 只切第一個 '='，值本身可以包含 '='
		if key, value, found := strings.Cut(body, "="); found {
			if key != "" {
				params[key] = value
			}
		} else {
			params[body] = true
		}
	}
	return tokens[0], params, nil
}

// tokenize splits on whitespace. Single or double quotes group words and are
// removed; a backslash escapes the next character inside double quotes.
func tokenize(line string) ([]string, error) {
	var (
		tokens []string
		cur    strings.Builder
		quote  rune
		inTok  bool
		escape bool
	)
	for _, r := range line {
		switch {
		case escape:
			cur.WriteRune(r)
			escape = false
		case quote != 0:
			switch {
			case r == quote:
				quote = 0
			case r == '\\' && quote == '"':
				escape = true
			default:
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inTok = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inTok {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			cur.WriteRune(r)
			inTok = true
		}
	}
	if quote != 0 || escape {
		return nil, fmt.Errorf("%w: %s", errUnterminatedQuote, line)
	}
	if inTok {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

// NormalizeCommand trims the line and strips the chat-bot decorations
// ("/app_start@my_bot") from the first word.
func NormalizeCommand(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "/")
	name, rest, _ := strings.Cut(line, " ")
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	if rest == "" {
		return name
	}
	return name + " " + rest
}
