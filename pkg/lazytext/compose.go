package lazytext

import (
	"regexp"
	"strings"
)

// TokenType represents the type of a pattern token
type TokenType int

const (
	TokenText TokenType = iota
	TokenSlot
)

// Token represents a parsed pattern token
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

var (
	// Regular expression to match slot placeholders
	tokenRegex = regexp.MustCompile(`\{\{([^}]*)\}\}`)
)

// Tokenize splits a pattern into text and slot tokens. A placeholder with
// nothing but whitespace inside stays text.
func Tokenize(pattern string) []Token {
	var tokens []Token
	lastEnd := 0

	logger := GetLogger()
	if logger.IsDebugMode() {
		logger.WithField("input_length", len(pattern)).Debug("Starting tokenization")
	}

	for _, match := range tokenRegex.FindAllStringSubmatchIndex(pattern, -1) {
		// Text before this placeholder
		if match[0] > lastEnd {
			tokens = append(tokens, Token{
				Type:     TokenText,
				Value:    pattern[lastEnd:match[0]],
				Position: lastEnd,
			})
		}

		name := strings.TrimSpace(pattern[match[2]:match[3]])
		if name == "" {
			tokens = append(tokens, Token{
				Type:     TokenText,
				Value:    pattern[match[0]:match[1]],
				Position: match[0],
			})
		} else {
			tokens = append(tokens, Token{
				Type:     TokenSlot,
				Value:    name,
				Position: match[0],
			})
		}

		lastEnd = match[1]
	}

	if lastEnd < len(pattern) {
		tokens = append(tokens, Token{
			Type:     TokenText,
			Value:    pattern[lastEnd:],
			Position: lastEnd,
		})
	}

	if logger.IsDebugMode() {
		logger.WithField("token_count", len(tokens)).Debug("Tokenization complete")
	}

	return tokens
}

// Placeholders lists the slot names in pattern in the order they appear,
// repeats included.
func Placeholders(pattern string) []string {
	names := []string{}
	for _, tok := range Tokenize(pattern) {
		if tok.Type == TokenSlot {
			names = append(names, tok.Value)
		}
	}
	return names
}

// Compose builds a sequence from pattern. Text between placeholders becomes
// literal segments and each {{name}} is replaced by slots[name], appended
// lazily. The same holder may fill several placeholders.
func Compose(pattern string, slots map[string]Holder, opts ...SequenceOption) (*Sequence, error) {
	return composeTokens(Tokenize(pattern), slots, opts...)
}

func composeTokens(tokens []Token, slots map[string]Holder, opts ...SequenceOption) (*Sequence, error) {
	seq := NewSequence(opts...)
	for _, tok := range tokens {
		switch tok.Type {
		case TokenText:
			if err := seq.AppendString(tok.Value); err != nil {
				return nil, err
			}
		case TokenSlot:
			h, ok := slots[tok.Value]
			if !ok {
				return nil, NewParseError("no holder bound to placeholder", tok.Value, tok.Position)
			}
			if err := seq.Append(h); err != nil {
				return nil, WithContext(err, "compose", map[string]interface{}{"placeholder": tok.Value})
			}
		}
	}
	return seq, nil
}
