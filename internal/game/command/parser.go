package command

import (
	"strings"
	"unicode"
)

// ParseResult holds a command line split into its verb and arguments.
type ParseResult struct {
	// Command is the verb, lowercased.
	Command string
	// Args are the remaining words. A coordinate pair typed as "1,-2" or
	// "(1, -2)" arrives as two arguments.
	Args []string
	// RawArgs is the text after the verb as typed, for error messages.
	RawArgs string
}

// separator reports whether r splits arguments. Commas and parentheses
// separate like spaces so coordinates can be written the way the map
// prints them.
func separator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '(' || r == ')'
}

// Parse splits a command line into a verb and arguments.
//
// Postcondition: Returns a ParseResult. If line holds no words, Command is
// empty. Argument case is kept.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	words := strings.FieldsFunc(line, separator)
	if len(words) == 0 {
		return ParseResult{}
	}
	pr := ParseResult{Command: strings.ToLower(words[0])}
	if len(words) > 1 {
		pr.Args = words[1:]
	}
	if i := strings.IndexFunc(line, separator); i >= 0 {
		pr.RawArgs = strings.TrimSpace(line[i:])
	}
	return pr
}

// compassWords maps spelled-out directions onto the short names hex.ParseFacing
// accepts.
var compassWords = map[string]string{
	"east":      "e",
	"northeast": "ne",
	"northwest": "nw",
	"west":      "w",
	"southwest": "sw",
	"southeast": "se",
}

// Compass joins args into one direction word: "North East", "north-east" and
// "NE" all become "ne". Anything it does not recognise is returned lowercased
// and joined so the caller's parse can reject it.
func Compass(args []string) string {
	w := strings.ToLower(strings.Join(args, ""))
	w = strings.NewReplacer("-", "", "_", "").Replace(w)
	if short, ok := compassWords[w]; ok {
		return short
	}
	return w
}
