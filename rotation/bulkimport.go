/*
bulkimport.go - Participants from pasted free text

PURPOSE:
  Admins paste a roster, one participant per line. A line containing an
  explicit pair separator ("/", ",", "&", "+", or the word "y") becomes a
  two-person shared turn; anything else is a single. The earlier heuristic
  (exactly two words on a line = pair) misread ordinary two-word names, so
  only explicit separators promote a line to shared.

EXAMPLE:
  Juan Pérez          -> single "Juan Pérez"
  Goku / Vegeta       -> shared "Goku" + "Vegeta"
  María y José        -> shared "María" + "José"
  Ana, Luis, Pedro    -> shared "Ana" + "Luis, Pedro" (split on the first separator only)
*/
package rotation

import (
	"regexp"
	"strings"
)

// pairSeparator matches the explicit shared-turn separators: the symbols
// "/", ",", "&", "+" anywhere, or "y" as a standalone word.
var pairSeparator = regexp.MustCompile(`\s+[yY]\s+|[/,&+]`)

// ParseRoster turns pasted text into participants, one per non-empty line.
// IDs and turn numbers are NOT assigned here; callers append the results to
// a group, which hands out IDs and contiguous turns.
func ParseRoster(text string) []Entity {
	var entities []Entity
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entities = append(entities, parseRosterLine(line))
	}
	return entities
}

func parseRosterLine(line string) Entity {
	parts := pairSeparator.Split(line, 2)
	if len(parts) == 2 {
		first, second := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if first != "" && second != "" {
			return NewShared("",
				Member{Name: first},
				Member{Name: second},
			)
		}
	}
	return NewSingle("", Member{Name: line})
}
