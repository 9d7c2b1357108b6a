package postgres

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns a user query into an ILIKE substring pattern with
// wildcards escaped (use with ESCAPE '\').
func ContainsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
