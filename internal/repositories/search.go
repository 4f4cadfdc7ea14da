package repositories

import "strings"

// likeEscaper escapes the LIKE wildcards and the escape character used in likeClause
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likeClause is a LIKE comparison whose pattern comes from containsPattern
const likeClause = " LIKE ? ESCAPE '!'"

// containsPattern matches text anywhere in a column, treating % and _ in text literally
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
