package db

import (
	"strconv"
	"strings"
)

// Where accumulates AND-ed predicates with positional arguments.
type Where struct {
	conds []string
	args  []any
}

// NewWhere starts a clause with an initial predicate, typically tenant scoping.
func NewWhere(cond string, args ...any) *Where {
	w := &Where{}
	return w.And(cond, args...)
}

// And appends a predicate. Each "?" in cond becomes the next $n placeholder.
func (w *Where) And(cond string, args ...any) *Where {
	var b strings.Builder
	i := 0
	for _, r := range cond {
		if r == '?' && i < len(args) {
			w.args = append(w.args, args[i])
			i++
			b.WriteString("$" + strconv.Itoa(len(w.args)))
			continue
		}
		b.WriteRune(r)
	}
	w.conds = append(w.conds, b.String())
	return w
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns user input into a substring pattern for
// "ILIKE ? ESCAPE '\'" with LIKE metacharacters matched literally.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Arg appends a bare argument and returns its placeholder, for LIMIT/OFFSET.
func (w *Where) Arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

// SQL renders " WHERE a AND b" or an empty string.
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Args returns the accumulated arguments.
func (w *Where) Args() []any {
	return w.args
}
