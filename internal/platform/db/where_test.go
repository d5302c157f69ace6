package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhereNumbersPlaceholdersInOrder(t *testing.T) {
	w := NewWhere("tenant_id = ?", int64(4)).
		And("(name ILIKE ? OR code ILIKE ?)", "%rye%", "%rye%").
		And("is_active")
	limit := w.Arg(20)

	assert.Equal(t, " WHERE tenant_id = $1 AND (name ILIKE $2 OR code ILIKE $3) AND is_active", w.SQL())
	assert.Equal(t, "$4", limit)
	assert.Equal(t, []any{int64(4), "%rye%", "%rye%", 20}, w.Args())
}

func TestWhereEmpty(t *testing.T) {
	assert.Equal(t, "", (&Where{}).SQL())
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%rye%", ContainsPattern("rye"))
	assert.Equal(t, `%50\% off%`, ContainsPattern("50% off"))
	assert.Equal(t, `%a\_b%`, ContainsPattern("a_b"))
	assert.Equal(t, `%c:\\dir%`, ContainsPattern(`c:\dir`))
}
