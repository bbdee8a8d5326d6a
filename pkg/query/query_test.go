package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/geohistory/pkg/query"
)

func TestStringSlice(t *testing.T) {
	assert.Nil(t, query.StringSlice(""))
	assert.Equal(t, []string{"a", "b"}, query.StringSlice(" a, ,b ,"))
}
