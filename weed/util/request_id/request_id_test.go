package request_id

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureKeepsExistingId(t *testing.T) {
	ctx := Set(context.Background(), "abc")
	assert.Equal(t, "abc", Get(Ensure(ctx)))
}

func TestEnsureMintsId(t *testing.T) {
	ctx := Ensure(context.Background())
	id := Get(ctx)
	assert.Len(t, id, 36)
	assert.Equal(t, id, Get(Ensure(ctx)))
	assert.Equal(t, "", Get(nil))
}
