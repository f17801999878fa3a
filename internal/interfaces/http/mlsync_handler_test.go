package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderIDFromResource(t *testing.T) {
	assert.Equal(t, "2000003508419013", orderIDFromResource("/orders/2000003508419013"))
	assert.Equal(t, "123", orderIDFromResource("orders/123"))
	assert.Equal(t, "", orderIDFromResource("/items/MLA123"))
	assert.Equal(t, "", orderIDFromResource("/orders/123/extra"))
	assert.Equal(t, "", orderIDFromResource(""))
}
