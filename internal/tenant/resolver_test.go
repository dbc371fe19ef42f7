package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver(t *testing.T) {
	resolver := NewResolver(map[string]string{
		"pontos.acme.com.br":   "acme",
		"Clube.Varejo.com.br":  "varejo",
	}, "")

	t.Run("exact match", func(t *testing.T) {
		schema, err := resolver.Resolve("pontos.acme.com.br")
		assert.NoError(t, err)
		assert.Equal(t, "acme", schema)
	})

	t.Run("port and case ignored", func(t *testing.T) {
		schema, err := resolver.Resolve("PONTOS.ACME.COM.BR:8443")
		assert.NoError(t, err)
		assert.Equal(t, "acme", schema)

		schema, err = resolver.Resolve("clube.varejo.com.br")
		assert.NoError(t, err)
		assert.Equal(t, "varejo", schema)
	})

	t.Run("unknown host without default", func(t *testing.T) {
		_, err := resolver.Resolve("evil.example.com")
		assert.ErrorIs(t, err, ErrUnknownHost)
	})
}

func TestResolver_Default(t *testing.T) {
	resolver := NewResolver(map[string]string{"pontos.acme.com.br": "acme"}, "demo")

	schema, err := resolver.Resolve("localhost:8080")
	assert.NoError(t, err)
	assert.Equal(t, "demo", schema)
}
