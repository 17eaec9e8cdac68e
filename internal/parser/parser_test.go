package parser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stmtproc/internal/logger"
)

func newTestRegistry() *Registry {
	return NewRegistry(logger.NewWithWriter(&bytes.Buffer{}))
}

func TestRegistryResolve_Aliases(t *testing.T) {
	r := newTestRegistry()

	for _, alias := range []string{"133", "CBA", "cba", "Commonwealth Bank", "COMMONWEALTH BANK"} {
		h := r.Resolve(alias)
		require.NotNil(t, h, "alias %q", alias)
		assert.Equal(t, "Commonwealth Bank", h.Institution())
	}

	for _, alias := range []string{"11", "ANZ", "anz bank"} {
		h := r.Resolve(alias)
		require.NotNil(t, h, "alias %q", alias)
		assert.Equal(t, "ANZ", h.Institution())
	}
}

func TestRegistryResolve_SameHandlePerInstitution(t *testing.T) {
	r := newTestRegistry()
	assert.Same(t, r.Resolve("133"), r.Resolve("Commonwealth Bank"))
	assert.Same(t, r.Resolve("11"), r.Resolve("ANZ Bank"))
}

func TestRegistryResolve_Unknown(t *testing.T) {
	r := newTestRegistry()
	assert.Nil(t, r.Resolve("XYZ"))
	assert.Nil(t, r.Resolve(""))
	assert.Nil(t, r.Resolve("Westpac"))
}

func TestRegistrySupported_SortedAliases(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t,
		[]string{"11", "133", "anz", "anz bank", "cba", "commonwealth bank"},
		r.Supported())
}

func TestRegistry_AIEligibility(t *testing.T) {
	r := newTestRegistry()
	assert.True(t, r.Resolve("CBA").AIEligible)
	assert.False(t, r.Resolve("ANZ").AIEligible)
}
