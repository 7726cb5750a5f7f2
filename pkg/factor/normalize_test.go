package factor_test

import (
	"testing"

	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeAnswer_TrimsAndFolds(t *testing.T) {
	assert.Equal(t, "blue", factor.NormalizeAnswer("  Blue  "))
	assert.Equal(t, "blue", factor.NormalizeAnswer("BLUE"))
}

func TestNormalizeAnswer_SameAcrossCompositionForms(t *testing.T) {
	decomposed := "café"
	precomposed := "café"
	assert.Equal(t, factor.NormalizeAnswer(precomposed), factor.NormalizeAnswer(decomposed))
}
