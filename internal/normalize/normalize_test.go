package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	require.Equal(t, "JOAO DA SILVA", Name("joão da silva"))
	require.Equal(t, Name("joão da silva"), Name("JOAO DA SILVA "))
	require.Equal(t, "MARIA DE ANDRADE", Name("  maria \t de  andrade\n"))
	require.Equal(t, "", Name(""))
	require.Equal(t, "", Name("   "))
}

func TestProcessNumber(t *testing.T) {
	require.Equal(t, "000123456202481100000", ProcessNumber("0001234-56.2024.8.11.0000"))
	require.Equal(t, ProcessNumber("0001234-56.2024.8.11.0000"), ProcessNumber("000123456202481100000"))
	require.Equal(t, "", ProcessNumber("n/a"))
	require.Equal(t, "", ProcessNumber(""))
}
