package pix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"email lowercased", "Maria.Silva@Example.COM", "maria.silva@example.com"},
		{"formatted cpf", "123.456.789-09", "12345678909"},
		{"bare cpf", "12345678909", "12345678909"},
		{"formatted cnpj", "12.345.678/0001-95", "12345678000195"},
		{"bare cnpj", "12345678000195", "12345678000195"},
		{"mobile with ddd", "11999999999", "+5511999999999"},
		{"landline with ddd", "1133334444", "+551133334444"},
		{"formatted phone", "(11) 99999-9999", "+5511999999999"},
		{"phone with country code", "5511999999999", "+5511999999999"},
		{"e164 phone kept", "+5511999999999", "+5511999999999"},
		{"evp uuid lowercased", "123E4567-E89B-12D3-A456-426614174000", "123e4567-e89b-12d3-a456-426614174000"},
		{"evp without hyphens", "123e4567e89b12d3a456426614174000", "123e4567-e89b-12d3-a456-426614174000"},
		{"surrounding whitespace", "  user@bank.com ", "user@bank.com"},
		{"empty", "", ""},
		{"unrecognized returned as-is", "not-a-key", "not-a-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	t.Run("accents stripped and uppercased", func(t *testing.T) {
		assert.Equal(t, "SAO PAULO", NormalizeText("São Paulo", 15))
		assert.Equal(t, "JOAO DAVILA", NormalizeText("João D'Ávila", 25))
	})

	t.Run("whitespace collapsed", func(t *testing.T) {
		assert.Equal(t, "SCHOOL HUB", NormalizeText("  school   hub  ", 25))
	})

	t.Run("truncated to byte limit", func(t *testing.T) {
		got := NormalizeText("ASSOCIACAO DE PAIS E MESTRES DA ESCOLA", 25)
		assert.LessOrEqual(t, len(got), 25)
		assert.Equal(t, "ASSOCIACAO DE PAIS E MEST", got)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", NormalizeText("", 25))
	})
}

func TestNormalizeTxID(t *testing.T) {
	assert.Equal(t, "FESTAJUNINA2026", NormalizeTxID("festa junina 2026"))
	assert.Equal(t, "***", NormalizeTxID(""))
	assert.Equal(t, "***", NormalizeTxID("!!!"))
	assert.Len(t, NormalizeTxID("A1B2C3D4E5F6G7H8I9J0K1L2M3N4O5"), MaxTxIDLen)
}
