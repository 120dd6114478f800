package pix

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	uuidPattern   = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)
	hexPattern    = regexp.MustCompile(`^[a-fA-F0-9]+$`)
	cpfPattern    = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	cnpjPattern   = regexp.MustCompile(`^\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}$`)
	nonHex        = regexp.MustCompile(`[^a-fA-F0-9]`)
	nonDigit      = regexp.MustCompile(`[^0-9]`)
	nonAlnumSpace = regexp.MustCompile(`[^a-zA-Z0-9 ]`)
	nonAlnum      = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// removeAccents strips combining marks: NFD decomposition, drop the Mn
// category, recompose.
func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeKey canonicalizes a PIX key per the Central Bank's key types:
// email (lowercase), EVP/random key (lowercase UUID with hyphens), CPF
// (11 digits), CNPJ (14 digits) and Brazilian phones (E.164, +55...).
// Anything unrecognized is returned as-is.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	if strings.Contains(key, "@") {
		return strings.ToLower(key)
	}

	if uuidPattern.MatchString(key) {
		return strings.ToLower(key)
	}
	// UUID without hyphens: 32 hex characters.
	if hexOnly := nonHex.ReplaceAllString(key, ""); len(hexOnly) == 32 && hexPattern.MatchString(key) {
		h := strings.ToLower(hexOnly)
		return h[:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:]
	}

	digits := nonDigit.ReplaceAllString(key, "")
	hasPlus := strings.HasPrefix(key, "+")

	if cpfPattern.MatchString(key) && len(digits) == 11 {
		return digits
	}
	if cnpjPattern.MatchString(key) && len(digits) == 14 {
		return digits
	}

	hasParens := strings.ContainsAny(key, "()")
	looksLikePhone := false
	if len(digits) >= 2 {
		ddd := int(digits[0]-'0')*10 + int(digits[1]-'0')
		switch {
		case len(digits) == 11 && digits[2] == '9' && ddd >= 11:
			// DDD + mobile number starting with 9.
			looksLikePhone = true
		case len(digits) == 10 && ddd >= 11:
			// DDD + landline.
			looksLikePhone = true
		}
	}

	isPhone := hasPlus || hasParens ||
		(strings.HasPrefix(digits, "55") && len(digits) >= 12) ||
		looksLikePhone

	if isPhone && digits != "" {
		if hasPlus || (strings.HasPrefix(digits, "55") && len(digits) >= 12) {
			return "+" + digits
		}
		return "+55" + digits
	}

	// Unformatted CNPJ / CPF.
	if len(digits) == 14 {
		return digits
	}
	if len(digits) == 11 {
		return digits
	}

	return key
}

// NormalizeText prepares free text for a BR Code field: accents stripped,
// non-alphanumerics dropped, whitespace collapsed, uppercased and cut to
// maxLen.
func NormalizeText(value string, maxLen int) string {
	if value == "" {
		return ""
	}
	value = removeAccents(value)
	value = nonAlnumSpace.ReplaceAllString(value, "")
	value = strings.Join(strings.Fields(value), " ")
	value = strings.ToUpper(value)
	if len(value) > maxLen {
		value = strings.TrimSpace(value[:maxLen])
	}
	return value
}

// NormalizeTxID prepares a transaction reference: alphanumerics only,
// uppercased, cut to MaxTxIDLen. The PIX fallback for "no reference" is
// "***".
func NormalizeTxID(value string) string {
	value = removeAccents(value)
	value = nonAlnum.ReplaceAllString(value, "")
	value = strings.ToUpper(value)
	if len(value) > MaxTxIDLen {
		value = value[:MaxTxIDLen]
	}
	if value == "" {
		return "***"
	}
	return value
}
