// Package pix builds and parses BR Code payment payloads, the EMV-QR
// derived text format defined by the Brazilian Central Bank for PIX.
// Everything in this package is pure and stateless.
package pix

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// EMV tag ids, in the order they are emitted.
const (
	tagPayloadFormat   = "00"
	tagMerchantAccount = "26"
	tagMCC             = "52"
	tagCurrency        = "53"
	tagAmount          = "54"
	tagCountry         = "58"
	tagMerchantName    = "59"
	tagMerchantCity    = "60"
	tagAdditionalData  = "62"
	tagCRC             = "63"

	subTagGUI         = "00"
	subTagKey         = "01"
	subTagDescription = "02"
	subTagTxID        = "05"
)

const (
	// GUI is the globally unique identifier of the PIX arrangement,
	// carried inside the merchant account information field.
	GUI = "br.gov.bcb.pix"

	payloadFormatVersion = "01"
	merchantCategoryCode = "0000"
	currencyBRL          = "986"
	countryCode          = "BR"

	MaxKeyLen         = 77
	MaxNameLen        = 25
	MaxCityLen        = 15
	MaxDescriptionLen = 72
	MaxTxIDLen        = 25
)

var (
	ErrFieldLengthExceeded = errors.New("field length exceeded")
	ErrMalformedPayload    = errors.New("malformed payload")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrInvalidAmount       = errors.New("amount must be digits with two decimal places")
)

var amountPattern = regexp.MustCompile(`^\d{1,11}\.\d{2}$`)

// Payload is the field set of a BR Code. Values are encoded exactly as
// given; normalization (accents, key formats, truncation) is the caller's
// concern, which keeps Decode(Encode(p)) == p.
type Payload struct {
	Key          string
	Description  string
	MerchantName string
	MerchantCity string
	Amount       string // fixed two-decimal string, empty for a static code
	TxID         string
}

// field renders one TLV element: ID + two-digit byte length + value.
func field(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

func checkLen(name, value string, max int) error {
	if len(value) > max {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFieldLengthExceeded, name, len(value), max)
	}
	return nil
}

// Encode serializes the payload into a BR Code string ending in the
// CRC-16/CCITT-FALSE checksum. The output is byte-exact: field order is
// fixed and lengths count UTF-8 bytes, not runes.
func Encode(p Payload) (string, error) {
	if p.Key == "" {
		return "", fmt.Errorf("%w: pix key is required", ErrMalformedPayload)
	}
	if p.MerchantName == "" || p.MerchantCity == "" {
		return "", fmt.Errorf("%w: merchant name and city are required", ErrMalformedPayload)
	}
	if err := checkLen("pix key", p.Key, MaxKeyLen); err != nil {
		return "", err
	}
	if err := checkLen("merchant name", p.MerchantName, MaxNameLen); err != nil {
		return "", err
	}
	if err := checkLen("merchant city", p.MerchantCity, MaxCityLen); err != nil {
		return "", err
	}
	if err := checkLen("description", p.Description, MaxDescriptionLen); err != nil {
		return "", err
	}
	txid := p.TxID
	if txid == "" {
		txid = "***"
	}
	if err := checkLen("transaction id", txid, MaxTxIDLen); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(field(tagPayloadFormat, payloadFormatVersion))

	// The point-of-initiation field (01) is omitted on purpose: dynamic
	// codes are reserved for registered PSPs and static codes scan more
	// reliably across bank apps without it.

	account := field(subTagGUI, GUI) + field(subTagKey, p.Key)
	if p.Description != "" {
		account += field(subTagDescription, p.Description)
	}
	if err := checkLen("merchant account information", account, 99); err != nil {
		return "", err
	}
	b.WriteString(field(tagMerchantAccount, account))

	b.WriteString(field(tagMCC, merchantCategoryCode))
	b.WriteString(field(tagCurrency, currencyBRL))

	if p.Amount != "" {
		if !amountPattern.MatchString(p.Amount) {
			return "", fmt.Errorf("%w: %q", ErrInvalidAmount, p.Amount)
		}
		b.WriteString(field(tagAmount, p.Amount))
	}

	b.WriteString(field(tagCountry, countryCode))
	b.WriteString(field(tagMerchantName, p.MerchantName))
	b.WriteString(field(tagMerchantCity, p.MerchantCity))
	b.WriteString(field(tagAdditionalData, field(subTagTxID, txid)))

	// The checksum covers everything emitted so far plus its own tag id
	// and length.
	b.WriteString(tagCRC + "04")
	crc := ChecksumCCITTFalse([]byte(b.String()))
	return b.String() + fmt.Sprintf("%04X", crc), nil
}

type tlvField struct {
	id    string
	value string
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func parseTLV(s string) ([]tlvField, error) {
	var fields []tlvField
	for i := 0; i < len(s); {
		if i+4 > len(s) {
			return nil, fmt.Errorf("%w: truncated field header at byte %d", ErrMalformedPayload, i)
		}
		id, lenDigits := s[i:i+2], s[i+2:i+4]
		if !isDigits(id) || !isDigits(lenDigits) {
			return nil, fmt.Errorf("%w: non-numeric field header at byte %d", ErrMalformedPayload, i)
		}
		n, _ := strconv.Atoi(lenDigits)
		if i+4+n > len(s) {
			return nil, fmt.Errorf("%w: field %s length %d overruns payload", ErrMalformedPayload, id, n)
		}
		fields = append(fields, tlvField{id: id, value: s[i+4 : i+4+n]})
		i += 4 + n
	}
	return fields, nil
}

// Decode parses a BR Code and returns its field set. The checksum is
// verified before any structural parsing so that any corruption of the
// payload body surfaces as ErrChecksumMismatch rather than a parse error.
func Decode(code string) (Payload, error) {
	if len(code) < 8 {
		return Payload{}, fmt.Errorf("%w: payload too short", ErrMalformedPayload)
	}

	body, gotCRC := code[:len(code)-4], code[len(code)-4:]
	wantCRC := fmt.Sprintf("%04X", ChecksumCCITTFalse([]byte(body)))
	if gotCRC != wantCRC {
		return Payload{}, fmt.Errorf("%w: have %s, computed %s", ErrChecksumMismatch, gotCRC, wantCRC)
	}

	fields, err := parseTLV(code)
	if err != nil {
		return Payload{}, err
	}
	last := fields[len(fields)-1]
	if last.id != tagCRC || len(last.value) != 4 {
		return Payload{}, fmt.Errorf("%w: payload must end with the CRC field", ErrMalformedPayload)
	}

	var p Payload
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.id] {
			return Payload{}, fmt.Errorf("%w: duplicate field %s", ErrMalformedPayload, f.id)
		}
		seen[f.id] = true

		switch f.id {
		case tagPayloadFormat:
			if f.value != payloadFormatVersion {
				return Payload{}, fmt.Errorf("%w: unsupported payload format %q", ErrMalformedPayload, f.value)
			}
		case tagMerchantAccount:
			sub, err := parseTLV(f.value)
			if err != nil {
				return Payload{}, err
			}
			var gui string
			for _, s := range sub {
				switch s.id {
				case subTagGUI:
					gui = s.value
				case subTagKey:
					p.Key = s.value
				case subTagDescription:
					p.Description = s.value
				}
			}
			if !strings.EqualFold(gui, GUI) {
				return Payload{}, fmt.Errorf("%w: unexpected GUI %q", ErrMalformedPayload, gui)
			}
		case tagAmount:
			if !amountPattern.MatchString(f.value) {
				return Payload{}, fmt.Errorf("%w: bad amount %q", ErrMalformedPayload, f.value)
			}
			p.Amount = f.value
		case tagMerchantName:
			p.MerchantName = f.value
		case tagMerchantCity:
			p.MerchantCity = f.value
		case tagAdditionalData:
			sub, err := parseTLV(f.value)
			if err != nil {
				return Payload{}, err
			}
			for _, s := range sub {
				if s.id == subTagTxID {
					p.TxID = s.value
				}
			}
		}
	}

	for id, name := range map[string]string{
		tagPayloadFormat:   "payload format indicator",
		tagMerchantAccount: "merchant account information",
		tagMerchantName:    "merchant name",
		tagMerchantCity:    "merchant city",
	} {
		if !seen[id] {
			return Payload{}, fmt.Errorf("%w: missing %s", ErrMalformedPayload, name)
		}
	}
	if p.Key == "" {
		return Payload{}, fmt.Errorf("%w: missing pix key", ErrMalformedPayload)
	}

	return p, nil
}
