// Package qr builds payment QR payload URLs. Everything here is stateless:
// bank transfers render through the VietQR image service, wallet transfers
// wrap a deep link through a generic QR renderer.
package qr

import (
	"errors"
	"fmt"
	"net/url"
)

var ErrUnknownBankCode = errors.New("unknown bank code")

// Template selects the VietQR image layout.
type Template string

const (
	TemplateCompact  Template = "compact"
	TemplateCompact2 Template = "compact2"
	TemplateQROnly   Template = "qr_only"
)

const DefaultSize = 300

// bankCodes maps short bank ids to their numeric VietQR identifiers.
var bankCodes = map[string]string{
	"VCB":  "970436", // Vietcombank
	"TCB":  "970407", // Techcombank
	"VPB":  "970432", // VPBank
	"MB":   "970422", // MB Bank
	"ACB":  "970416", // ACB
	"BIDV": "970418", // BIDV
	"VTB":  "970415", // Vietinbank
	"TPB":  "970423", // TPBank
	"STB":  "970403", // Sacombank
	"MSB":  "970426", // MSB
}

// BankTransferQR builds a VietQR image URL for a bank transfer. The memo is
// the reference code the customer must include so the payment can be matched.
// An unrecognized bank id is an error rather than a silently malformed URL.
func BankTransferQR(bankID, accountNumber, accountName string, amount float64, memo string, template Template) (string, error) {
	bin, ok := bankCodes[bankID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownBankCode, bankID)
	}
	if template == "" {
		template = TemplateCompact2
	}

	return fmt.Sprintf(
		"https://img.vietqr.io/image/%s-%s-%s.png?amount=%d&addInfo=%s&accountName=%s",
		bin,
		accountNumber,
		template,
		int64(amount),
		url.QueryEscape(memo),
		url.QueryEscape(accountName),
	), nil
}

// WalletQR builds a wallet transfer deep link and wraps it through the
// generic QR renderer, since the deep link itself is not a renderable image.
func WalletQR(phone string, amount float64, memo string) string {
	deepLink := fmt.Sprintf(
		"wallet://app?action=transfer&phone=%s&amount=%d&note=%s",
		phone,
		int64(amount),
		url.QueryEscape(memo),
	)
	return GenericQR(deepLink, DefaultSize)
}

// GenericQR renders arbitrary data as a QR image URL. Every other builder
// that needs an image funnels through here.
func GenericQR(data string, size int) string {
	if size <= 0 {
		size = DefaultSize
	}
	return fmt.Sprintf(
		"https://api.qrserver.com/v1/create-qr-code/?size=%dx%d&data=%s",
		size, size,
		url.QueryEscape(data),
	)
}
