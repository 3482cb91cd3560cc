package utils

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// GenerateApprovalQR encode le lien d'approbation du paiement en QR, prêt à
// mettre dans un <img src="..."> (e-mail ou front).
func GenerateApprovalQR(approvalLink string) (string, error) {
	png, err := qrcode.Encode(approvalLink, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
