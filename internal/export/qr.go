package export

import (
	qrcode "github.com/skip2/go-qrcode"
)

// QRSize is the edge length in pixels of generated QR images.
const QRSize = 256

// QR encodes the confirmation code as a PNG image.
func QR(code string) ([]byte, error) {
	return qrcode.Encode(code, qrcode.Medium, QRSize)
}
