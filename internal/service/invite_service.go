package service

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ulesfyw/fyw-pay/internal/model"
)

// InviteService renders event invites as SVG files on local disk. Each
// invite embeds a QR code carrying the student's matric number and
// reference so gate staff can scan and verify attendance.
type InviteService struct {
	dir     string // directory invites are written to, served statically
	baseURL string // public URL prefix for generated files
}

// NewInviteService returns an InviteService writing into dir and
// producing URLs under baseURL.
func NewInviteService(dir, baseURL string) *InviteService {
	return &InviteService{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

// Generate renders the invite for a fully paid student and returns its
// public URL. Generation overwrites any previous invite file for the
// same matric number, which is what regeneration relies on.
func (s *InviteService) Generate(student *model.Student, pkg *model.Package) (string, error) {
	qrContent := fmt.Sprintf("FYW|%s|%s|%d", student.MatricNumber, pkg.Code, student.ID)
	png, err := qrcode.Encode(qrContent, qrcode.Medium, 220)
	if err != nil {
		return "", fmt.Errorf("invite: encode qr: %w", err)
	}
	qrDataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	var days strings.Builder
	for i, d := range student.SelectedDays {
		if i > 0 {
			days.WriteString(" · ")
		}
		days.WriteString(escapeXML(model.EventDayLabels[d]))
	}

	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="640" height="400" viewBox="0 0 640 400">
  <rect width="640" height="400" rx="16" fill="#101828"/>
  <rect x="8" y="8" width="624" height="384" rx="12" fill="none" stroke="#f4b63f" stroke-width="2"/>
  <text x="32" y="64" font-family="Georgia, serif" font-size="30" fill="#f4b63f">Final Year Week</text>
  <text x="32" y="100" font-family="Helvetica, sans-serif" font-size="16" fill="#e4e7ec">Official Invite</text>
  <text x="32" y="160" font-family="Helvetica, sans-serif" font-size="22" fill="#ffffff">%s</text>
  <text x="32" y="192" font-family="Helvetica, sans-serif" font-size="15" fill="#98a2b3">%s</text>
  <text x="32" y="236" font-family="Helvetica, sans-serif" font-size="17" fill="#f4b63f">%s</text>
  <text x="32" y="268" font-family="Helvetica, sans-serif" font-size="13" fill="#e4e7ec">%s</text>
  <text x="32" y="360" font-family="Helvetica, sans-serif" font-size="11" fill="#667085">Generated %s</text>
  <image x="420" y="120" width="180" height="180" href="%s"/>
</svg>
`,
		escapeXML(student.FullName),
		escapeXML(student.MatricNumber),
		escapeXML(pkg.Name),
		days.String(),
		time.Now().UTC().Format("2006-01-02"),
		qrDataURL,
	)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("invite: mkdir %s: %w", s.dir, err)
	}
	filename := fmt.Sprintf("invite-%s.svg", strings.ToLower(student.MatricNumber))
	fpath := filepath.Join(s.dir, filename)
	if err := os.WriteFile(fpath, []byte(svg), 0o644); err != nil {
		return "", fmt.Errorf("invite: write %s: %w", fpath, err)
	}

	return s.baseURL + "/invites/" + filename, nil
}
