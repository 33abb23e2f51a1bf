package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/samaj-registry/registry-backend/monitoring"
	"github.com/samaj-registry/registry-backend/v1/models"
)

// CardConfig configures the PDF renderer
type CardConfig struct {
	// ChromiumPath overrides the browser binary; empty uses the default lookup
	ChromiumPath string
	// Timeout bounds one render; zero means 15s
	Timeout time.Duration
	// OrganizationName appears on every card and sticker
	OrganizationName string
}

// CardService renders printable identity cards and address stickers via
// headless Chromium. If Chromium is unavailable, rendering returns an error
// so the handler can respond 503 rather than serving a broken document.
type CardService struct {
	cfg CardConfig
}

// NewCardService creates a new PDF renderer
func NewCardService(cfg CardConfig) *CardService {
	if cfg.OrganizationName == "" {
		cfg.OrganizationName = "Community Registry"
	}
	return &CardService{cfg: cfg}
}

// RenderIDCard builds an identity card for one household and prints it to PDF
func (s *CardService) RenderIDCard(ctx context.Context, member *models.Member, zoneName string) ([]byte, error) {
	html, err := s.renderHTML(idCardTemplate, idCardData{
		Organization:     s.cfg.OrganizationName,
		MembershipNumber: strconv.FormatInt(member.MembershipNumber, 10),
		HeadName:         member.HeadName,
		Phone:            member.Phone,
		Zone:             zoneName,
		AddressLine:      member.AddressLine,
		City:             member.City,
		Pincode:          member.Pincode,
		FamilyMembers:    member.FamilyMembers,
		IssuedOn:         time.Now().UTC().Format("02 Jan 2006"),
	})
	if err != nil {
		return nil, err
	}
	pdf, err := s.printToPDF(ctx, html)
	monitoring.CountPDFRender(ctx, "id-card", err == nil)
	return pdf, err
}

// RenderAddressStickers builds a sheet of address stickers for the given
// households and prints it to PDF
func (s *CardService) RenderAddressStickers(ctx context.Context, members []models.Member) ([]byte, error) {
	stickers := make([]stickerData, 0, len(members))
	for _, member := range members {
		stickers = append(stickers, stickerData{
			MembershipNumber: strconv.FormatInt(member.MembershipNumber, 10),
			HeadName:         member.HeadName,
			AddressLine:      member.AddressLine,
			City:             member.City,
			Pincode:          member.Pincode,
		})
	}
	html, err := s.renderHTML(stickerTemplate, stickerSheetData{
		Organization: s.cfg.OrganizationName,
		Stickers:     stickers,
	})
	if err != nil {
		return nil, err
	}
	pdf, err := s.printToPDF(ctx, html)
	monitoring.CountPDFRender(ctx, "stickers", err == nil)
	return pdf, err
}

func (s *CardService) renderHTML(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render card HTML: %w", err)
	}
	return buf.String(), nil
}

// printToPDF prints an HTML document to PDF in a headless Chromium tab
func (s *CardService) printToPDF(ctx context.Context, html string) ([]byte, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if s.cfg.ChromiumPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(s.cfg.ChromiumPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	runCtx, cancelRun := chromedp.NewContext(allocCtx)
	defer cancelRun()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, timeout)
	defer cancelTimeout()

	var pdfBuf []byte
	dataURL := "data:text/html," + url.PathEscape(html)
	err := chromedp.Run(runCtx,
		chromedp.Navigate(dataURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, perr := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if perr == nil {
				pdfBuf = buf
			}
			return perr
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pdf render failed: %w", err)
	}
	return pdfBuf, nil
}

type idCardData struct {
	Organization     string
	MembershipNumber string
	HeadName         string
	Phone            string
	Zone             string
	AddressLine      string
	City             string
	Pincode          string
	FamilyMembers    models.FamilyMemberList
	IssuedOn         string
}

type stickerData struct {
	MembershipNumber string
	HeadName         string
	AddressLine      string
	City             string
	Pincode          string
}

type stickerSheetData struct {
	Organization string
	Stickers     []stickerData
}

var idCardTemplate = template.Must(template.New("idcard").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Arial, sans-serif; margin: 0; }
  .card { width: 340px; border: 2px solid #1a3c6e; border-radius: 8px; padding: 16px; margin: 24px auto; }
  .org { text-align: center; font-size: 16px; font-weight: bold; color: #1a3c6e; border-bottom: 1px solid #1a3c6e; padding-bottom: 8px; }
  .number { text-align: center; font-size: 13px; margin-top: 6px; color: #444; }
  .row { font-size: 13px; margin-top: 6px; }
  .label { color: #666; }
  table { width: 100%; border-collapse: collapse; margin-top: 8px; font-size: 12px; }
  th, td { border: 1px solid #ccc; padding: 3px 6px; text-align: left; }
  .issued { font-size: 11px; color: #888; text-align: right; margin-top: 10px; }
</style>
</head>
<body>
<div class="card">
  <div class="org">{{.Organization}}</div>
  <div class="number">Membership No. {{.MembershipNumber}}</div>
  <div class="row"><span class="label">Head of family:</span> {{.HeadName}}</div>
  {{if .Phone}}<div class="row"><span class="label">Phone:</span> {{.Phone}}</div>{{end}}
  {{if .Zone}}<div class="row"><span class="label">Zone:</span> {{.Zone}}</div>{{end}}
  {{if .AddressLine}}<div class="row"><span class="label">Address:</span> {{.AddressLine}}, {{.City}} {{.Pincode}}</div>{{end}}
  {{if .FamilyMembers}}
  <table>
    <tr><th>Name</th><th>Relation</th><th>Age</th></tr>
    {{range .FamilyMembers}}<tr><td>{{.Name}}</td><td>{{.Relation}}</td><td>{{if .Age}}{{.Age}}{{end}}</td></tr>{{end}}
  </table>
  {{end}}
  <div class="issued">Issued {{.IssuedOn}}</div>
</div>
</body>
</html>`))

var stickerTemplate = template.Must(template.New("stickers").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Arial, sans-serif; margin: 0; }
  .sheet { display: flex; flex-wrap: wrap; }
  .sticker { width: 240px; border: 1px dashed #999; padding: 10px; margin: 6px; font-size: 12px; }
  .name { font-weight: bold; }
  .number { color: #666; font-size: 11px; }
</style>
</head>
<body>
<div class="sheet">
{{range .Stickers}}
  <div class="sticker">
    <div class="name">{{.HeadName}}</div>
    <div>{{.AddressLine}}</div>
    <div>{{.City}} {{.Pincode}}</div>
    <div class="number">No. {{.MembershipNumber}}</div>
  </div>
{{end}}
</div>
</body>
</html>`))
