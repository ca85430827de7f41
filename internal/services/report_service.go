package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"fieldserve-backend/internal/repositories"
	"fieldserve-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// ReportService renders printable service reports
type ReportService struct {
	RequestRepo   *repositories.ServiceRequestRepository
	SparePartRepo *repositories.SparePartRepository
}

func NewReportService(requestRepo *repositories.ServiceRequestRepository, sparePartRepo *repositories.SparePartRepository) *ReportService {
	return &ReportService{RequestRepo: requestRepo, SparePartRepo: sparePartRepo}
}

// ServiceReportPDF renders the full lifecycle of a request as a PDF
func (s *ReportService) ServiceReportPDF(ctx context.Context, requestID int) ([]byte, string, error) {
	detail, err := s.RequestRepo.GetDetailed(ctx, requestID)
	if err != nil {
		return nil, "", mapNoRows(err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Service Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.Now().Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Request info box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Request Details", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Request: %s", detail.RequestCode), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Status: %s", detail.Status), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Machine: %s", detail.MachineName), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Serial No: %s", detail.SerialNumber), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Customer: %s", detail.CustomerName), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Mobile: %s", detail.CustomerMobile), "RB", 1, "L", false, 0, "")
	if detail.EngineerName != nil {
		pdf.CellFormat(95, 7, fmt.Sprintf("Engineer: %s", *detail.EngineerName), "LB", 0, "L", false, 0, "")
	} else {
		pdf.CellFormat(95, 7, "Engineer: -", "LB", 0, "L", false, 0, "")
	}
	if detail.ClosedOn != nil {
		pdf.CellFormat(95, 7, fmt.Sprintf("Closed On: %s", timeutil.ToIST(*detail.ClosedOn).Format("02-Jan-2006")), "RB", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(95, 7, "Closed On: -", "RB", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	// Problem
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Reported Problem", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	if detail.Problem != nil {
		pdf.MultiCell(190, 7, detail.Problem.Description, "LRB", "L", false)
	} else {
		pdf.CellFormat(190, 7, "-", "LRB", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	// Solution
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Solution", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	if detail.Solution != nil {
		pdf.MultiCell(190, 7, detail.Solution.Description, "LRB", "L", false)

		if len(detail.Solution.SparePartIDs) > 0 {
			names := s.sparePartNames(ctx, detail.Solution.SparePartIDs)
			pdf.Ln(2)
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(190, 7, "Spare Parts Used", "1", 1, "L", true, 0, "")
			pdf.SetFont("Arial", "", 11)
			pdf.MultiCell(190, 7, strings.Join(names, ", "), "LRB", "L", false)
		}
	} else {
		pdf.CellFormat(190, 7, "-", "LRB", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	// Payment
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Payment", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Payable: Rs. %.2f", detail.PayableAmount), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Paid: Rs. %.2f", detail.PaidAmount), "RB", 1, "L", false, 0, "")
	mode := "-"
	if detail.PaymentMode != nil {
		mode = *detail.PaymentMode
	}
	date := "-"
	if detail.PaymentDate != nil {
		date = timeutil.ToIST(*detail.PaymentDate).Format("02-Jan-2006")
	}
	pdf.CellFormat(95, 7, fmt.Sprintf("Mode: %s", mode), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Date: %s", date), "RB", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to render PDF: %w", err)
	}

	filename := fmt.Sprintf("service-report-%s.pdf", detail.RequestCode)
	return buf.Bytes(), filename, nil
}

// sparePartNames resolves part ids to names, falling back to the raw id
func (s *ReportService) sparePartNames(ctx context.Context, ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		part, err := s.SparePartRepo.Get(ctx, id)
		if err != nil {
			names = append(names, fmt.Sprintf("#%d", id))
			continue
		}
		names = append(names, part.Name)
	}
	return names
}
