package service

import (
	"context"
	"fmt"
	"io"

	"anoa.com/linkbio/internal/entity"
	"anoa.com/linkbio/pkg/apperror"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Links"

// Export writes the caller's links, bio page link included, as an xlsx
// workbook.
func (s *linkService) Export(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	links, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return apperror.Internal(err)
	}

	f, err := buildWorkbook(links)
	if err != nil {
		return apperror.Internal(err)
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return apperror.Internal(fmt.Errorf("write workbook: %w", err))
	}
	return nil
}

func buildWorkbook(links []*entity.Link) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, err
	}

	headers := []string{"Slug", "Título", "Destino", "Página bio", "Cliques", "Criado em"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}

	for idx, l := range links {
		row := idx + 2
		bio := "não"
		if l.IsBioLink {
			bio = "sim"
		}

		f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), l.Slug)
		f.SetCellValue(exportSheet, fmt.Sprintf("B%d", row), l.Title)
		f.SetCellValue(exportSheet, fmt.Sprintf("C%d", row), l.DestinationURL)
		f.SetCellValue(exportSheet, fmt.Sprintf("D%d", row), bio)
		f.SetCellValue(exportSheet, fmt.Sprintf("E%d", row), l.Clicks)
		f.SetCellValue(exportSheet, fmt.Sprintf("F%d", row), l.CreatedAt.Format("2006-01-02 15:04"))
	}

	f.SetColWidth(exportSheet, "A", "A", 16)
	f.SetColWidth(exportSheet, "B", "B", 30)
	f.SetColWidth(exportSheet, "C", "C", 50)
	f.SetColWidth(exportSheet, "D", "E", 12)
	f.SetColWidth(exportSheet, "F", "F", 18)

	return f, nil
}
