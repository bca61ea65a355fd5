// Package export renders member lists as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/souvik9998/gym-crm-sub001/internal/member"
	"github.com/souvik9998/gym-crm-sub001/internal/membership"
)

const (
	SheetName   = "Members"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []string{
	"Name", "Phone", "Join Date", "Plan", "Start Date", "End Date",
	"Status", "Days Left", "Trainer", "PT End Date",
}

func dateCell(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// Row flattens one member into the sheet's column order.
func Row(item member.ListItem, today time.Time) []interface{} {
	sub := item.Subscription.Membership()
	status := membership.Classify(sub, today)

	row := make([]interface{}, 0, len(header))
	row = append(row, item.Name, item.Phone, dateCell(&item.JoinDate))

	if item.Subscription != nil {
		row = append(row, item.Subscription.Plan, dateCell(&item.Subscription.StartDate), dateCell(item.Subscription.EndDate))
	} else {
		row = append(row, "", "", "")
	}

	row = append(row, status.Label())
	if d := membership.DaysLeft(sub, today); d != nil {
		row = append(row, *d)
	} else {
		row = append(row, "")
	}

	if item.ActivePT != nil {
		row = append(row, item.ActivePT.TrainerName, dateCell(&item.ActivePT.EndDate))
	} else {
		row = append(row, "", "")
	}
	return row
}

// WriteMembers writes items as an xlsx workbook with a bold header row.
func WriteMembers(w io.Writer, items []member.ListItem, today time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, len(header), 16); err != nil {
		return err
	}

	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", cells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, Row(item, today)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	_, err = f.WriteTo(w)
	return err
}
