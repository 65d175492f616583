package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

// Writes a workbook copy of card_sample.csv for manual runs of the CLI and
// upload endpoint. Run from the repository root: go run ./scripts [dir]
func main() {
	dir := "testdata"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	generateCardFixture(dir)
}

func writeSheet(path string, headers []string, data [][]interface{}) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, row := range data {
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheet, cell, val)
		}
	}

	if err := f.SaveAs(path); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Generated", path)
}

// generateCardFixture mirrors card_sample.csv with date and numeric cells
func generateCardFixture(dir string) {
	headers := []string{"Transaction Date", "Post Date", "Description", "Category", "Type", "Amount"}

	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	data := [][]interface{}{
		{day(1, 2), day(1, 3), "WHOLE FOODS", "Groceries", "Sale", -54.20},
		{day(1, 2), day(1, 3), "SHELL OIL", "Gas", "Sale", -40.00},
		{day(1, 5), day(1, 6), "NETFLIX.COM", "Entertainment", "Sale", -15.49},
		{day(1, 5), day(1, 6), "TRADER JOE'S", "Groceries", "Sale", -32.10},
		{day(1, 10), day(1, 10), "Payment Thank You-Mobile", "", "Payment", 500.00},
		{day(1, 12), day(1, 13), "AMAZON MKTPLACE", "Shopping", "Return", 25.00},
		{day(1, 15), day(1, 16), "CHIPOTLE, ONLINE", "Food & Drink", "Sale", -12.75},
		{day(2, 1), day(2, 2), "SHELL OIL", "Gas", "Sale", -38.60},
		{day(2, 3), day(2, 4), "UNKNOWN MERCHANT", "", "Sale", -9.99},
	}

	writeSheet(filepath.Join(dir, "card_sample.xlsx"), headers, data)
}
