package harti

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"bulletin-etl/models"
	"bulletin-etl/utils"
)

// TabulaExtractor runs tabula-java in lattice mode and converts its JSON
// output into raw tables.
type TabulaExtractor struct {
	javaBin string
	jar     string
	logger  *utils.Logger
}

func NewTabulaExtractor(javaBin, jar string, logger *utils.Logger) *TabulaExtractor {
	return &TabulaExtractor{javaBin: javaBin, jar: jar, logger: logger}
}

// ExtractTables returns every ruled table found on the 1-based page.
func (t *TabulaExtractor) ExtractTables(ctx context.Context, doc []byte, page int) ([]models.RawTable, error) {
	tmp, err := os.CreateTemp("", "bulletin-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("tabula: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("tabula: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("tabula: close temp file: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.javaBin, "-jar", t.jar,
		"--lattice", "--pages", strconv.Itoa(page), "--format", "JSON", tmp.Name())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: tabula page %d: %v: %s", models.ErrParse, page, err,
			strings.TrimSpace(stderr.String()))
	}

	tables, err := ParseTabulaJSON(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	t.logger.Debug("[tabula] Page %d yielded %d tables", page, len(tables))
	return tables, nil
}

type tabulaTable struct {
	Data [][]struct {
		Text string `json:"text"`
	} `json:"data"`
}

// ParseTabulaJSON converts tabula's JSON output. The first row of each table
// becomes its header; repeated header labels get ".1", ".2"... suffixes.
// Tables without data rows are dropped.
func ParseTabulaJSON(data []byte) ([]models.RawTable, error) {
	var raw []tabulaTable
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: tabula json: %v", models.ErrParse, err)
	}

	var tables []models.RawTable
	for _, rt := range raw {
		if len(rt.Data) < 2 {
			continue
		}
		rows := make([][]string, len(rt.Data))
		for i, cells := range rt.Data {
			row := make([]string, len(cells))
			for j, c := range cells {
				row[j] = c.Text
			}
			rows[i] = row
		}
		table := models.RawTable{Header: rows[0], Rows: rows[1:]}
		table.Pad()
		table.Header = dedupeLabels(table.Header)
		tables = append(tables, table)
	}
	return tables, nil
}

func dedupeLabels(labels []string) []string {
	out := make([]string, len(labels))
	counts := make(map[string]int, len(labels))
	for i, l := range labels {
		if n := counts[l]; n > 0 {
			out[i] = l + "." + strconv.Itoa(n)
		} else {
			out[i] = l
		}
		counts[l]++
	}
	return out
}
