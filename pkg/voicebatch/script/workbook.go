// Package script は台本 (キャラクター・台詞・出力ファイル名の表) を xlsx / csv から読み込みます。
package script

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shouni/go-voice-batch/pkg/voicebatch/task"
)

// DefaultStartRow は見出し行を飛ばした最初のデータ行 (1始まり) です。
const DefaultStartRow = 2

// Workbook は読み込んだ台本ブックです。シートは宣言順に保持されます。
type Workbook struct {
	sheetNames []string
	sheets     map[string][][]string
	selected   string
}

// Open は拡張子に応じて xlsx / csv を読み込みます。最初のシートが選択された状態で返ります。
func Open(path string) (*Workbook, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return openXLSX(path)
	case ".csv":
		return openCSV(path)
	default:
		return nil, &ErrUnsupportedFormat{Path: path}
	}
}

func openXLSX(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("台本ファイルを開けません (%s): %w", path, err)
	}
	defer f.Close()

	wb := &Workbook{sheets: make(map[string][][]string)}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("シート '%s' の読み込みに失敗しました: %w", name, err)
		}
		wb.sheetNames = append(wb.sheetNames, name)
		wb.sheets[name] = rows
	}
	if len(wb.sheetNames) == 0 {
		return nil, fmt.Errorf("台本ファイルにシートがありません (%s)", path)
	}
	wb.selected = wb.sheetNames[0]
	return wb, nil
}

// openCSV はファイル名 (拡張子なし) をシート名とする1シートのブックとして読み込みます。
func openCSV(path string) (*Workbook, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("台本ファイルを開けません (%s): %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSVの解析に失敗しました (%s): %w", path, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return FromRows(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), rows), nil
}

// FromRows はメモリ上の表から1シートのブックを作成します。
func FromRows(sheetName string, rows [][]string) *Workbook {
	return &Workbook{
		sheetNames: []string{sheetName},
		sheets:     map[string][][]string{sheetName: rows},
		selected:   sheetName,
	}
}

// ----------------------------------------------------------------------
// シート操作
// ----------------------------------------------------------------------

// ListSheets はシート名を宣言順に返します。
func (w *Workbook) ListSheets() []string {
	return slices.Clone(w.sheetNames)
}

// SelectSheet は以降の読み取り対象シートを切り替えます。
func (w *Workbook) SelectSheet(name string) error {
	if _, ok := w.sheets[name]; !ok {
		return &ErrSheetNotFound{Name: name}
	}
	w.selected = name
	return nil
}

// Selected は選択中のシート名を返します。
func (w *Workbook) Selected() string {
	return w.selected
}

// ColumnLetters は選択中のシートで使われている列の記号 (A, B, ...) を返します。
func (w *Workbook) ColumnLetters() []string {
	width := 0
	for _, row := range w.sheets[w.selected] {
		width = max(width, len(row))
	}
	letters := make([]string, 0, width)
	for i := 1; i <= width; i++ {
		name, err := excelize.ColumnNumberToName(i)
		if err != nil {
			break
		}
		letters = append(letters, name)
	}
	return letters
}

// UniqueValues は列 column の startRow 行目以降にある値を、前後の空白を除き重複なしで昇順に返します。
func (w *Workbook) UniqueValues(column string, startRow int) ([]string, error) {
	idx, err := columnIndex(column)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var values []string
	for _, row := range w.dataRows(startRow) {
		v := strings.TrimSpace(cell(row, idx))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	slices.Sort(values)
	return values, nil
}

// Columns は台本の列割り当てです。
type Columns struct {
	Character string
	Dialogue  string
	Filename  string
}

// RowsForCharacter はキャラクター列が character と一致する行を、シート上の順序のまま返します。
func (w *Workbook) RowsForCharacter(cols Columns, character string, startRow int) ([]task.ScriptRow, error) {
	rows, err := w.Rows(cols, startRow)
	if err != nil {
		return nil, err
	}
	character = strings.TrimSpace(character)

	var matched []task.ScriptRow
	for _, r := range rows {
		if strings.TrimSpace(r.Character) == character {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// Rows は startRow 行目以降のすべての行を ScriptRow として返します。値は加工しません。
func (w *Workbook) Rows(cols Columns, startRow int) ([]task.ScriptRow, error) {
	var idx [3]int
	for i, col := range []string{cols.Character, cols.Dialogue, cols.Filename} {
		n, err := columnIndex(col)
		if err != nil {
			return nil, err
		}
		idx[i] = n
	}

	data := w.dataRows(startRow)
	rows := make([]task.ScriptRow, 0, len(data))
	for _, row := range data {
		rows = append(rows, task.ScriptRow{
			Character: cell(row, idx[0]),
			Dialogue:  cell(row, idx[1]),
			Filename:  cell(row, idx[2]),
		})
	}
	return rows, nil
}

// ----------------------------------------------------------------------
// ヘルパー関数
// ----------------------------------------------------------------------

func (w *Workbook) dataRows(startRow int) [][]string {
	rows := w.sheets[w.selected]
	if startRow < 1 {
		startRow = 1
	}
	if startRow > len(rows) {
		return nil
	}
	return rows[startRow-1:]
}

// columnIndex は列記号を0始まりの添字に変換します。
func columnIndex(column string) (int, error) {
	column = strings.ToUpper(strings.TrimSpace(column))
	if column == "" {
		return 0, &ErrInvalidColumn{Column: column, WrappedErr: errors.New("列が指定されていません")}
	}
	n, err := excelize.ColumnNameToNumber(column)
	if err != nil {
		return 0, &ErrInvalidColumn{Column: column, WrappedErr: err}
	}
	return n - 1, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
