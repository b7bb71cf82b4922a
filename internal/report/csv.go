// Package report exports roster data as spreadsheet-friendly CSV.
package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/swimref/roster/internal/application"
)

// bom makes spreadsheet applications detect UTF-8.
const bom = "\ufeff"

// ContentType is the MIME type of the exported files.
const ContentType = "text/csv; charset=utf-8"

// writeTable writes the BOM, the uppercased headers and every row with each
// value quoted.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(bom)

	upper := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
	}
	bw.WriteString(strings.Join(upper, ","))

	for _, row := range rows {
		bw.WriteString("\n")
		for i, v := range row {
			if i > 0 {
				bw.WriteString(",")
			}
			bw.WriteString(quote(v))
		}
	}
	return bw.Flush()
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// WriteAttendanceCSV exports one season's attendance statistics.
func WriteAttendanceCSV(w io.Writer, season int, stats []application.RefereeStats) error {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Name,
			s.Email,
			strconv.Itoa(s.Attended),
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Percentage) + "%",
			strconv.Itoa(season),
		})
	}
	return writeTable(w, []string{"Nome", "Email", "Presenças", "Total", "Percentagem", "Época"}, rows)
}

// WriteCompetitionsCSV exports the competition list.
func WriteCompetitionsCSV(w io.Writer, competitions []application.Competition) error {
	rows := make([][]string, 0, len(competitions))
	for _, c := range competitions {
		paid := "Não"
		if c.IsPaid {
			paid = "Sim"
		}
		rows = append(rows, []string{
			c.Name,
			c.Location,
			c.Date.Format("02/01/2006"),
			c.CRAResponsible,
			paid,
		})
	}
	return writeTable(w, []string{"Nome", "Local", "Data", "Responsável", "Pago"}, rows)
}

// WriteUsersCSV exports the user list.
func WriteUsersCSV(w io.Writer, users []application.User) error {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.Name, u.Email, string(u.Role), string(u.Status)})
	}
	return writeTable(w, []string{"Nome", "Email", "Função", "Estado"}, rows)
}
