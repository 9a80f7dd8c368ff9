package lead

import (
	"encoding/csv"
	"io"
	"time"
)

var exportHeader = []string{
	"Date", "Nom", "Email", "Téléphone", "Type véhicule", "Marque", "Type vitrage", "Localisation", "Statut",
}

var exportLocation = loadExportLocation()

func loadExportLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return time.Local
	}
	return loc
}

// WriteCSV writes leads as a spreadsheet-friendly CSV: UTF-8 BOM, ';'
// separated, dates as dd/mm/yyyy in loc and French status labels.
func WriteCSV(w io.Writer, leads []Lead, loc *time.Location) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, l := range leads {
		record := []string{
			l.CreatedAt.In(loc).Format("02/01/2006"),
			l.Name,
			l.Email,
			l.Phone,
			l.VehicleType,
			l.VehicleBrand,
			string(l.GlassType),
			l.Location,
			l.Status.Label(),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
