package services

import (
	"time"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/roster"
)

// WeekSource provides the input tables of a roster week
type WeekSource interface {
	ReadTables() (model.Tables, error)
}

// Publisher writes a computed roster somewhere and returns where it went
type Publisher interface {
	Publish(weekStart time.Time, result *roster.Result) ([]string, error)
}

// StaticSource is a WeekSource over tables already in memory
type StaticSource model.Tables

// ReadTables returns the tables
func (s StaticSource) ReadTables() (model.Tables, error) {
	return model.Tables(s), nil
}

// SpreadsheetReader reads the input tabs of a spreadsheet
type SpreadsheetReader interface {
	ReadTables(spreadsheetID string) (model.Tables, error)
}

type spreadsheetSource struct {
	client        SpreadsheetReader
	spreadsheetID string
}

// SpreadsheetSource reads the input tables from a fixed spreadsheet
func SpreadsheetSource(client SpreadsheetReader, spreadsheetID string) WeekSource {
	return &spreadsheetSource{client: client, spreadsheetID: spreadsheetID}
}

func (s *spreadsheetSource) ReadTables() (model.Tables, error) {
	return s.client.ReadTables(s.spreadsheetID)
}

// CSVWriter writes roster output files
type CSVWriter interface {
	WriteRoster(result *roster.Result) ([]string, error)
}

type csvPublisher struct {
	writer CSVWriter
}

// CSVPublisher publishes rosters as CSV files
func CSVPublisher(writer CSVWriter) Publisher {
	return &csvPublisher{writer: writer}
}

func (p *csvPublisher) Publish(_ time.Time, result *roster.Result) ([]string, error) {
	return p.writer.WriteRoster(result)
}

// SpreadsheetWriter writes a roster to a spreadsheet tab
type SpreadsheetWriter interface {
	PublishRoster(spreadsheetID string, weekStart time.Time, result *roster.Result) (string, error)
}

type spreadsheetPublisher struct {
	writer        SpreadsheetWriter
	spreadsheetID string
}

// SpreadsheetPublisher publishes rosters to a tab of a fixed spreadsheet
func SpreadsheetPublisher(writer SpreadsheetWriter, spreadsheetID string) Publisher {
	return &spreadsheetPublisher{writer: writer, spreadsheetID: spreadsheetID}
}

func (p *spreadsheetPublisher) Publish(weekStart time.Time, result *roster.Result) ([]string, error) {
	tab, err := p.writer.PublishRoster(p.spreadsheetID, weekStart, result)
	if err != nil {
		return nil, err
	}
	return []string{tab}, nil
}
