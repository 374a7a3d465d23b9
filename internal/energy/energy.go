// Package energy turns per-house metric rows into chart series.
package energy

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownGroup is returned for metric groups not in GroupNames.
var ErrUnknownGroup = errors.New("unknown metric group")

// ErrUnknownPeriod is returned by ParsePeriod for anything but monthly/daily.
var ErrUnknownPeriod = errors.New("unknown period")

// Period selects the aggregation a row holds.
type Period string

const (
	Monthly Period = "monthly"
	Daily   Period = "daily"
)

// ParsePeriod validates a period name. The empty string means Monthly.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", Monthly:
		return Monthly, nil
	case Daily:
		return Daily, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Group is a named set of metrics charted together.
type Group struct {
	Name    string   `json:"name"`
	Metrics []string `json:"metrics"`
	Unit    string   `json:"unit"`
}

var groups = map[string]Group{
	"voltage":  {Name: "voltage", Metrics: []string{"voltage"}, Unit: "V"},
	"power":    {Name: "power", Metrics: []string{"import_power", "export_power"}, Unit: "kWh"},
	"reactive": {Name: "reactive", Metrics: []string{"inductive_power", "capacitive_power"}, Unit: "kVArh"},
}

// GroupNames lists the known groups in display order.
var GroupNames = []string{"voltage", "power", "reactive"}

// LookupGroup returns the group called name.
func LookupGroup(name string) (Group, error) {
	g, ok := groups[name]
	if !ok {
		return Group{}, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	g.Metrics = append([]string(nil), g.Metrics...)
	return g, nil
}

// Row is one wide-format record: all columns of one metric for one house.
type Row struct {
	HouseID int                `json:"house_id"`
	Metric  string             `json:"metric"`
	Values  map[string]float64 `json:"values"`
}

// Point is one chart x position with a value per metric.
type Point struct {
	Label  string             `json:"label"`
	Index  int                `json:"index"`
	Values map[string]float64 `json:"values"`
}

// Source looks up the rows of one house.
type Source interface {
	Rows(ctx context.Context, period Period, houseID int) ([]Row, error)
}

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// SlotsPerDay is the number of half-hour slots in a daily profile.
const SlotsPerDay = 48

// MonthColumn returns the column name for month index i (0-based).
func MonthColumn(i int) string {
	return fmt.Sprintf("month_%02d", i+1)
}

// SlotColumn returns the column name for half-hour slot i (0-based).
func SlotColumn(i int) string {
	return fmt.Sprintf("slot_%s", slotTime(i, '_'))
}

func slotTime(i int, sep byte) string {
	return fmt.Sprintf("%02d%c%02d", i/2, sep, (i%2)*30)
}

// Columns returns the value columns of period in chart order.
func Columns(period Period) []string {
	if period == Daily {
		cols := make([]string, SlotsPerDay)
		for i := range cols {
			cols[i] = SlotColumn(i)
		}
		return cols
	}
	cols := make([]string, len(monthLabels))
	for i := range cols {
		cols[i] = MonthColumn(i)
	}
	return cols
}

// MonthlyPoints builds 12 points labelled Jan..Dec. Metrics without a row, or
// rows missing a month, chart as 0.
func MonthlyPoints(rows []Row, metrics []string) []Point {
	points := make([]Point, len(monthLabels))
	for i := range points {
		points[i] = Point{Label: monthLabels[i], Index: i, Values: values(rows, metrics, MonthColumn(i))}
	}
	return points
}

// DailyPoints builds 48 half-hour points labelled "HH:MM".
func DailyPoints(rows []Row, metrics []string) []Point {
	points := make([]Point, SlotsPerDay)
	for i := range points {
		points[i] = Point{Label: slotTime(i, ':'), Index: i, Values: values(rows, metrics, SlotColumn(i))}
	}
	return points
}

// Points dispatches on period.
func Points(period Period, rows []Row, metrics []string) []Point {
	if period == Daily {
		return DailyPoints(rows, metrics)
	}
	return MonthlyPoints(rows, metrics)
}

func values(rows []Row, metrics []string, column string) map[string]float64 {
	out := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		out[m] = 0
		for _, r := range rows {
			if r.Metric == m {
				out[m] = r.Values[column]
				break
			}
		}
	}
	return out
}

// Series is the chart payload for one house and metric group.
type Series struct {
	HouseID int     `json:"house_id"`
	Period  Period  `json:"period"`
	Group   Group   `json:"group"`
	Points  []Point `json:"points"`
}

// Query fetches the rows of houseID from src and builds the group's series.
func Query(ctx context.Context, src Source, period Period, houseID int, groupName string) (Series, error) {
	g, err := LookupGroup(groupName)
	if err != nil {
		return Series{}, err
	}
	rows, err := src.Rows(ctx, period, houseID)
	if err != nil {
		return Series{}, fmt.Errorf("fetching %s rows for house %d: %w", period, houseID, err)
	}
	return Series{
		HouseID: houseID,
		Period:  period,
		Group:   g,
		Points:  Points(period, rows, g.Metrics),
	}, nil
}
