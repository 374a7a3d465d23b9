package energy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rows []Row
	err  error
}

func (f fakeSource) Rows(ctx context.Context, period Period, houseID int) ([]Row, error) {
	return f.rows, f.err
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", Monthly, false},
		{"monthly", Monthly, false},
		{"daily", Daily, false},
		{"weekly", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownPeriod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupGroup(t *testing.T) {
	g, err := LookupGroup("power")
	require.NoError(t, err)
	assert.Equal(t, []string{"import_power", "export_power"}, g.Metrics)
	assert.Equal(t, "kWh", g.Unit)

	g.Metrics[0] = "mutated"
	again, _ := LookupGroup("power")
	assert.Equal(t, "import_power", again.Metrics[0])

	_, err = LookupGroup("frequency")
	assert.ErrorIs(t, err, ErrUnknownGroup)

	for _, name := range GroupNames {
		_, err := LookupGroup(name)
		assert.NoError(t, err, name)
	}
}

func TestColumns(t *testing.T) {
	monthly := Columns(Monthly)
	require.Len(t, monthly, 12)
	assert.Equal(t, "month_01", monthly[0])
	assert.Equal(t, "month_12", monthly[11])

	daily := Columns(Daily)
	require.Len(t, daily, SlotsPerDay)
	assert.Equal(t, "slot_00_00", daily[0])
	assert.Equal(t, "slot_00_30", daily[1])
	assert.Equal(t, "slot_23_30", daily[47])
}

func TestMonthlyPoints(t *testing.T) {
	rows := []Row{
		{HouseID: 1, Metric: "import_power", Values: map[string]float64{"month_01": 10.5, "month_12": 3}},
	}

	points := MonthlyPoints(rows, []string{"import_power", "export_power"})

	require.Len(t, points, 12)
	assert.Equal(t, "Jan", points[0].Label)
	assert.Equal(t, 0, points[0].Index)
	assert.Equal(t, map[string]float64{"import_power": 10.5, "export_power": 0}, points[0].Values)
	assert.Equal(t, 0.0, points[5].Values["import_power"], "missing month charts as zero")
	assert.Equal(t, "Dec", points[11].Label)
	assert.Equal(t, 3.0, points[11].Values["import_power"])
}

func TestDailyPoints(t *testing.T) {
	rows := []Row{
		{HouseID: 1, Metric: "voltage", Values: map[string]float64{"slot_00_00": 230, "slot_13_30": 228.5}},
	}

	points := DailyPoints(rows, []string{"voltage"})

	require.Len(t, points, SlotsPerDay)
	assert.Equal(t, "00:00", points[0].Label)
	assert.Equal(t, 230.0, points[0].Values["voltage"])
	assert.Equal(t, "13:30", points[27].Label)
	assert.Equal(t, 27, points[27].Index)
	assert.Equal(t, 228.5, points[27].Values["voltage"])
	assert.Equal(t, 0.0, points[1].Values["voltage"])
}

func TestQuery(t *testing.T) {
	src := fakeSource{rows: []Row{
		{HouseID: 4, Metric: "voltage", Values: map[string]float64{"month_03": 231}},
	}}

	s, err := Query(context.Background(), src, Monthly, 4, "voltage")
	require.NoError(t, err)
	assert.Equal(t, 4, s.HouseID)
	assert.Equal(t, "V", s.Group.Unit)
	assert.Equal(t, 231.0, s.Points[2].Values["voltage"])

	_, err = Query(context.Background(), src, Monthly, 4, "nope")
	assert.ErrorIs(t, err, ErrUnknownGroup)

	boom := errors.New("boom")
	_, err = Query(context.Background(), fakeSource{err: boom}, Daily, 4, "power")
	assert.ErrorIs(t, err, boom)
}
