package traffic

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary condenses the reports of one transfer. Datarates are in bytes per second.
type Summary struct {
	Bytes   int64
	Seconds float64
	// over the whole transfer
	Average float64

	// of the intermediate reports, zero without any
	Reports int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
}

func summarize(final Report, datarates []float64) Summary {
	s := Summary{
		Bytes:   final.Transferred,
		Seconds: final.Elapsed.Seconds(),
		Average: final.DatarateDL + final.DatarateUL,
		Reports: len(datarates),
	}

	if len(datarates) == 0 {
		return s
	}

	s.Min = floats.Min(datarates)
	s.Max = floats.Max(datarates)
	if len(datarates) == 1 {
		s.Mean = datarates[0]
		return s
	}

	s.Mean, s.StdDev = stat.MeanStdDev(datarates, nil)
	return s
}
