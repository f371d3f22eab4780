package em7565

import (
	"fmt"

	"github.com/LeoCommon/cellmodem/pkg/modem"
	"github.com/LeoCommon/cellmodem/pkg/tokenfind"
)

const informationStringLen = 128

func infoLine(name, label string, set func(*modem.Information, string)) tokenfind.Field[modem.Information] {
	return tokenfind.StringField(name, label+`:\s+([^\r\n]*)`, informationStringLen, set)
}

var informationFields = []tokenfind.Field[modem.Information]{
	infoLine("manufacturer", "Manufacturer", func(i *modem.Information, v string) { i.Manufacturer = v }),
	infoLine("model", "Model", func(i *modem.Information, v string) { i.Model = v }),
	infoLine("revision", "Revision", func(i *modem.Information, v string) { i.Revision = v }),
	infoLine("meid", "MEID", func(i *modem.Information, v string) { i.MEID = v }),
	infoLine("imei", "IMEI", func(i *modem.Information, v string) { i.IMEI = v }),
	infoLine("imei sv", "IMEI SV", func(i *modem.Information, v string) { i.IMEISV = v }),
	infoLine("fsn", "FSN", func(i *modem.Information, v string) { i.FSN = v }),
}

// Information reads the identification of the modem.
func (m *Modem) Information() (modem.Information, error) {
	var info modem.Information

	text, err := m.exec(cmdInformation, "")
	if err != nil {
		return info, err
	}

	if tokenfind.Batch(m.x, text, &info, informationFields) == 0 {
		return info, fmt.Errorf("information: %w", modem.ErrIncomplete)
	}
	return info, nil
}

// Sections of the LTE info response, each is a table with a header row
const (
	servingSection   = `(?s)Serving:\s+(.*)IntraFreq:`
	intraFreqSection = `(?s)IntraFreq:\s+(.*)InterFreq:`
	interFreqSection = `(?s)InterFreq:\s+(.*)WCDMA:`
)

// row reads cells of one table row, cells that are missing or malformed read as zero
type row struct {
	t   tokenfind.Table
	idx int
}

func (r row) intAt(col int) int {
	v, _ := r.t.Int(r.idx, col, 10)
	return int(v)
}

func (r row) hexAt(col int) int {
	v, _ := r.t.Int(r.idx, col, 16)
	return int(v)
}

func (r row) floatAt(col int) float64 {
	v, _ := r.t.Float(r.idx, col)
	return v
}

func (m *Modem) section(text, pattern string) (tokenfind.Table, bool) {
	span, err := m.x.MatchSingle(text, pattern)
	if err != nil {
		return nil, false
	}

	table := tokenfind.ParseTable(span.In(text))
	return table, table.Rows() > 1
}

// LTEInfo reads the serving cell and the neighbour cell lists.
// The returned value is always built from one response, neighbour lists are never merged with older ones.
func (m *Modem) LTEInfo() (modem.LTEInfo, error) {
	var info modem.LTEInfo

	text, err := m.exec(cmdLTEInfo, "")
	if err != nil {
		return info, err
	}

	found := 0

	if table, ok := m.section(text, servingSection); ok {
		found++
		r := row{t: table, idx: 1}
		info.EARFCN = r.intAt(0)
		info.MCC = r.intAt(1)
		info.MNC = r.intAt(2)
		info.TAC = r.intAt(3)
		info.CellID = r.hexAt(4)
		info.Band = r.intAt(5)
		info.D = r.intAt(6)
		info.U = r.intAt(7)
		info.SNR = r.intAt(8)
		info.PCI = r.intAt(9)
		info.RSRQ = r.floatAt(10)
		info.RSRP = r.floatAt(11)
		info.RSSI = r.floatAt(12)
		info.RxLv = r.intAt(13)
	}

	if table, ok := m.section(text, intraFreqSection); ok {
		found++
		neighbours := make([]modem.IntraFreqNeighbour, 0, table.Rows()-1)
		for i := 1; i < table.Rows(); i++ {
			r := row{t: table, idx: i}
			neighbours = append(neighbours, modem.IntraFreqNeighbour{
				PCI:  r.intAt(0),
				RSRQ: r.floatAt(1),
				RSRP: r.floatAt(2),
				RSSI: r.floatAt(3),
				RxLv: r.intAt(4),
			})
		}
		info.IntraFreq = neighbours
	}

	if table, ok := m.section(text, interFreqSection); ok {
		found++
		neighbours := make([]modem.InterFreqNeighbour, 0, table.Rows()-1)
		for i := 1; i < table.Rows(); i++ {
			r := row{t: table, idx: i}
			neighbours = append(neighbours, modem.InterFreqNeighbour{
				EARFCN:        r.intAt(0),
				ThresholdLow:  r.intAt(1),
				ThresholdHigh: r.intAt(2),
				Priority:      r.intAt(3),
				PCI:           r.intAt(4),
				RSRQ:          r.floatAt(5),
				RSRP:          r.floatAt(6),
				RSSI:          r.floatAt(7),
				RxLv:          r.intAt(8),
			})
		}
		info.InterFreq = neighbours
	}

	if found == 0 {
		return info, fmt.Errorf("lteinfo: %w", modem.ErrIncomplete)
	}
	return info, nil
}
